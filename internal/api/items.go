package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// ItemsHandler handles item listing endpoints.
type ItemsHandler struct {
	DB *sqlx.DB
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, "list items")
		return
	}

	q := r.URL.Query()
	result, err := store.ListItems(r.Context(), h.DB, store.ListQuery{
		Page:         page,
		Limit:        limit,
		Category:     q.Get("category"),
		Size:         q.Get("size"),
		Condition:    q.Get("condition"),
		ExchangeType: q.Get("exchange_type"),
		Search:       q.Get("search"),
		Sort:         q.Get("sort"),
		Order:        q.Get("order"),
	})
	if err != nil {
		writeError(w, r, err, "list items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ItemInput
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		writeError(w, r, err, "create item")
		return
	}

	slog.Info("item created", "user", claims.Username, "item", item.ID, "title", item.Title)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}. Every call counts as a view.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ItemPatch
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, r.PathValue("id"), claims.UserID, req)
	if err != nil {
		writeError(w, r, err, "update item")
		return
	}

	slog.Info("item updated", "user", claims.Username, "item", item.ID)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	if err := store.DeleteItem(r.Context(), h.DB, id, claims.UserID); err != nil {
		writeError(w, r, err, "delete item")
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// SetStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	isAdmin := model.RoleAtLeast(claims.Role, model.RoleAdmin)
	item, err := store.SetItemStatus(r.Context(), h.DB, r.PathValue("id"), claims.UserID, isAdmin, req.Status)
	if err != nil {
		writeError(w, r, err, "set item status")
		return
	}

	slog.Info("item status changed", "user", claims.Username, "item", item.ID, "status", item.Status)
	jsonResponse(w, http.StatusOK, item)
}

// SetActive handles PUT /api/items/{id}/active.
func (h *ItemsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IsActive == nil {
		writeError(w, r, model.NewValidationError("is_active", "is_active is required"), "set item active")
		return
	}

	item, err := store.SetItemActive(r.Context(), h.DB, r.PathValue("id"), *req.IsActive)
	if err != nil {
		writeError(w, r, err, "set item active")
		return
	}

	slog.Info("item visibility changed", "user", claims.Username, "item", item.ID, "active", item.IsActive)
	jsonResponse(w, http.StatusOK, item)
}

// UserItems handles GET /api/users/{id}/items?type=posted|favorites.
func (h *ItemsHandler) UserItems(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, "list user items")
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = store.UserItemsPosted
	}

	result, err := store.ListUserItems(r.Context(), h.DB, r.PathValue("id"), kind, page, limit)
	if err != nil {
		writeError(w, r, err, "list user items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
