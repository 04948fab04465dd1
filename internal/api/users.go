package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// UsersHandler handles profile and user management endpoints.
type UsersHandler struct {
	DB *sqlx.DB
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.UpdateProfile(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		writeError(w, r, err, "update profile")
		return
	}

	slog.Info("profile updated", "user", user.Username)
	jsonResponse(w, http.StatusOK, user)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, "list users")
		return
	}

	users, err := store.ListUsers(r.Context(), h.DB, page, limit)
	if err != nil {
		writeError(w, r, err, "list users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Search handles GET /api/users/search?q=.
func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, "search users")
		return
	}

	users, err := store.SearchUsers(r.Context(), h.DB, r.URL.Query().Get("q"), page, limit)
	if err != nil {
		writeError(w, r, err, "search users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	if id == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err, "delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "target_user", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ToggleStatus handles PUT /api/users/{id}/toggle-status.
func (h *UsersHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	if id == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot deactivate yourself")
		return
	}

	user, err := store.ToggleUserActive(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "toggle user status")
		return
	}

	slog.Info("user status toggled", "user", claims.Username, "target_user", user.Username, "active", user.IsActive)
	jsonResponse(w, http.StatusOK, user)
}
