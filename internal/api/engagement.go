package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// EngagementHandler handles favorites and interest endpoints.
type EngagementHandler struct {
	DB *sqlx.DB
}

type favoriteResponse struct {
	IsFavorited bool `json:"is_favorited"`
}

type interestRequest struct {
	Message string `json:"message"`
}

// ToggleFavorite handles POST /api/items/{id}/favorite.
func (h *EngagementHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	favorited, err := store.ToggleFavorite(r.Context(), h.DB, r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, r, err, "toggle favorite")
		return
	}

	metrics.RecordFavorite(favorited)
	jsonResponse(w, http.StatusOK, favoriteResponse{IsFavorited: favorited})
}

// ExpressInterest handles POST /api/items/{id}/interest. The body is optional.
func (h *EngagementHandler) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req interestRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	interest, err := store.ExpressInterest(r.Context(), h.DB, r.PathValue("id"), claims.UserID, req.Message)
	switch {
	case errors.Is(err, model.ErrConflict):
		metrics.RecordInterest("duplicate")
		jsonError(w, http.StatusConflict, "already expressed interest in this item")
		return
	case errors.Is(err, model.ErrUnavailable):
		metrics.RecordInterest("unavailable")
		writeError(w, r, err, "express interest")
		return
	case err != nil:
		metrics.RecordInterest("error")
		writeError(w, r, err, "express interest")
		return
	}

	metrics.RecordInterest("created")
	slog.Info("interest expressed", "user", claims.Username, "item", interest.ItemID)
	jsonResponse(w, http.StatusCreated, interest)
}

// WithdrawInterest handles DELETE /api/items/{id}/interest.
func (h *EngagementHandler) WithdrawInterest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.WithdrawInterest(r.Context(), h.DB, r.PathValue("id"), claims.UserID); err != nil {
		writeError(w, r, err, "withdraw interest")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "interest withdrawn"})
}

// ListInterests handles GET /api/items/{id}/interest.
func (h *EngagementHandler) ListInterests(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	interests, err := store.ListInterests(r.Context(), h.DB, r.PathValue("id"), claims.UserID)
	if err != nil {
		writeError(w, r, err, "list interests")
		return
	}
	jsonResponse(w, http.StatusOK, interests)
}
