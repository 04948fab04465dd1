package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// ExchangesHandler handles exchange endpoints.
type ExchangesHandler struct {
	DB *sqlx.DB
}

// Create handles POST /api/items/{id}/exchange.
func (h *ExchangesHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req model.ExchangeInput
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ex, err := store.CompleteExchange(r.Context(), h.DB, store.ExchangeRequest{
		ItemID:      r.PathValue("id"),
		ToUserID:    req.ToUserID,
		RequesterID: claims.UserID,
		Notes:       req.Notes,
	})
	if err != nil {
		metrics.RecordExchange(exchangeOutcome(err), 0)
		writeError(w, r, err, "complete exchange")
		return
	}

	metrics.RecordExchange("completed", ex.Points)
	slog.Info("exchange completed",
		"user", claims.Username,
		"item", ex.ItemID,
		"from", ex.FromUsername,
		"to", ex.ToUsername,
		"points", ex.Points,
	)
	jsonResponse(w, http.StatusCreated, ex)
}

// List handles GET /api/exchanges. Admins may filter by any user; everyone
// else sees their own exchanges.
func (h *ExchangesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	f := store.ExchangeFilter{ItemID: q.Get("item_id"), UserID: claims.UserID}
	if model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		f.UserID = q.Get("user_id")
	}

	exchanges, err := store.ListExchanges(r.Context(), h.DB, f)
	if err != nil {
		writeError(w, r, err, "list exchanges")
		return
	}
	jsonResponse(w, http.StatusOK, exchanges)
}

func exchangeOutcome(err error) string {
	var terr *model.TransitionError
	switch {
	case errors.Is(err, model.ErrInsufficientPoints):
		return "insufficient_points"
	case errors.As(err, &terr):
		return "invalid_status"
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}
