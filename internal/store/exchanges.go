package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/garderoba/internal/model"
)

// ExchangeRequest describes an item handed from its owner to another user.
type ExchangeRequest struct {
	ItemID      string
	ToUserID    string
	RequesterID string
	Notes       string
}

// ExchangeFilter narrows ListExchanges. Empty fields match everything.
type ExchangeFilter struct {
	ItemID string
	UserID string
}

const exchangeColumns = `e.id, e.item_id, e.from_user_id, e.to_user_id, e.points, e.notes, e.exchanged_at,
	i.title AS item_title, fu.username AS from_username, tu.username AS to_username`

const exchangeJoins = ` FROM exchanges e
	JOIN items i ON i.id = e.item_id
	JOIN users fu ON fu.id = e.from_user_id
	JOIN users tu ON tu.id = e.to_user_id`

// CompleteExchange hands an item to the redeeming user in a single
// transaction: the item's points move from the redeemer to the owner, an
// exchange is appended to the item's history and the item becomes exchanged.
// Either all of it is applied or none of it is. Only the redeeming user may
// complete an exchange that costs points; the owner may hand over free items.
func CompleteExchange(ctx context.Context, db *sqlx.DB, req ExchangeRequest) (ex *model.Exchange, err error) {
	ctx, span := tracer.Start(ctx, "store.complete_exchange",
		trace.WithAttributes(
			attribute.String("item.id", req.ItemID),
			attribute.String("to_user.id", req.ToUserID),
		),
	)
	defer func() { endSpan(span, err) }()

	if err := model.Validate(&model.ExchangeInput{ToUserID: req.ToUserID, Notes: req.Notes}); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var item struct {
		OwnerID  string       `db:"owner_id"`
		Status   model.Status `db:"status"`
		Points   int          `db:"points"`
		IsActive bool         `db:"is_active"`
	}
	err = tx.GetContext(ctx, &item,
		`SELECT owner_id, status, points, is_active FROM items WHERE id = ?`, req.ItemID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if !item.IsActive {
		return nil, model.ErrNotFound
	}

	if req.RequesterID != item.OwnerID && req.RequesterID != req.ToUserID {
		return nil, model.ErrForbidden
	}
	if req.ToUserID == item.OwnerID {
		return nil, model.NewValidationError("to_user_id", "an item cannot be exchanged with its owner")
	}
	// Points are only ever spent by their holder.
	if item.Points > 0 && req.RequesterID != req.ToUserID {
		return nil, fmt.Errorf("redeeming for another user: %w", model.ErrForbidden)
	}

	var recipients int
	err = tx.GetContext(ctx, &recipients,
		`SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL AND is_active = 1`, req.ToUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("checking recipient: %w", err)
	}
	if recipients == 0 {
		return nil, fmt.Errorf("recipient: %w", model.ErrNotFound)
	}

	if err := model.Transition(item.Status, model.StatusExchanged); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("points", item.Points))
	ts := now()

	if item.Points > 0 {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points - ?, updated_at = ? WHERE id = ? AND points >= ?`,
			item.Points, ts, req.ToUserID, item.Points,
		)
		if err != nil {
			return nil, fmt.Errorf("debiting points: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return nil, model.ErrInsufficientPoints
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE users SET points = points + ?, updated_at = ? WHERE id = ?`,
			item.Points, ts, item.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("crediting points: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("crediting points: owner %s missing", item.OwnerID)
		}
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO exchanges (id, item_id, from_user_id, to_user_id, points, notes, exchanged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.ItemID, item.OwnerID, req.ToUserID, item.Points, req.Notes, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("recording exchange: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		model.StatusExchanged, ts, req.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing exchange: %w", err)
	}

	return GetExchange(ctx, db, id)
}

// GetExchange returns an exchange by ID.
func GetExchange(ctx context.Context, db *sqlx.DB, id string) (*model.Exchange, error) {
	var ex model.Exchange
	err := db.GetContext(ctx, &ex, `SELECT `+exchangeColumns+exchangeJoins+` WHERE e.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting exchange: %w", err)
	}
	return &ex, nil
}

// ListExchanges returns exchanges, newest first, optionally filtered by item
// or by a user on either side.
func ListExchanges(ctx context.Context, db *sqlx.DB, f ExchangeFilter) ([]model.Exchange, error) {
	query := `SELECT ` + exchangeColumns + exchangeJoins + ` WHERE 1=1`
	var args []any

	if f.ItemID != "" {
		query += ` AND e.item_id = ?`
		args = append(args, f.ItemID)
	}
	if f.UserID != "" {
		query += ` AND (e.from_user_id = ? OR e.to_user_id = ?)`
		args = append(args, f.UserID, f.UserID)
	}

	query += ` ORDER BY e.exchanged_at DESC, e.rowid DESC`

	exchanges := []model.Exchange{}
	if err := db.SelectContext(ctx, &exchanges, query, args...); err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	return exchanges, nil
}
