package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/garderoba/internal/model"
)

// ToggleFavorite flips userID's favorite on an item and reports whether the
// item is now favorited. A single favorites row is both the item's and the
// user's side of the relation.
func ToggleFavorite(ctx context.Context, db *sqlx.DB, itemID, userID string) (favorited bool, err error) {
	ctx, span := tracer.Start(ctx, "store.toggle_favorite",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("user.id", userID),
		),
	)
	defer func() { endSpan(span, err) }()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := itemOwner(ctx, tx, itemID); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE item_id = ? AND user_id = ?`, itemID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("removing favorite: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO favorites (item_id, user_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (item_id, user_id) DO NOTHING`,
			itemID, userID, now(),
		)
		if err != nil {
			return false, fmt.Errorf("adding favorite: %w", err)
		}
		favorited = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing favorite: %w", err)
	}

	span.SetAttributes(attribute.Bool("favorited", favorited))
	return favorited, nil
}

// ExpressInterest records userID's interest in an item. A user may express
// interest in an item once; a repeat returns model.ErrConflict and leaves the
// first entry untouched.
func ExpressInterest(ctx context.Context, db *sqlx.DB, itemID, userID, message string) (interest *model.Interest, err error) {
	ctx, span := tracer.Start(ctx, "store.express_interest",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("user.id", userID),
		),
	)
	defer func() { endSpan(span, err) }()

	if err := model.Validate(&model.InterestInput{Message: message}); err != nil {
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
		IsActive bool         `db:"is_active"`
	}
	err = tx.GetContext(ctx, &item, `SELECT owner_id, status, is_active FROM items WHERE id = ?`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if !item.IsActive || item.Status == model.StatusRemoved {
		return nil, model.ErrNotFound
	}
	if item.OwnerID == userID {
		return nil, fmt.Errorf("interest in own item: %w", model.ErrForbidden)
	}
	if item.Status != model.StatusAvailable {
		return nil, fmt.Errorf("interest in %s item: %w", item.Status, model.ErrUnavailable)
	}

	ts := now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO interests (item_id, user_id, message, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (item_id, user_id) DO NOTHING`,
		itemID, userID, message, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("adding interest: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("interest already expressed: %w", model.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing interest: %w", err)
	}

	return &model.Interest{ItemID: itemID, UserID: userID, Message: message, CreatedAt: ts}, nil
}

// WithdrawInterest removes userID's interest in an item.
func WithdrawInterest(ctx context.Context, db *sqlx.DB, itemID, userID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM interests WHERE item_id = ? AND user_id = ?`, itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing interest: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListInterests returns the interest entries on an item owned by requesterID,
// oldest first.
func ListInterests(ctx context.Context, db *sqlx.DB, itemID, requesterID string) ([]model.Interest, error) {
	ownerID, err := itemOwner(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if ownerID != requesterID {
		return nil, model.ErrForbidden
	}
	return listInterests(ctx, db, itemID)
}

// listInterests skips entries of deleted users.
func listInterests(ctx context.Context, q sqlx.QueryerContext, itemID string) ([]model.Interest, error) {
	var rows []struct {
		model.Interest
		Username  string `db:"username"`
		FirstName string `db:"first_name"`
		LastName  string `db:"last_name"`
		Location  string `db:"location"`
	}
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT n.item_id, n.user_id, n.message, n.created_at,
		        u.username, u.first_name, u.last_name, u.location
		 FROM interests n JOIN users u ON u.id = n.user_id
		 WHERE n.item_id = ? AND u.deleted_at IS NULL
		 ORDER BY n.created_at, n.rowid`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing interests: %w", err)
	}

	interests := make([]model.Interest, 0, len(rows))
	for _, r := range rows {
		in := r.Interest
		in.User = &model.UserSummary{
			ID:        r.UserID,
			Username:  r.Username,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Location:  r.Location,
		}
		interests = append(interests, in)
	}
	return interests, nil
}
