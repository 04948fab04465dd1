package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/model"
)

// ImageUpload is a processed image to be hosted by the service.
type ImageUpload struct {
	Data []byte
	MIME string
}

type imageURLsInput struct {
	URLs []string `json:"urls" validate:"dive,url"`
}

// AddItemImages appends uploaded images and external image URLs to an item
// owned by requesterID and returns the item's full image list. A request
// without images is rejected while the item has none.
func AddItemImages(ctx context.Context, db *sqlx.DB, itemID, requesterID string, uploads []ImageUpload, urls []string) ([]model.ItemImage, error) {
	if err := model.Validate(&imageURLsInput{URLs: urls}); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ownerID, err := itemOwner(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if ownerID != requesterID {
		return nil, model.ErrForbidden
	}

	if len(uploads) == 0 && len(urls) == 0 {
		var existing int
		if err := tx.GetContext(ctx, &existing,
			`SELECT COUNT(*) FROM item_images WHERE item_id = ?`, itemID,
		); err != nil {
			return nil, fmt.Errorf("counting item images: %w", err)
		}
		if existing == 0 {
			return nil, model.NewValidationError("images", "at least one image is required")
		}
	}

	pos, err := nextImagePosition(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	for _, up := range uploads {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO item_images (item_id, position, url, data, mime) VALUES (?, ?, ?, ?, ?)`,
			itemID, pos, hostedImageURL(itemID, pos), up.Data, up.MIME,
		)
		if err != nil {
			return nil, fmt.Errorf("storing item image: %w", err)
		}
		pos++
	}

	if err := appendImageURLs(ctx, tx, itemID, urls); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE items SET updated_at = ? WHERE id = ?`, now(), itemID); err != nil {
		return nil, fmt.Errorf("touching item: %w", err)
	}

	images := []model.ItemImage{}
	if err := tx.SelectContext(ctx, &images,
		`SELECT position, url FROM item_images WHERE item_id = ? ORDER BY position`, itemID,
	); err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item images: %w", err)
	}
	return images, nil
}

// GetItemImage returns one image of an item. Data is nil for externally
// hosted images.
func GetItemImage(ctx context.Context, db *sqlx.DB, itemID string, position int) (*model.ItemImage, error) {
	var img model.ItemImage
	err := db.GetContext(ctx, &img,
		`SELECT position, url, data, COALESCE(mime, '') AS mime
		 FROM item_images WHERE item_id = ? AND position = ?`, itemID, position,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item image: %w", err)
	}
	return &img, nil
}

func hostedImageURL(itemID string, position int) string {
	return fmt.Sprintf("/api/items/%s/images/%d", itemID, position)
}

func nextImagePosition(ctx context.Context, tx *sqlx.Tx, itemID string) (int, error) {
	var pos int
	err := tx.GetContext(ctx, &pos,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM item_images WHERE item_id = ?`, itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("getting next image position: %w", err)
	}
	return pos, nil
}

func appendImageURLs(ctx context.Context, tx *sqlx.Tx, itemID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	pos, err := nextImagePosition(ctx, tx, itemID)
	if err != nil {
		return err
	}
	for _, u := range urls {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO item_images (item_id, position, url) VALUES (?, ?, ?)`, itemID, pos, u,
		)
		if err != nil {
			return fmt.Errorf("adding item image: %w", err)
		}
		pos++
	}
	return nil
}
