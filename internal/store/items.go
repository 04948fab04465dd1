package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/garderoba/internal/model"
)

// itemColumns selects an item with its engagement counts. Favorites and
// interests from deleted users are not counted.
const itemColumns = `i.id, i.owner_id, i.title, i.description, i.category, i.size, i.condition,
	i.brand, i.color, i.material, i.location, i.status, i.points, i.exchange_type, i.views,
	i.is_active, i.created_at, i.updated_at,
	(SELECT COUNT(*) FROM favorites f JOIN users fu ON fu.id = f.user_id
	 WHERE f.item_id = i.id AND fu.deleted_at IS NULL) AS favorite_count,
	(SELECT COUNT(*) FROM interests n JOIN users nu ON nu.id = n.user_id
	 WHERE n.item_id = i.id AND nu.deleted_at IS NULL) AS interested_count`

// ListQuery selects a page of listed items.
type ListQuery struct {
	Page         int
	Limit        int
	Category     string
	Size         string
	Condition    string
	ExchangeType string
	Search       string
	Sort         string
	Order        string
}

// ItemPage is one page of items.
type ItemPage struct {
	Items      []model.Item     `json:"items"`
	Pagination model.Pagination `json:"pagination"`
}

var sortColumns = map[string]string{
	"created_at": "i.created_at",
	"updated_at": "i.updated_at",
	"points":     "i.points",
	"views":      "i.views",
	"title":      "i.title",
}

// CreateItem validates input and creates an available item owned by ownerID.
func CreateItem(ctx context.Context, db *sqlx.DB, ownerID string, in model.ItemInput) (item *model.Item, err error) {
	ctx, span := tracer.Start(ctx, "store.create_item",
		trace.WithAttributes(attribute.String("owner.id", ownerID)),
	)
	defer func() { endSpan(span, err) }()

	if err := model.ValidateItem(&in); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var found int
	err = tx.GetContext(ctx, &found,
		`SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("checking owner: %w", err)
	}
	if found == 0 {
		return nil, fmt.Errorf("owner: %w", model.ErrNotFound)
	}

	id := uuid.NewString()
	ts := now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, title, description, category, size, condition, brand,
		                    color, material, location, status, points, exchange_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, in.Title, in.Description, in.Category, in.Size, in.Condition, in.Brand,
		in.Color, in.Material, in.Location, model.StatusAvailable, in.Points, in.ExchangeType, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if err := replaceTags(ctx, tx, id, in.Tags); err != nil {
		return nil, err
	}
	if err := appendImageURLs(ctx, tx, id, in.Images); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return getItem(ctx, db, id)
}

// ListItems returns available, active items that have at least one image.
func ListItems(ctx context.Context, db *sqlx.DB, q ListQuery) (*ItemPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	sortCol := sortColumns["created_at"]
	if q.Sort != "" {
		col, ok := sortColumns[q.Sort]
		if !ok {
			return nil, model.NewValidationError("sort", "cannot sort by %q", q.Sort)
		}
		sortCol = col
	}

	dir := "DESC"
	switch strings.ToLower(q.Order) {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return nil, model.NewValidationError("order", "order must be asc or desc")
	}

	where := []string{
		"i.status = ?",
		"i.is_active = 1",
		"o.deleted_at IS NULL",
		"EXISTS (SELECT 1 FROM item_images im WHERE im.item_id = i.id)",
	}
	args := []any{model.StatusAvailable}

	for _, f := range []struct{ col, val string }{
		{"i.category", q.Category},
		{"i.size", q.Size},
		{"i.condition", q.Condition},
		{"i.exchange_type", q.ExchangeType},
	} {
		if f.val != "" {
			where = append(where, f.col+" = ?")
			args = append(args, f.val)
		}
	}

	if s := strings.TrimSpace(q.Search); s != "" {
		p := likePattern(s)
		where = append(where, `(i.title LIKE ? ESCAPE '\' OR i.description LIKE ? ESCAPE '\'
			OR i.brand LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = i.id AND t.tag LIKE ? ESCAPE '\'))`)
		args = append(args, p, p, p, p)
	}

	from := ` FROM items i JOIN users o ON o.id = i.owner_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*)`+from, args...); err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	query := `SELECT ` + itemColumns + from +
		fmt.Sprintf(` ORDER BY %s %s, i.rowid %s LIMIT ? OFFSET ?`, sortCol, dir, dir)

	items := []model.Item{}
	if err := db.SelectContext(ctx, &items, query, append(args, limit, (page-1)*limit)...); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	if err := hydrateItems(ctx, db, items); err != nil {
		return nil, err
	}

	return &ItemPage{
		Items:      items,
		Pagination: model.NewPagination(page, limit, len(items), total),
	}, nil
}

// GetItem increments a live item's view counter and returns its details.
// Removed and deactivated items are not found.
func GetItem(ctx context.Context, db *sqlx.DB, id string) (*model.ItemDetail, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET views = views + 1 WHERE id = ? AND is_active = 1 AND status <> 'removed'`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("counting item view: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}

	return PeekItem(ctx, db, id)
}

// PeekItem returns an item's details without counting a view.
func PeekItem(ctx context.Context, db *sqlx.DB, id string) (*model.ItemDetail, error) {
	item, err := getItem(ctx, db, id)
	if err != nil {
		return nil, err
	}

	detail := &model.ItemDetail{
		Item:            *item,
		Favorites:       []model.UserSummary{},
		InterestedUsers: []model.Interest{},
	}

	err = db.SelectContext(ctx, &detail.Favorites,
		`SELECT u.id, u.username, u.first_name, u.last_name, u.location
		 FROM favorites f JOIN users u ON u.id = f.user_id
		 WHERE f.item_id = ? AND u.deleted_at IS NULL
		 ORDER BY f.created_at, f.rowid`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item favorites: %w", err)
	}

	detail.InterestedUsers, err = listInterests(ctx, db, id)
	if err != nil {
		return nil, err
	}

	detail.ExchangeHistory, err = ListExchanges(ctx, db, ExchangeFilter{ItemID: id})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// UpdateItem applies a partial update to an item owned by requesterID.
func UpdateItem(ctx context.Context, db *sqlx.DB, id, requesterID string, patch model.ItemPatch) (item *model.Item, err error) {
	ctx, span := tracer.Start(ctx, "store.update_item",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer func() { endSpan(span, err) }()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != requesterID {
		return nil, model.ErrForbidden
	}

	in := model.InputFromItem(current)
	patch.Apply(&in)
	if err := model.ValidateItem(&in); err != nil {
		return nil, err
	}
	if patch.Images != nil && len(in.Images) == 0 {
		return nil, model.NewValidationError("images", "at least one image is required")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, category = ?, size = ?, condition = ?,
		                  brand = ?, color = ?, material = ?, location = ?, points = ?,
		                  exchange_type = ?, updated_at = ?
		 WHERE id = ?`,
		in.Title, in.Description, in.Category, in.Size, in.Condition,
		in.Brand, in.Color, in.Material, in.Location, in.Points,
		in.ExchangeType, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if patch.Tags != nil {
		if err := replaceTags(ctx, tx, id, in.Tags); err != nil {
			return nil, err
		}
	}
	if patch.Images != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_images WHERE item_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clearing item images: %w", err)
		}
		if err := appendImageURLs(ctx, tx, id, in.Images); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	return getItem(ctx, db, id)
}

// DeleteItem deletes an item owned by requesterID. Its images, tags,
// favorites, interests and exchange history are removed with it.
func DeleteItem(ctx context.Context, db *sqlx.DB, id, requesterID string) (err error) {
	ctx, span := tracer.Start(ctx, "store.delete_item",
		trace.WithAttributes(attribute.String("item.id", id)),
	)
	defer func() { endSpan(span, err) }()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ownerID, err := itemOwner(ctx, tx, id)
	if err != nil {
		return err
	}
	if ownerID != requesterID {
		return model.ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item delete: %w", err)
	}
	return nil
}

// SetItemStatus moves an item to a new status. Owners may reserve, release
// and remove their items; admins may remove any item. Items only become
// exchanged through CompleteExchange.
func SetItemStatus(ctx context.Context, db *sqlx.DB, id, requesterID string, isAdmin bool, to model.Status) (item *model.Item, err error) {
	ctx, span := tracer.Start(ctx, "store.set_item_status",
		trace.WithAttributes(
			attribute.String("item.id", id),
			attribute.String("status.to", string(to)),
		),
	)
	defer func() { endSpan(span, err) }()

	if !to.Valid() {
		return nil, model.NewValidationError("status", "invalid status %q", to)
	}
	if to == model.StatusExchanged {
		return nil, model.NewValidationError("status", "items are marked exchanged by completing an exchange")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	isOwner := current.OwnerID == requesterID
	if !isOwner && !(isAdmin && to == model.StatusRemoved) {
		return nil, model.ErrForbidden
	}

	if err := model.Transition(current.Status, to); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`, to, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item status: %w", err)
	}

	return getItem(ctx, db, id)
}

// SetItemActive sets an item's moderation flag.
func SetItemActive(ctx context.Context, db *sqlx.DB, id string, active bool) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET is_active = ?, updated_at = ? WHERE id = ?`, active, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item active flag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return getItem(ctx, db, id)
}

// User item listing kinds.
const (
	UserItemsPosted    = "posted"
	UserItemsFavorites = "favorites"
)

// liveItem restricts a query on items i to items that were neither removed
// nor deactivated by an admin.
const liveItem = ` AND i.is_active = 1 AND i.status <> 'removed'`

// ListUserItems returns the live items a user posted or favorited, newest first.
func ListUserItems(ctx context.Context, db *sqlx.DB, userID, kind string, page, limit int) (*ItemPage, error) {
	page, limit = normalizePage(page, limit)

	var from string
	switch kind {
	case "", UserItemsPosted:
		from = ` FROM items i WHERE i.owner_id = ?` + liveItem
	case UserItemsFavorites:
		from = ` FROM items i JOIN favorites uf ON uf.item_id = i.id WHERE uf.user_id = ?` + liveItem
	default:
		return nil, model.NewValidationError("type", "type must be posted or favorites")
	}

	var found int
	err := db.GetContext(ctx, &found,
		`SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("checking user: %w", err)
	}
	if found == 0 {
		return nil, model.ErrNotFound
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*)`+from, userID); err != nil {
		return nil, fmt.Errorf("counting user items: %w", err)
	}

	items := []model.Item{}
	err = db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+from+` ORDER BY i.created_at DESC, i.rowid DESC LIMIT ? OFFSET ?`,
		userID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user items: %w", err)
	}

	if err := hydrateItems(ctx, db, items); err != nil {
		return nil, err
	}

	return &ItemPage{
		Items:      items,
		Pagination: model.NewPagination(page, limit, len(items), total),
	}, nil
}

// getItem loads a single item with tags, images and owner.
func getItem(ctx context.Context, q sqlx.ExtContext, id string) (*model.Item, error) {
	var item model.Item
	err := sqlx.GetContext(ctx, q, &item, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	items := []model.Item{item}
	if err := hydrateItems(ctx, q, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func itemOwner(ctx context.Context, q sqlx.QueryerContext, id string) (string, error) {
	var ownerID string
	err := sqlx.GetContext(ctx, q, &ownerID, `SELECT owner_id FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting item owner: %w", err)
	}
	return ownerID, nil
}

// hydrateItems fills tags, images and owners for a batch of items.
func hydrateItems(ctx context.Context, q sqlx.ExtContext, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	ownerIDs := make([]string, 0, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
		ownerIDs = append(ownerIDs, items[i].OwnerID)
		index[items[i].ID] = i
		items[i].Tags = []string{}
		items[i].Images = []model.ItemImage{}
	}

	var tags []struct {
		ItemID string `db:"item_id"`
		Tag    string `db:"tag"`
	}
	if err := selectIn(ctx, q, &tags,
		`SELECT item_id, tag FROM item_tags WHERE item_id IN (?) ORDER BY item_id, rowid`, ids,
	); err != nil {
		return fmt.Errorf("loading item tags: %w", err)
	}
	for _, t := range tags {
		it := &items[index[t.ItemID]]
		it.Tags = append(it.Tags, t.Tag)
	}

	var images []struct {
		ItemID string `db:"item_id"`
		model.ItemImage
	}
	if err := selectIn(ctx, q, &images,
		`SELECT item_id, position, url FROM item_images WHERE item_id IN (?) ORDER BY item_id, position`, ids,
	); err != nil {
		return fmt.Errorf("loading item images: %w", err)
	}
	for _, img := range images {
		it := &items[index[img.ItemID]]
		it.Images = append(it.Images, img.ItemImage)
	}

	var owners []model.UserSummary
	if err := selectIn(ctx, q, &owners,
		`SELECT id, username, first_name, last_name, location FROM users WHERE id IN (?)`, ownerIDs,
	); err != nil {
		return fmt.Errorf("loading item owners: %w", err)
	}
	byID := make(map[string]model.UserSummary, len(owners))
	for _, o := range owners {
		byID[o.ID] = o
	}
	for i := range items {
		if o, ok := byID[items[i].OwnerID]; ok {
			items[i].Owner = &o
		}
	}

	return nil
}

// selectIn expands a single IN (?) placeholder and runs the query.
func selectIn(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func replaceTags(ctx context.Context, tx *sqlx.Tx, itemID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing item tags: %w", err)
	}
	for _, tag := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO item_tags (item_id, tag) VALUES (?, ?) ON CONFLICT DO NOTHING`, itemID, tag,
		)
		if err != nil {
			return fmt.Errorf("adding item tag: %w", err)
		}
	}
	return nil
}
