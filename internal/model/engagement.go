package model

import "time"

// Interest is a user's request to exchange for an item.
type Interest struct {
	ItemID    string       `json:"item_id" db:"item_id"`
	UserID    string       `json:"user_id" db:"user_id"`
	Message   string       `json:"message" db:"message"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	User      *UserSummary `json:"user,omitempty" db:"-"`
}

// InterestInput is the body of an interest request.
type InterestInput struct {
	Message string `json:"message" validate:"max=500"`
}

// Exchange records a completed hand-over of an item between two users.
type Exchange struct {
	ID           string    `json:"id" db:"id"`
	ItemID       string    `json:"item_id" db:"item_id"`
	FromUserID   string    `json:"from_user_id" db:"from_user_id"`
	ToUserID     string    `json:"to_user_id" db:"to_user_id"`
	Points       int       `json:"points" db:"points"`
	Notes        string    `json:"notes" db:"notes"`
	ExchangedAt  time.Time `json:"exchanged_at" db:"exchanged_at"`
	ItemTitle    string    `json:"item_title" db:"item_title"`
	FromUsername string    `json:"from_username" db:"from_username"`
	ToUsername   string    `json:"to_username" db:"to_username"`
}

// ExchangeInput is the body of an exchange request.
type ExchangeInput struct {
	ToUserID string `json:"to_user_id" validate:"required,uuid"`
	Notes    string `json:"notes" validate:"max=500"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Count      int `json:"count"`
	TotalItems int `json:"total_items"`
}

// NewPagination computes page counts for a result set.
func NewPagination(page, limit, count, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Current: page, Total: pages, Count: count, TotalItems: total}
}
