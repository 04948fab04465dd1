package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, location, bio,
	role, points, is_active, created_at, updated_at, deleted_at`

// NewUser holds the fields of a user being created.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Location     string
	Role         string
	Points       int
}

// UserPage is one page of users.
type UserPage struct {
	Users      []model.User     `json:"users"`
	Pagination model.Pagination `json:"pagination"`
}

// CreateUser creates a new user. Usernames and emails must be unique among
// users that are not deleted.
func CreateUser(ctx context.Context, db *sqlx.DB, u NewUser) (*model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var taken int
	err = tx.GetContext(ctx, &taken,
		`SELECT COUNT(*) FROM users WHERE (username = ? OR email = ?) AND deleted_at IS NULL`,
		u.Username, u.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken > 0 {
		return nil, fmt.Errorf("username or email already registered: %w", model.ErrConflict)
	}

	id := uuid.NewString()
	ts := now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, location,
		                    role, points, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Location,
		u.Role, u.Points, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, including soft-deleted users.
func GetUser(ctx context.Context, db *sqlx.DB, id string) (*model.User, error) {
	var u model.User
	err := db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// GetUserByLogin returns the non-deleted user whose username or email
// matches login.
func GetUserByLogin(ctx context.Context, db *sqlx.DB, login string) (*model.User, error) {
	var u model.User
	err := db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users
		 WHERE (username = ? OR email = ?) AND deleted_at IS NULL`, login, login,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return &u, nil
}

// ListUsers returns a page of non-deleted users, newest first.
func ListUsers(ctx context.Context, db *sqlx.DB, page, limit int) (*UserPage, error) {
	return listUsers(ctx, db, "", page, limit)
}

// SearchUsers matches q against username, email and names.
func SearchUsers(ctx context.Context, db *sqlx.DB, q string, page, limit int) (*UserPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, model.NewValidationError("q", "search query is required")
	}
	return listUsers(ctx, db, q, page, limit)
}

func listUsers(ctx context.Context, db *sqlx.DB, search string, page, limit int) (*UserPage, error) {
	page, limit = normalizePage(page, limit)

	from := ` FROM users WHERE deleted_at IS NULL`
	var args []any
	if search != "" {
		p := likePattern(search)
		from += ` AND (username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'
			OR first_name LIKE ? ESCAPE '\' OR last_name LIKE ? ESCAPE '\')`
		args = append(args, p, p, p, p)
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*)`+from, args...); err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	users := []model.User{}
	err := db.SelectContext(ctx, &users,
		`SELECT `+userColumns+from+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return &UserPage{
		Users:      users,
		Pagination: model.NewPagination(page, limit, len(users), total),
	}, nil
}

// UpdateProfile applies a partial profile update.
func UpdateProfile(ctx context.Context, db *sqlx.DB, id string, in model.ProfileInput) (*model.User, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var u model.User
	err = tx.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if in.Username != nil && *in.Username != u.Username {
		var taken int
		err := tx.GetContext(ctx, &taken,
			`SELECT COUNT(*) FROM users WHERE username = ? AND id != ? AND deleted_at IS NULL`,
			*in.Username, id,
		)
		if err != nil {
			return nil, fmt.Errorf("checking username: %w", err)
		}
		if taken > 0 {
			return nil, fmt.Errorf("username already taken: %w", model.ErrConflict)
		}
		u.Username = *in.Username
	}
	setString(&u.FirstName, in.FirstName)
	setString(&u.LastName, in.LastName)
	setString(&u.Location, in.Location)
	setString(&u.Bio, in.Bio)

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET username = ?, first_name = ?, last_name = ?, location = ?, bio = ?, updated_at = ?
		 WHERE id = ?`,
		u.Username, u.FirstName, u.LastName, u.Location, u.Bio, now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing profile: %w", err)
	}

	return GetUser(ctx, db, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sqlx.DB, id, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteUser soft-deletes a user and takes their items off the listing.
func DeleteUser(ctx context.Context, db *sqlx.DB, id string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET is_active = 0, updated_at = ? WHERE owner_id = ?`, ts, id,
	)
	if err != nil {
		return fmt.Errorf("deactivating user items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user delete: %w", err)
	}
	return nil
}

// ToggleUserActive flips a user's active flag. Inactive users cannot log in.
func ToggleUserActive(ctx context.Context, db *sqlx.DB, id string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET is_active = 1 - is_active, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling user status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return GetUser(ctx, db, id)
}

// CountUsers returns the number of non-deleted users.
func CountUsers(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
