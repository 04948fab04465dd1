package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    bio           TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL REFERENCES users(id),
    title         TEXT NOT NULL,
    description   TEXT NOT NULL,
    category      TEXT NOT NULL,
    size          TEXT NOT NULL,
    condition     TEXT NOT NULL,
    brand         TEXT NOT NULL DEFAULT 'Unknown',
    color         TEXT NOT NULL,
    material      TEXT NOT NULL DEFAULT 'Unknown',
    location      TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'available'
                  CHECK (status IN ('available', 'reserved', 'exchanged', 'removed')),
    points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
    exchange_type TEXT NOT NULL CHECK (exchange_type IN ('giveaway', 'trade', 'sale')),
    views         INTEGER NOT NULL DEFAULT 0,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS item_tags (
    item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    tag     TEXT NOT NULL,
    PRIMARY KEY (item_id, tag)
);

CREATE TABLE IF NOT EXISTS item_images (
    item_id  TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    url      TEXT NOT NULL,
    data     BLOB,
    mime     TEXT,
    PRIMARY KEY (item_id, position)
);

CREATE TABLE IF NOT EXISTS favorites (
    item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS interests (
    item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL REFERENCES users(id),
    message    TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS exchanges (
    id           TEXT PRIMARY KEY,
    item_id      TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    from_user_id TEXT NOT NULL REFERENCES users(id),
    to_user_id   TEXT NOT NULL REFERENCES users(id),
    points       INTEGER NOT NULL CHECK (points >= 0),
    notes        TEXT NOT NULL DEFAULT '',
    exchanged_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// indexes are applied in order after table creation. Each must be idempotent.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_items_listing ON items(status, is_active, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_exchanges_item ON exchanges(item_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index %d: %w", i+1, err)
		}
	}

	return nil
}
