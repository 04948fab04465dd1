package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/model"
)

var userSeq atomic.Int64

// tHelper is satisfied by both *testing.T and *rapid.T.
type tHelper interface {
	require.TestingT
	Helper()
}

// newUser creates a user with a unique username and the given balance.
func newUser(t tHelper, database *sqlx.DB, points int) *model.User {
	t.Helper()
	n := userSeq.Add(1)
	u, err := CreateUser(context.Background(), database, NewUser{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User %d", n),
		Points:       points,
	})
	require.NoError(t, err)
	return u
}

func itemInput() model.ItemInput {
	return model.ItemInput{
		Title:        "Vintage Denim Jacket",
		Description:  "Classic 90s denim jacket.",
		Category:     model.CategoryJackets,
		Size:         "M",
		Condition:    model.ConditionGood,
		Color:        "blue",
		Location:     "Ljubljana",
		Tags:         []string{"denim", "vintage"},
		ExchangeType: model.ExchangeTypeGiveaway,
		Images:       []string{"https://img.example.com/jacket.jpg"},
	}
}

// newItem creates a listed item owned by ownerID.
func newItem(t tHelper, database *sqlx.DB, ownerID string, mut ...func(*model.ItemInput)) *model.Item {
	t.Helper()
	in := itemInput()
	for _, m := range mut {
		m(&in)
	}
	item, err := CreateItem(context.Background(), database, ownerID, in)
	require.NoError(t, err)
	return item
}

func withPoints(p int) func(*model.ItemInput) {
	return func(in *model.ItemInput) { in.Points = p }
}

func userPoints(t tHelper, database *sqlx.DB, id string) int {
	t.Helper()
	u, err := GetUser(context.Background(), database, id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.Points
}

// newFileDB opens a schema-initialized database file with a full connection
// pool, so concurrent callers really contend for it.
func newFileDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "garderoba.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.EnsureSchema(database))
	return database
}
