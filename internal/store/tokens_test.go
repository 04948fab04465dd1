package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garderoba/internal/db"
)

func TestRevokeToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, "jti-a", time.Now().Add(time.Hour)))
	// Revoking twice is harmless.
	require.NoError(t, RevokeToken(ctx, database, "jti-a", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "jti-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, "jti-b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeTokenPrunesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, RevokeToken(ctx, database, "stale", time.Now().Add(-time.Hour)))
	require.NoError(t, RevokeToken(ctx, database, "fresh", time.Now().Add(time.Hour)))

	var n int
	require.NoError(t, database.GetContext(ctx, &n, `SELECT COUNT(*) FROM revoked_tokens`))
	assert.Equal(t, 1, n)

	revoked, err := IsTokenRevoked(ctx, database, "fresh")
	require.NoError(t, err)
	assert.True(t, revoked)
}
