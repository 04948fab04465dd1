package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/garderoba/internal/db"
)

const seedFixture = `
users:
  - username: nina
    email: nina@example.com
    password: nina-secret
    first_name: Nina
    last_name: Novak
    location: Ljubljana
    points: 120
  - username: luka
    email: luka@example.com
    password: luka-secret
    first_name: Luka
    last_name: Zupan
items:
  - owner: nina
    title: Wool winter coat
    description: Warm grey coat, worn two seasons.
    category: coats
    size: "38"
    condition: good
    color: grey
    location: Ljubljana
    tags: [wool, winter]
    points: 40
    exchange_type: sale
    images:
      - https://img.example.com/coat.jpg
`

func TestLoadSeed(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(seedFixture))
	require.NoError(t, err)

	users, items, err := LoadSeed(ctx, database, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 1, items)

	nina, err := GetUserByLogin(ctx, database, "nina")
	require.NoError(t, err)
	require.NotNil(t, nina)
	assert.Equal(t, 120, nina.Points)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(nina.PasswordHash), []byte("nina-secret")))

	page, err := ListItems(ctx, database, ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	coat := page.Items[0]
	assert.Equal(t, nina.ID, coat.OwnerID)
	assert.Equal(t, "Unknown", coat.Brand)
	assert.Equal(t, []string{"wool", "winter"}, coat.Tags)
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("users:\n  - username: a\n    karma: 3\n"))
	assert.Error(t, err)
}

func TestLoadSeedUnknownOwner(t *testing.T) {
	database := db.NewTestDB(t)

	seed, err := ParseSeed(strings.NewReader(`
items:
  - owner: ghost
    title: Scarf
`))
	require.NoError(t, err)

	_, _, err = LoadSeed(context.Background(), database, seed)
	assert.ErrorContains(t, err, "unknown owner")
}
