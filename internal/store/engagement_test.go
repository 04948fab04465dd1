package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/model"
)

func TestToggleFavorite(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	favorited, err := ToggleFavorite(ctx, database, item.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	favs, err := ListUserItems(ctx, database, fan.ID, UserItemsFavorites, 1, 10)
	require.NoError(t, err)
	require.Len(t, favs.Items, 1)
	assert.Equal(t, 1, favs.Items[0].FavoriteCount)

	favorited, err = ToggleFavorite(ctx, database, item.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, favorited)

	favs, err = ListUserItems(ctx, database, fan.ID, UserItemsFavorites, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, favs.Items)
}

func TestToggleFavoriteIsItsOwnInverse(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)
	users := []*model.User{newUser(t, database, 0), newUser(t, database, 0), newUser(t, database, 0)}

	rapid.Check(t, func(rt *rapid.T) {
		// Put the item in an arbitrary favorited state first.
		for _, u := range users {
			if rapid.Bool().Draw(rt, "prefavorite") {
				if _, err := ToggleFavorite(ctx, database, item.ID, u.ID); err != nil {
					rt.Fatalf("ToggleFavorite: %v", err)
				}
			}
		}

		u := rapid.SampledFrom(users).Draw(rt, "user")
		before, err := PeekItem(ctx, database, item.ID)
		if err != nil {
			rt.Fatalf("PeekItem: %v", err)
		}

		first, err := ToggleFavorite(ctx, database, item.ID, u.ID)
		if err != nil {
			rt.Fatalf("ToggleFavorite: %v", err)
		}
		second, err := ToggleFavorite(ctx, database, item.ID, u.ID)
		if err != nil {
			rt.Fatalf("ToggleFavorite: %v", err)
		}
		if first == second {
			rt.Fatalf("two toggles both returned %v", first)
		}

		after, err := PeekItem(ctx, database, item.ID)
		if err != nil {
			rt.Fatalf("PeekItem: %v", err)
		}
		if before.FavoriteCount != after.FavoriteCount {
			rt.Fatalf("favorite count %d -> %d", before.FavoriteCount, after.FavoriteCount)
		}
	})
}

func TestToggleFavoriteConcurrentUsers(t *testing.T) {
	database := newFileDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	users := make([]*model.User, 12)
	for i := range users {
		users[i] = newUser(t, database, 0)
	}

	// User i toggles i+1 times, so users with an even index end up favorited.
	var wg sync.WaitGroup
	errs := make(chan error, len(users)*len(users))
	for i, u := range users {
		for range i + 1 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ToggleFavorite(ctx, database, item.ID, u.ID)
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	want := 0
	for i, u := range users {
		favs, err := ListUserItems(ctx, database, u.ID, UserItemsFavorites, 1, 10)
		require.NoError(t, err)
		if i%2 == 0 {
			want++
			assert.Len(t, favs.Items, 1, "user %d", i)
		} else {
			assert.Empty(t, favs.Items, "user %d", i)
		}
	}

	detail, err := PeekItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, want, detail.FavoriteCount)
	assert.Len(t, detail.Favorites, want)
}

func TestToggleFavoriteNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	fan := newUser(t, database, 0)

	_, err := ToggleFavorite(context.Background(), database, "missing", fan.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExpressInterestTwiceConflicts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	c := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	interest, err := ExpressInterest(ctx, database, item.ID, c.ID, "Interested!")
	require.NoError(t, err)
	assert.Equal(t, "Interested!", interest.Message)

	_, err = ExpressInterest(ctx, database, item.ID, c.ID, "Still interested")
	assert.ErrorIs(t, err, model.ErrConflict)

	interests, err := ListInterests(ctx, database, item.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.Equal(t, c.ID, interests[0].UserID)
	assert.Equal(t, "Interested!", interests[0].Message)
}

func TestExpressInterestRepeatNeverGrowsList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	rapid.Check(t, func(rt *rapid.T) {
		u := newUser(rt, database, 0)
		first := rapid.StringN(0, 500, -1).Draw(rt, "first")
		second := rapid.StringN(0, 500, -1).Draw(rt, "second")

		if _, err := ExpressInterest(ctx, database, item.ID, u.ID, first); err != nil {
			rt.Fatalf("first ExpressInterest: %v", err)
		}
		before, err := ListInterests(ctx, database, item.ID, owner.ID)
		if err != nil {
			rt.Fatalf("ListInterests: %v", err)
		}

		if _, err := ExpressInterest(ctx, database, item.ID, u.ID, second); !errors.Is(err, model.ErrConflict) {
			rt.Fatalf("second ExpressInterest = %v, want ErrConflict", err)
		}
		after, err := ListInterests(ctx, database, item.ID, owner.ID)
		if err != nil {
			rt.Fatalf("ListInterests: %v", err)
		}
		if len(before) != len(after) {
			rt.Fatalf("interest count %d -> %d", len(before), len(after))
		}
	})
}

func TestExpressInterestRules(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	_, err := ExpressInterest(ctx, database, "missing", fan.ID, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = ExpressInterest(ctx, database, item.ID, owner.ID, "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = ExpressInterest(ctx, database, item.ID, fan.ID, strings.Repeat("a", 501))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Fields[0].Field)

	_, err = ExpressInterest(ctx, database, item.ID, fan.ID, "")
	assert.NoError(t, err)
}

func TestExpressInterestNeedsAvailableItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)

	reserved := newItem(t, database, owner.ID)
	_, err := SetItemStatus(ctx, database, reserved.ID, owner.ID, false, model.StatusReserved)
	require.NoError(t, err)
	_, err = ExpressInterest(ctx, database, reserved.ID, fan.ID, "")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	exchanged := newItem(t, database, owner.ID)
	_, err = CompleteExchange(ctx, database, ExchangeRequest{ItemID: exchanged.ID, ToUserID: fan.ID, RequesterID: owner.ID})
	require.NoError(t, err)
	_, err = ExpressInterest(ctx, database, exchanged.ID, fan.ID, "")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	removed := newItem(t, database, owner.ID)
	_, err = SetItemStatus(ctx, database, removed.ID, owner.ID, false, model.StatusRemoved)
	require.NoError(t, err)
	_, err = ExpressInterest(ctx, database, removed.ID, fan.ID, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	inactive := newItem(t, database, owner.ID)
	_, err = SetItemActive(ctx, database, inactive.ID, false)
	require.NoError(t, err)
	_, err = ExpressInterest(ctx, database, inactive.ID, fan.ID, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	for _, id := range []string{reserved.ID, exchanged.ID, removed.ID, inactive.ID} {
		interests, err := ListInterests(ctx, database, id, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, interests)
	}
}

func TestWithdrawInterest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	_, err := ExpressInterest(ctx, database, item.ID, fan.ID, "hi")
	require.NoError(t, err)

	require.NoError(t, WithdrawInterest(ctx, database, item.ID, fan.ID))
	assert.ErrorIs(t, WithdrawInterest(ctx, database, item.ID, fan.ID), model.ErrNotFound)

	// Withdrawing clears the way for a new entry.
	_, err = ExpressInterest(ctx, database, item.ID, fan.ID, "hi again")
	assert.NoError(t, err)
}

func TestListInterestsOwnerOnly(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	_, err := ListInterests(ctx, database, item.ID, fan.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestDeletedUsersHiddenFromEngagement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newUser(t, database, 0)
	fan := newUser(t, database, 0)
	item := newItem(t, database, owner.ID)

	_, err := ToggleFavorite(ctx, database, item.ID, fan.ID)
	require.NoError(t, err)
	_, err = ExpressInterest(ctx, database, item.ID, fan.ID, "")
	require.NoError(t, err)

	require.NoError(t, DeleteUser(ctx, database, fan.ID))

	detail, err := PeekItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.FavoriteCount)
	assert.Zero(t, detail.InterestedCount)
	assert.Empty(t, detail.Favorites)
	assert.Empty(t, detail.InterestedUsers)
}
