package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/model"
)

func TestCreateUserConflicts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, database, NewUser{
		Username: "mojca", Email: "mojca@example.com", PasswordHash: "x", Points: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, 50, u.Points)
	assert.True(t, u.IsActive)

	_, err = CreateUser(ctx, database, NewUser{Username: "mojca", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = CreateUser(ctx, database, NewUser{Username: "other", Email: "mojca@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, model.ErrConflict)

	// A deleted user's name is free again.
	require.NoError(t, DeleteUser(ctx, database, u.ID))
	_, err = CreateUser(ctx, database, NewUser{Username: "mojca", Email: "mojca@example.com", PasswordHash: "x"})
	assert.NoError(t, err)
}

func TestGetUserByLogin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, 0)

	byName, err := GetUserByLogin(ctx, database, u.Username)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := GetUserByLogin(ctx, database, u.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	missing, err := GetUserByLogin(ctx, database, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, DeleteUser(ctx, database, u.ID))
	gone, err := GetUserByLogin(ctx, database, u.Username)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateProfile(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, 0)
	other := newUser(t, database, 0)

	bio := "Swapping since 2019."
	loc := "Maribor"
	updated, err := UpdateProfile(ctx, database, u.ID, model.ProfileInput{Bio: &bio, Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, loc, updated.Location)
	assert.Equal(t, u.Username, updated.Username)
	assert.Equal(t, u.FirstName, updated.FirstName)

	_, err = UpdateProfile(ctx, database, u.ID, model.ProfileInput{Username: &other.Username})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = UpdateProfile(ctx, database, "missing", model.ProfileInput{Bio: &bio})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteUserDeactivatesItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, 0)
	item := newItem(t, database, u.ID)

	require.NoError(t, DeleteUser(ctx, database, u.ID))
	assert.ErrorIs(t, DeleteUser(ctx, database, u.ID), model.ErrNotFound)

	got, err := GetUser(ctx, database, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.DeletedAt)
	assert.False(t, got.IsActive)

	detail, err := PeekItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)

	page, err := ListItems(ctx, database, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	n, err := CountUsers(ctx, database)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleUserActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, 0)

	off, err := ToggleUserActive(ctx, database, u.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	on, err := ToggleUserActive(ctx, database, u.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	_, err = ToggleUserActive(ctx, database, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListAndSearchUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	for range 5 {
		newUser(t, database, 0)
	}
	_, err := CreateUser(ctx, database, NewUser{
		Username: "ana_k", Email: "ana@example.com", PasswordHash: "x", FirstName: "Ana", LastName: "Kovač",
	})
	require.NoError(t, err)

	page, err := ListUsers(ctx, database, 1, 4)
	require.NoError(t, err)
	assert.Len(t, page.Users, 4)
	assert.Equal(t, 6, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, "ana_k", page.Users[0].Username)

	found, err := SearchUsers(ctx, database, "kovač", 1, 10)
	require.NoError(t, err)
	require.Len(t, found.Users, 1)
	assert.Equal(t, "ana_k", found.Users[0].Username)

	// "_" is literal, not a wildcard.
	found, err = SearchUsers(ctx, database, "a_k", 1, 10)
	require.NoError(t, err)
	assert.Len(t, found.Users, 1)

	_, err = SearchUsers(ctx, database, "  ", 1, 10)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u := newUser(t, database, 0)

	require.NoError(t, UpdateUserPassword(ctx, database, u.ID, "new-hash"))
	got, err := GetUser(ctx, database, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, UpdateUserPassword(ctx, database, "missing", "h"), model.ErrNotFound)
}
