package repofake_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-auth-core/users"
	"github.com/jrsteele09/go-auth-core/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repofake.NewFakeUserStore()

	require.NoError(t, store.Upsert(ctx, &users.User{ID: "u1", Username: "bob", IsActive: true}))

	byName, err := store.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "u1", byName.ID)

	byID, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "bob", byID.Username)

	_, err = store.GetByUsername(ctx, "nobody")
	require.Error(t, err)
}

func TestFakeUserStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := repofake.NewFakeUserStore()

	original := &users.User{ID: "u1", Username: "bob", Roles: []string{"editor"}}
	require.NoError(t, store.Upsert(ctx, original))

	fetched, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	fetched.Roles[0] = "admin"

	again, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"editor"}, again.Roles)
}

func TestFakeUserStoreSetActive(t *testing.T) {
	ctx := context.Background()
	store := repofake.NewFakeUserStore()

	require.NoError(t, store.Upsert(ctx, &users.User{ID: "u1", Username: "bob", IsActive: true}))
	require.NoError(t, store.SetActive(ctx, "u1", false))

	user, err := store.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.False(t, user.IsActive)

	require.Error(t, store.SetActive(ctx, "missing", true))
}

func TestFakeUserStoreUsernameReindexOnUpsert(t *testing.T) {
	ctx := context.Background()
	store := repofake.NewFakeUserStore()

	require.NoError(t, store.Upsert(ctx, &users.User{ID: "u1", Username: "bob"}))
	require.NoError(t, store.Upsert(ctx, &users.User{ID: "u1", Username: "robert"}))

	_, err := store.GetByUsername(ctx, "bob")
	require.Error(t, err)

	user, err := store.GetByUsername(ctx, "robert")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
}

func TestFakeUserStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := repofake.NewFakeUserStore()

	require.NoError(t, store.Upsert(ctx, &users.User{ID: "u1", Username: "bob"}))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.GetByID(ctx, "u1")
	require.Error(t, err)
	require.Error(t, store.Delete(ctx, "u1"))
}
