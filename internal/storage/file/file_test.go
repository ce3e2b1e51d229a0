package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "data.json"))
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, store.Set(ctx, "coins_1", 150))

	var balance int
	ok, err := store.Get(ctx, "coins_1", &balance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 150, balance)

	ok, err = store.Get(ctx, "coins_2", &balance)
	require.NoError(t, err)
	assert.False(t, ok, "absent keys report presence=false without error")
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ctx := context.Background()

	store := New(path)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Set(ctx, "user_1", map[string]int{"🟢 Common: Plain Mango": 2}))
	require.NoError(t, store.Close())

	reopened := New(path)
	require.NoError(t, reopened.Initialize(ctx))

	inv := make(map[string]int)
	ok, err := reopened.Get(ctx, "user_1", &inv)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, inv["🟢 Common: Plain Mango"])
}

func TestInitializeMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"))
	assert.NoError(t, store.Initialize(context.Background()))
}

func TestDeleteAndHas(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "data.json"))
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, store.Set(ctx, "k", "v"))
	ok, err := store.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "k"))
	ok, err = store.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, "k"), "deleting an absent key is not an error")
}

func TestKeysPrefix(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "data.json"))
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, store.Set(ctx, "coins_1", 1))
	require.NoError(t, store.Set(ctx, "coins_2", 2))
	require.NoError(t, store.Set(ctx, "user_1", map[string]int{}))

	keys, err := store.Keys(ctx, "coins_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"coins_1", "coins_2"}, keys)
}
