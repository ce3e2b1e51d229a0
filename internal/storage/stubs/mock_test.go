package stubs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStoreRoundTrip(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, store.Set(ctx, "coins_1", 100))

	var balance int
	ok, err := store.Get(ctx, "coins_1", &balance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100, balance)

	ok, err = store.Get(ctx, "missing", &balance)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMockStoreJSONSemantics(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	// Values round-trip through JSON like the real backends, so int64 map
	// keys or time.Time quirks surface in tests too.
	in := map[string]int{"🟢 Common: Plain Mango": 3}
	require.NoError(t, store.Set(ctx, "user_1", in))

	out := make(map[string]int)
	ok, err := store.Get(ctx, "user_1", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestMockStoreDeleteAndKeys(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a_1", 1))
	require.NoError(t, store.Set(ctx, "a_2", 2))
	require.NoError(t, store.Set(ctx, "b_1", 3))
	assert.Equal(t, 3, store.Len())

	keys, err := store.Keys(ctx, "a_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a_1", "a_2"}, keys)

	require.NoError(t, store.Delete(ctx, "a_1"))
	assert.Equal(t, 2, store.Len())

	ok, err := store.Has(ctx, "a_1")
	require.NoError(t, err)
	assert.False(t, ok)
}
