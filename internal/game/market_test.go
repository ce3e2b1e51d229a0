package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardbot/internal/storage"
	"cardbot/internal/storage/stubs"
)

const testItem = "🟠 Legendary: Mango Mark"

func newTestMarket(t *testing.T) (*Market, *Ledger, *time.Time) {
	t.Helper()
	store := stubs.NewMockStore()
	ledger := NewLedger(store, NewKeyedMutex(), zap.NewNop())
	current := time.Unix(1_000_000, 0)
	market := NewMarket(store, ledger, func() time.Time { return current }, zap.NewNop())
	return market, ledger, &current
}

func TestListAndPurchase(t *testing.T) {
	market, ledger, _ := newTestMarket(t)
	ctx := context.Background()
	const seller, buyer = int64(1), int64(2)

	require.NoError(t, ledger.AddItem(ctx, seller, testItem, 1))
	_, err := ledger.Credit(ctx, buyer, 100)
	require.NoError(t, err)

	listing, err := market.ListForSale(ctx, seller, testItem, 80)
	require.NoError(t, err)
	assert.NotEmpty(t, listing.ID)

	// The unit left the seller's inventory the moment it was listed.
	inv, err := ledger.Inventory(ctx, seller)
	require.NoError(t, err)
	assert.NotContains(t, inv, testItem)

	bought, err := market.Purchase(ctx, buyer, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, bought.ID)

	// Coins moved buyer -> seller, the unit moved to the buyer.
	sellerBalance, err := ledger.Balance(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 80, sellerBalance)
	buyerBalance, err := ledger.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, 20, buyerBalance)
	inv, err = ledger.Inventory(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, 1, inv[testItem])

	// The listing is gone; buying it again fails by identity.
	_, err = market.Purchase(ctx, buyer, listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestPurchaseOwnListingRejected(t *testing.T) {
	market, ledger, _ := newTestMarket(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddItem(ctx, 1, testItem, 1))
	listing, err := market.ListForSale(ctx, 1, testItem, 50)
	require.NoError(t, err)

	var inv *InvalidArgumentError
	_, err = market.Purchase(ctx, 1, listing.ID)
	assert.ErrorAs(t, err, &inv)
}

func TestPurchaseInsufficientFundsKeepsListing(t *testing.T) {
	market, ledger, _ := newTestMarket(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddItem(ctx, 1, testItem, 1))
	listing, err := market.ListForSale(ctx, 1, testItem, 500)
	require.NoError(t, err)

	_, err = market.Purchase(ctx, 2, listing.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	listings, err := market.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 1, "failed purchase leaves the listing on the market")
}

func TestListWithoutItem(t *testing.T) {
	market, _, _ := newTestMarket(t)
	_, err := market.ListForSale(context.Background(), 1, testItem, 50)
	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestSellSlotLimit(t *testing.T) {
	market, ledger, _ := newTestMarket(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddItem(ctx, 1, testItem, DefaultSellSlots+1))
	for i := 0; i < DefaultSellSlots; i++ {
		_, err := market.ListForSale(ctx, 1, testItem, 50)
		require.NoError(t, err)
	}

	_, err := market.ListForSale(ctx, 1, testItem, 50)
	assert.ErrorIs(t, err, ErrSlotLimitReached)

	// An extra slot lifts the limit.
	_, err = ledger.AddSellSlot(ctx, 1)
	require.NoError(t, err)
	_, err = market.ListForSale(ctx, 1, testItem, 50)
	assert.NoError(t, err)
}

func TestUnlistReturnsItem(t *testing.T) {
	market, ledger, _ := newTestMarket(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddItem(ctx, 1, testItem, 1))
	listing, err := market.ListForSale(ctx, 1, testItem, 50)
	require.NoError(t, err)

	// Only the seller may unlist.
	_, err = market.Unlist(ctx, 2, listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)

	returned, err := market.Unlist(ctx, 1, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, testItem, returned.Item)

	inv, err := ledger.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, inv[testItem])
}

// failingStore rejects writes to one key once armed, leaving every other
// operation intact.
type failingStore struct {
	storage.Store
	failKey string
	armed   bool
}

func (s *failingStore) Set(ctx context.Context, key string, value interface{}) error {
	if s.armed && key == s.failKey {
		return errors.New("write failed")
	}
	return s.Store.Set(ctx, key, value)
}

func TestPurchaseWriteFailureRefundsBuyer(t *testing.T) {
	store := &failingStore{Store: stubs.NewMockStore(), failKey: marketKey}
	ledger := NewLedger(store, NewKeyedMutex(), zap.NewNop())
	market := NewMarket(store, ledger, nil, zap.NewNop())
	ctx := context.Background()
	const seller, buyer = int64(1), int64(2)

	require.NoError(t, ledger.AddItem(ctx, seller, testItem, 1))
	_, err := ledger.Credit(ctx, buyer, 100)
	require.NoError(t, err)
	listing, err := market.ListForSale(ctx, seller, testItem, 80)
	require.NoError(t, err)

	store.armed = true
	_, err = market.Purchase(ctx, buyer, listing.ID)
	require.Error(t, err)

	// Every settled leg was unwound.
	buyerBalance, err := ledger.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, 100, buyerBalance)
	sellerBalance, err := ledger.Balance(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 0, sellerBalance)
	inv, err := ledger.Inventory(ctx, buyer)
	require.NoError(t, err)
	assert.NotContains(t, inv, testItem)

	// The listing survives and sells once the store recovers.
	store.armed = false
	_, err = market.Purchase(ctx, buyer, listing.ID)
	assert.NoError(t, err)
}

func TestSweepExpiredReturnsToSeller(t *testing.T) {
	market, ledger, clock := newTestMarket(t)
	ctx := context.Background()

	require.NoError(t, ledger.AddItem(ctx, 1, testItem, 2))
	_, err := market.ListForSale(ctx, 1, testItem, 50)
	require.NoError(t, err)

	// Second listing created just inside the TTL window of the first.
	*clock = clock.Add(ListingTTL - time.Minute)
	second, err := market.ListForSale(ctx, 1, testItem, 60)
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	swept, err := market.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	listings, err := market.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, second.ID, listings[0].ID)

	// The expired unit came back without any balance change.
	inv, err := ledger.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, inv[testItem])
	balance, err := ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, balance, "the sweep is not a sale, no coins move")
}
