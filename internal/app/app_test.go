package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardbot/internal/game"
	"cardbot/internal/storage/stubs"
)

func TestSweepOnceExpiresListingsAndProposals(t *testing.T) {
	store := stubs.NewMockStore()
	logger := zap.NewNop()
	current := time.Unix(1_000_000, 0)
	clock := func() time.Time { return current }

	ledger := game.NewLedger(store, game.NewKeyedMutex(), logger)
	market := game.NewMarket(store, ledger, clock, logger)
	duels := game.NewDuels(ledger, game.DefaultDeck(), game.NewLockedRand(1), clock, logger)
	trades := game.NewTrades(ledger, clock, logger)
	a := &App{market: market, duels: duels, trades: trades, logger: logger}

	ctx := context.Background()
	const item = "🟠 Legendary: Mango Mark"
	require.NoError(t, ledger.AddItem(ctx, 1, item, 2))
	_, err := market.ListForSale(ctx, 1, item, 50)
	require.NoError(t, err)
	_, err = duels.Propose(1, 2)
	require.NoError(t, err)
	_, err = trades.Propose(ctx, 1, 3, item, 1, item, 1)
	require.NoError(t, err)

	current = current.Add(game.ListingTTL + time.Minute)
	a.sweepOnce(ctx)

	listings, err := market.Listings(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings, "the expired listing went back to its seller")

	_, err = duels.Decline(2)
	assert.ErrorIs(t, err, game.ErrChallengeNotFound)
	_, err = trades.Decline(3)
	assert.ErrorIs(t, err, game.ErrTradeNotFound)
}
