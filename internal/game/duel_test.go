package game

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardbot/internal/models"
)

func newTestDuels(seed int64) (*Duels, *Ledger, *time.Time) {
	ledger := newTestLedger()
	current := time.Unix(1_000_000, 0)
	now := func() time.Time { return current }
	duels := NewDuels(ledger, DefaultDeck(), rand.New(rand.NewSource(seed)), now, zap.NewNop())
	return duels, ledger, &current
}

func TestDuelProposeValidation(t *testing.T) {
	duels, _, _ := newTestDuels(1)

	var inv *InvalidArgumentError
	_, err := duels.Propose(1, 1)
	assert.ErrorAs(t, err, &inv, "self-duels are rejected")

	_, err = duels.Propose(1, 2)
	require.NoError(t, err)
	_, err = duels.Propose(1, 2)
	assert.ErrorIs(t, err, ErrProposalExists)

	// A different pair is fine.
	_, err = duels.Propose(1, 3)
	assert.NoError(t, err)
}

func TestDuelDecline(t *testing.T) {
	duels, _, _ := newTestDuels(1)

	_, err := duels.Decline(2)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = duels.Propose(1, 2)
	require.NoError(t, err)

	ch, err := duels.Decline(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ch.ChallengerID)

	// Declining spends the challenge.
	_, err = duels.Accept(context.Background(), 2)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestDuelAcceptResolvesByScore(t *testing.T) {
	duels, ledger, _ := newTestDuels(1)
	ctx := context.Background()

	// Challenger holds a Mythic (5 points), target a Common (1 point).
	require.NoError(t, ledger.AddItem(ctx, 1, "🔴 Mythic: Omni-Mango", 1))
	require.NoError(t, ledger.AddItem(ctx, 2, "🟢 Common: Plain Mango", 1))

	_, err := duels.Propose(1, 2)
	require.NoError(t, err)

	result, err := duels.Accept(ctx, 2)
	require.NoError(t, err)
	assert.False(t, result.Draw)
	assert.Equal(t, int64(1), result.WinnerID)
	assert.Equal(t, int64(2), result.LoserID)
	assert.Equal(t, 5, result.ChallengerScore)
	assert.Equal(t, 1, result.TargetScore)
	assert.Equal(t, "🟢 Common: Plain Mango", result.Forfeit)

	// Reward is one of the Exclusive cards or the rarest card in the table.
	assert.Contains(t, []string{
		PokerMasterCard.Item(),
		SixtySevenCard.Item(),
		DefaultDeck().Rarest().Item(),
	}, result.Reward)

	winnerInv, err := ledger.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, winnerInv[result.Reward])

	loserInv, err := ledger.Inventory(ctx, 2)
	require.NoError(t, err)
	assert.NotContains(t, loserInv, "🟢 Common: Plain Mango")

	// The challenge is spent.
	_, err = duels.Accept(ctx, 2)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestDuelTieIsANoOp(t *testing.T) {
	duels, ledger, _ := newTestDuels(1)
	ctx := context.Background()

	// Identical single-card inventories guarantee equal scores.
	require.NoError(t, ledger.AddItem(ctx, 1, "🟢 Common: Plain Mango", 1))
	require.NoError(t, ledger.AddItem(ctx, 2, "🟢 Common: Lil Denny", 1))

	_, err := duels.Propose(1, 2)
	require.NoError(t, err)

	result, err := duels.Accept(ctx, 2)
	require.NoError(t, err)
	assert.True(t, result.Draw)
	assert.Empty(t, result.Reward)
	assert.Empty(t, result.Forfeit)

	// Nobody gained or lost anything.
	inv1, err := ledger.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"🟢 Common: Plain Mango": 1}, inv1)
	inv2, err := ledger.Inventory(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"🟢 Common: Lil Denny": 1}, inv2)
}

func TestDuelLoserWithoutForfeitableCards(t *testing.T) {
	duels, ledger, _ := newTestDuels(1)
	ctx := context.Background()

	// The loser holds only an Exclusive card, which is never forfeited.
	require.NoError(t, ledger.AddItem(ctx, 1, "🔴 Mythic: Omni-Mango", 1))
	require.NoError(t, ledger.AddItem(ctx, 2, PokerMasterCard.Item(), 1))

	_, err := duels.Propose(1, 2)
	require.NoError(t, err)

	result, err := duels.Accept(ctx, 2)
	require.NoError(t, err)
	require.False(t, result.Draw)
	assert.Empty(t, result.Forfeit)

	inv, err := ledger.Inventory(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, inv[PokerMasterCard.Item()], "Exclusive cards never leave by forfeit")
}

func TestDuelChallengeExpires(t *testing.T) {
	duels, _, clock := newTestDuels(1)

	_, err := duels.Propose(1, 2)
	require.NoError(t, err)

	*clock = clock.Add(ProposalTTL + time.Second)
	_, err = duels.Accept(context.Background(), 2)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestHighestForfeitable(t *testing.T) {
	testCases := []struct {
		name     string
		inv      map[string]int
		expected string
	}{
		{
			name:     "empty inventory",
			inv:      map[string]int{},
			expected: "",
		},
		{
			name: "highest tier wins",
			inv: map[string]int{
				"🟢 Common: Plain Mango":   2,
				"🟠 Legendary: Mango Mark": 1,
				"🔵 Uncommon: Mustard":     1,
			},
			expected: "🟠 Legendary: Mango Mark",
		},
		{
			name: "exclusive cards are skipped",
			inv: map[string]int{
				"⭐ Exclusive: Poker Master": 1,
				"🟢 Common: Plain Mango":    1,
			},
			expected: "🟢 Common: Plain Mango",
		},
		{
			name: "ties break lexicographically",
			inv: map[string]int{
				"🟢 Common: Plain Mango": 1,
				"🟢 Common: Lil Denny":   1,
			},
			expected: "🟢 Common: Lil Denny",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, highestForfeitable(tc.inv))
			if tc.expected != "" {
				assert.NotEqual(t, models.TierExclusive, models.TierOf(tc.expected))
			}
		})
	}
}
