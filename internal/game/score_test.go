package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbot/internal/models"
)

func TestBuildHandExpandsMultiset(t *testing.T) {
	inv := map[string]int{
		"🟢 Common: Plain Mango": 3,
		"🔴 Mythic: Omni-Mango":  1,
	}
	hand := BuildHand(inv)
	require.Len(t, hand, 4)
	// Sorted expansion is deterministic regardless of map iteration order.
	assert.Equal(t, hand, BuildHand(inv))
}

func TestSampleHandCapsAtMaxHandSize(t *testing.T) {
	inv := map[string]int{"🟢 Common: Plain Mango": MaxHandSize * 3}
	hand := BuildHand(inv)
	require.Len(t, hand, MaxHandSize*3)

	sampled := SampleHand(hand, rand.New(rand.NewSource(1)))
	assert.Len(t, sampled, MaxHandSize)

	small := []string{"🟢 Common: Plain Mango"}
	assert.Equal(t, small, SampleHand(small, rand.New(rand.NewSource(1))),
		"hands under the cap pass through unchanged")
}

func TestScoreSumsTierValues(t *testing.T) {
	testCases := []struct {
		name     string
		hand     []string
		expected int
	}{
		{
			name:     "empty hand",
			hand:     nil,
			expected: 0,
		},
		{
			name:     "single common",
			hand:     []string{"🟢 Common: Plain Mango"},
			expected: 1,
		},
		{
			name: "mixed tiers",
			hand: []string{
				"🟢 Common: Plain Mango",
				"🟠 Legendary: Mango Mark",
				"⚫ Secret: Kendrick Lamar",
				"⭐ Exclusive: Poker Master",
			},
			expected: 1 + 4 + 10 + 6,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			total, counts := Score(tc.hand)
			assert.Equal(t, tc.expected, total)

			sum := 0
			for _, n := range counts {
				sum += n
			}
			assert.Equal(t, len(tc.hand), sum)
		})
	}
}

func TestScoreCountsPerTier(t *testing.T) {
	_, counts := Score([]string{
		"🟢 Common: Plain Mango",
		"🟢 Common: Lil Denny",
		"🔴 Mythic: Omni-Mango",
	})
	assert.Equal(t, 2, counts[models.TierCommon])
	assert.Equal(t, 1, counts[models.TierMythic])
}
