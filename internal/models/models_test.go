package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardItemEmbedsTier(t *testing.T) {
	testCases := []struct {
		name     string
		card     Card
		expected string
	}{
		{
			name:     "common card",
			card:     Card{Name: "Plain Mango", Tier: TierCommon},
			expected: "🟢 Common: Plain Mango",
		},
		{
			name:     "legendary card",
			card:     Card{Name: "Mango Mark", Tier: TierLegendary},
			expected: "🟠 Legendary: Mango Mark",
		},
		{
			name:     "exclusive card",
			card:     Card{Name: "Poker Master", Tier: TierExclusive},
			expected: "⭐ Exclusive: Poker Master",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := tc.card.Item()
			assert.Equal(t, tc.expected, item)
			assert.Equal(t, tc.card.Tier, TierOf(item),
				"tier must be derivable from the item identifier")
		})
	}
}

func TestTierOfUnknownPrefix(t *testing.T) {
	assert.Equal(t, TierUnknown, TierOf("plain text"))
	assert.Equal(t, TierUnknown, TierOf(""))
}

func TestTierScores(t *testing.T) {
	testCases := []struct {
		tier  Tier
		score int
	}{
		{TierCommon, 1},
		{TierUncommon, 2},
		{TierEpic, 3},
		{TierLegendary, 4},
		{TierMythic, 5},
		{TierSecret, 10},
		{TierExclusive, 6},
	}

	for _, tc := range testCases {
		t.Run(tc.tier.String(), func(t *testing.T) {
			assert.Equal(t, tc.score, tc.tier.Score())
		})
	}
}

func TestExclusivePriceBandIsClosed(t *testing.T) {
	min, max := TierExclusive.PriceBand()
	assert.Zero(t, min)
	assert.Zero(t, max)
}

func TestShopEntryLuckyBundle(t *testing.T) {
	assert.False(t, ShopEntry{Item: "🟢 Common: Plain Mango", Price: 15}.IsLuckyBundle())
	assert.True(t, ShopEntry{Item: "🎟 Lucky Bundle", Price: 240, Uses: 2}.IsLuckyBundle())
}
