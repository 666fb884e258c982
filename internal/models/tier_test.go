package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor_Boundaries(t *testing.T) {
	cases := []struct {
		points int
		want   Tier
	}{
		{0, TierBronze},
		{499, TierBronze},
		{500, TierSilver},
		{1499, TierSilver},
		{1500, TierGold},
		{2999, TierGold},
		{3000, TierPlatinum},
		{4999, TierPlatinum},
		{5000, TierDiamond},
		{9999, TierDiamond},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.points), "points=%d", tc.points)
	}
}

func TestTiers_AscendingThresholds(t *testing.T) {
	for i := 1; i < len(Tiers); i++ {
		assert.Greater(t, Tiers[i].MinPoints, Tiers[i-1].MinPoints)
	}
	assert.Equal(t, 0, Tiers[0].MinPoints)
}
