package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illegalcall/esgtracker/internal/models"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		tier models.Tier
		used int
		want bool
	}{
		{models.TierFree, 0, true},
		{models.TierFree, 1, false},
		{models.TierStarter, 2, true},
		{models.TierStarter, 3, false},
		{models.TierPro, 0, true},
		{models.TierPro, 10000, true},
		{models.TierCancelled, 0, true},
		{models.TierCancelled, 1, false},
		{models.Tier(""), 0, true},
		{models.Tier("enterprise"), 1, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.tier, tt.used))
		})
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 1, Remaining(models.TierFree, 0))
	assert.Equal(t, 0, Remaining(models.TierFree, 5))
	assert.Equal(t, 2, Remaining(models.TierStarter, 1))
	assert.Equal(t, -1, Remaining(models.TierPro, 50))
}

func TestUsageFor(t *testing.T) {
	u := UsageFor(&models.Profile{SubscriptionStatus: models.TierStarter, ReportsUsedThisMonth: 1})
	assert.Equal(t, Usage{Used: 1, Limit: 3, Remaining: 2}, u)

	u = UsageFor(&models.Profile{SubscriptionStatus: models.TierPro, ReportsUsedThisMonth: 7})
	assert.True(t, u.Unlimited)
	assert.Equal(t, -1, u.Remaining)
}
