// Package quota decides whether a user may generate another report this month.
package quota

import "github.com/illegalcall/esgtracker/internal/models"

// Limit describes the monthly report allowance of a tier.
type Limit struct {
	Reports   int
	Unlimited bool
}

var tierLimits = map[models.Tier]Limit{
	models.TierFree:    {Reports: 1},
	models.TierStarter: {Reports: 3},
	models.TierPro:     {Unlimited: true},
}

// ForTier returns the allowance of a tier. Unknown tiers, cancelled
// included, get the free allowance.
func ForTier(tier models.Tier) Limit {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[models.TierFree]
}

// Allowed reports whether one more report fits in the tier's monthly limit.
func Allowed(tier models.Tier, usedThisMonth int) bool {
	l := ForTier(tier)
	return l.Unlimited || usedThisMonth < l.Reports
}

// Remaining returns how many reports are left this month, or -1 when unlimited.
func Remaining(tier models.Tier, usedThisMonth int) int {
	l := ForTier(tier)
	if l.Unlimited {
		return -1
	}
	if usedThisMonth >= l.Reports {
		return 0
	}
	return l.Reports - usedThisMonth
}

// Usage is the quota summary shown on the profile endpoint.
type Usage struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
	Remaining int  `json:"remaining"`
}

func UsageFor(p *models.Profile) Usage {
	l := ForTier(p.SubscriptionStatus)
	return Usage{
		Used:      p.ReportsUsedThisMonth,
		Limit:     l.Reports,
		Unlimited: l.Unlimited,
		Remaining: Remaining(p.SubscriptionStatus, p.ReportsUsedThisMonth),
	}
}
