package models

import (
	"strings"
	"time"
)

// Tier is a subscription level. It controls the monthly report quota.
type Tier string

const (
	TierFree      Tier = "free"
	TierStarter   Tier = "starter"
	TierPro       Tier = "pro"
	TierCancelled Tier = "cancelled"
)

// ParsePlanTier maps a plan identifier carried in payment metadata to a paid
// tier. Anything unrecognised resolves to starter.
func ParsePlanTier(plan string) Tier {
	if Tier(strings.ToLower(strings.TrimSpace(plan))) == TierPro {
		return TierPro
	}
	return TierStarter
}

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingAnnual  BillingPeriod = "annual"
)

// ParseBillingPeriod treats everything other than "annual" as monthly.
func ParseBillingPeriod(s string) BillingPeriod {
	if BillingPeriod(strings.ToLower(strings.TrimSpace(s))) == BillingAnnual {
		return BillingAnnual
	}
	return BillingMonthly
}

// Profile represents a user profile in the system
type Profile struct {
	ID                   string         `json:"id" db:"id"` // UUID that matches auth.users.id
	Email                string         `json:"email" db:"email"`
	FullName             *string        `json:"full_name" db:"full_name"`
	CompanyName          *string        `json:"company_name" db:"company_name"`
	StripeCustomerID     *string        `json:"-" db:"stripe_customer_id"`
	SubscriptionStatus   Tier           `json:"subscription_status" db:"subscription_status"`
	SubscriptionPeriod   *BillingPeriod `json:"subscription_period" db:"subscription_period"`
	SubscriptionEndDate  *time.Time     `json:"subscription_end_date" db:"subscription_end_date"`
	ReportsUsedThisMonth int            `json:"reports_used_this_month" db:"reports_used_this_month"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// CustomerID returns the billing customer id, or "" before the first checkout.
func (p *Profile) CustomerID() string {
	if p.StripeCustomerID == nil {
		return ""
	}
	return *p.StripeCustomerID
}
