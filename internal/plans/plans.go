package plans

import (
	"errors"
	"fmt"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/models"
)

var (
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrPriceNotConfigured = errors.New("price not configured")
)

// Plan is one purchasable subscription plan.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	MonthlyPrice int      `json:"monthly_price"`
	AnnualPrice  int      `json:"annual_price"`

	monthlyPriceID string
	annualPriceID  string
}

// Tier is the subscription tier the plan grants.
func (p Plan) Tier() models.Tier {
	return models.Tier(p.ID)
}

// Catalog is the static list of plans with the provider price ids from config.
type Catalog struct {
	plans []Plan
}

func NewCatalog(cfg config.StripeConfig) *Catalog {
	return &Catalog{plans: []Plan{
		{
			ID:          string(models.TierStarter),
			Name:        "Starter",
			Description: "Perfect for solopreneurs just getting started with ESG",
			Features: []string{
				"3 ESG reports per month",
				"Basic compliance templates",
				"PDF export",
				"Email support",
			},
			MonthlyPrice:   19,
			AnnualPrice:    190,
			monthlyPriceID: cfg.StarterMonthlyPrice,
			annualPriceID:  cfg.StarterAnnualPrice,
		},
		{
			ID:          string(models.TierPro),
			Name:        "Pro",
			Description: "For growing businesses with advanced ESG needs",
			Features: []string{
				"Unlimited ESG reports",
				"CSRD/EU compliance templates",
				"Custom branding",
				"API access",
				"Priority support",
				"Audit trail",
			},
			MonthlyPrice:   49,
			AnnualPrice:    490,
			monthlyPriceID: cfg.ProMonthlyPrice,
			annualPriceID:  cfg.ProAnnualPrice,
		},
	}}
}

func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *Catalog) Lookup(id string) (Plan, bool) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PriceID returns the provider price for a plan and billing period.
func (c *Catalog) PriceID(id string, period models.BillingPeriod) (string, error) {
	p, ok := c.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	price := p.monthlyPriceID
	if period == models.BillingAnnual {
		price = p.annualPriceID
	}
	if price == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrPriceNotConfigured, id, period)
	}
	return price, nil
}
