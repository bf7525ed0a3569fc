package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/plans"
	"github.com/illegalcall/esgtracker/internal/storage"
)

var (
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrProviderError   = errors.New("payment provider error")
)

type Checkout struct {
	store    storage.Storage
	provider PaymentProvider
	catalog  *plans.Catalog
	appURL   string
	logger   *slog.Logger
}

func NewCheckout(store storage.Storage, provider PaymentProvider, catalog *plans.Catalog, appURL string, logger *slog.Logger) *Checkout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{store: store, provider: provider, catalog: catalog, appURL: appURL, logger: logger}
}

// Start returns the hosted checkout URL for plan and billing period. The plan
// and the caller are checked before anything leaves the process.
func (c *Checkout) Start(ctx context.Context, userID, email, plan, billing string) (string, error) {
	if _, ok := c.catalog.Lookup(plan); !ok {
		return "", ErrInvalidPlan
	}
	if userID == "" {
		return "", ErrUnauthenticated
	}

	period := models.ParseBillingPeriod(billing)
	priceID, err := c.catalog.PriceID(plan, period)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	customerID, err := c.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}

	url, err := c.provider.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: c.appURL + "/dashboard?success=true",
		CancelURL:  c.appURL + "/#pricing",
		Metadata: map[string]string{
			"user_id": userID,
			"plan":    plan,
			"billing": string(period),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", ErrProviderError, err)
	}

	c.logger.Info("Checkout session created", "user_id", userID, "plan", plan, "billing", period)
	return url, nil
}

// ensureCustomer returns the stored customer id, creating and persisting one
// first if needed. Two concurrent first checkouts can both create a customer;
// the first write wins and the loser reuses it.
func (c *Checkout) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	if err := c.store.EnsureProfile(ctx, &models.Profile{ID: userID, Email: email}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	profile, err := c.store.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: load profile: %v", ErrProviderError, err)
	}
	if id := profile.CustomerID(); id != "" {
		return id, nil
	}
	if email == "" {
		email = profile.Email
	}

	customerID, err := c.provider.CreateCustomer(ctx, userID, email)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrProviderError, err)
	}

	err = c.store.SetCustomerID(ctx, userID, customerID)
	if errors.Is(err, storage.ErrCustomerConflict) {
		profile, err = c.store.GetProfile(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("%w: reload profile: %v", ErrProviderError, err)
		}
		c.logger.Warn("Duplicate billing customer created", "user_id", userID, "orphan", customerID, "kept", profile.CustomerID())
		return profile.CustomerID(), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: save customer: %v", ErrProviderError, err)
	}
	return customerID, nil
}
