// Package billing starts hosted checkout sessions and applies subscription
// webhook events to user profiles.
package billing

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// PaymentProvider is the slice of the payment API used by the checkout flow.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error)
}

type CheckoutSessionRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// StripeProvider uses its own API client instead of the package level key.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, backends)}
}

// CreateCustomer tags the customer with the internal user id so it can be
// correlated from the dashboard.
func (p *StripeProvider) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"supabase_user_id": userID,
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreateCheckoutSession opens a subscription-mode session for one price. The
// metadata goes on the session and on the subscription it creates.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:           stripe.String(req.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Metadata = req.Metadata
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}
