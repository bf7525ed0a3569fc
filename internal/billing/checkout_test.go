package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/plans"
	"github.com/illegalcall/esgtracker/internal/storage"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func testCatalog() *plans.Catalog {
	return plans.NewCatalog(config.StripeConfig{
		StarterMonthlyPrice: "price_sm",
		StarterAnnualPrice:  "price_sa",
		ProMonthlyPrice:     "price_pm",
		ProAnnualPrice:      "price_pa",
	})
}

func setupCheckout(t *testing.T) (*Checkout, *storage.Memory, *MockProvider) {
	store := storage.NewMemory()
	provider := new(MockProvider)
	return NewCheckout(store, provider, testCatalog(), "https://esg.example.com", nil), store, provider
}

func TestStartCreatesCustomerBeforeSession(t *testing.T) {
	checkout, store, provider := setupCheckout(t)
	ctx := context.Background()

	provider.On("CreateCustomer", mock.Anything, "user-1", "a@b.c").Return("cus_new", nil).Once()
	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req CheckoutSessionRequest) bool {
		// the customer id must already be persisted when the session is created
		p, err := store.GetProfile(ctx, "user-1")
		return err == nil && p.CustomerID() == "cus_new" &&
			req.CustomerID == "cus_new" &&
			req.PriceID == "price_pa" &&
			req.SuccessURL == "https://esg.example.com/dashboard?success=true" &&
			req.CancelURL == "https://esg.example.com/#pricing" &&
			req.Metadata["user_id"] == "user-1" &&
			req.Metadata["plan"] == "pro" &&
			req.Metadata["billing"] == "annual"
	})).Return("https://checkout.stripe.test/s/1", nil).Once()

	url, err := checkout.Start(ctx, "user-1", "a@b.c", "pro", "annual")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/s/1", url)
	provider.AssertExpectations(t)
}

func TestStartReusesExistingCustomer(t *testing.T) {
	checkout, store, provider := setupCheckout(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureProfile(ctx, &models.Profile{ID: "user-1"}))
	require.NoError(t, store.SetCustomerID(ctx, "user-1", "cus_existing"))

	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req CheckoutSessionRequest) bool {
		return req.CustomerID == "cus_existing" && req.PriceID == "price_sm" && req.Metadata["billing"] == "monthly"
	})).Return("https://checkout.stripe.test/s/2", nil)

	_, err := checkout.Start(ctx, "user-1", "", "starter", "")
	require.NoError(t, err)
	provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartValidatesBeforeExternalCalls(t *testing.T) {
	checkout, _, provider := setupCheckout(t)

	_, err := checkout.Start(context.Background(), "user-1", "", "enterprise", "monthly")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = checkout.Start(context.Background(), "", "", "pro", "monthly")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestStartProviderFailures(t *testing.T) {
	t.Run("customer creation", func(t *testing.T) {
		checkout, _, provider := setupCheckout(t)
		provider.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("card_declined"))

		_, err := checkout.Start(context.Background(), "user-1", "", "pro", "monthly")
		assert.ErrorIs(t, err, ErrProviderError)
	})

	t.Run("session creation", func(t *testing.T) {
		checkout, store, provider := setupCheckout(t)
		provider.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("cus_1", nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

		_, err := checkout.Start(context.Background(), "user-1", "", "pro", "monthly")
		assert.ErrorIs(t, err, ErrProviderError)

		// the customer link survives for the next attempt
		p, err := store.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", p.CustomerID())
	})

	t.Run("price not configured", func(t *testing.T) {
		provider := new(MockProvider)
		checkout := NewCheckout(storage.NewMemory(), provider, plans.NewCatalog(config.StripeConfig{}), "https://x", nil)

		_, err := checkout.Start(context.Background(), "user-1", "", "pro", "monthly")
		assert.ErrorIs(t, err, ErrProviderError)
		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})
}

// conflictStore simulates losing the race to link a customer.
type conflictStore struct {
	*storage.Memory
}

func (s conflictStore) SetCustomerID(ctx context.Context, userID, _ string) error {
	_ = s.Memory.SetCustomerID(ctx, userID, "cus_winner")
	return storage.ErrCustomerConflict
}

func TestStartReusesWinningCustomerOnConflict(t *testing.T) {
	provider := new(MockProvider)
	checkout := NewCheckout(conflictStore{storage.NewMemory()}, provider, testCatalog(), "https://x", nil)

	provider.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("cus_loser", nil)
	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req CheckoutSessionRequest) bool {
		return req.CustomerID == "cus_winner"
	})).Return("https://checkout.stripe.test/s/3", nil)

	url, err := checkout.Start(context.Background(), "user-1", "", "starter", "monthly")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/s/3", url)
}
