package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/esgtracker/internal/models"
)

func TestMemoryQuotaAndOwnership(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.EnsureProfile(ctx, &models.Profile{ID: "u1", Email: "u1@example.com"}))
	// second call keeps the existing row
	require.NoError(t, m.EnsureProfile(ctx, &models.Profile{ID: "u1", Email: "changed@example.com"}))

	p, err := m.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, p.SubscriptionStatus)
	assert.Equal(t, "u1@example.com", p.Email)

	r := &models.Report{UserID: "u1", CompanyName: "Acme"}
	require.NoError(t, m.SaveReport(ctx, r))
	assert.NotEmpty(t, r.ID)

	err = m.SaveReport(ctx, &models.Report{UserID: "u1"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	p, _ = m.GetProfile(ctx, "u1")
	assert.Equal(t, 1, p.ReportsUsedThisMonth)

	_, err = m.GetReport(ctx, "someone-else", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := m.GetReport(ctx, "u1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)

	n, err := m.ResetMonthlyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, m.SaveReport(ctx, &models.Report{UserID: "u1"}))

	list, err := m.ListReports(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemorySubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.EnsureProfile(ctx, &models.Profile{ID: "u1"}))

	require.NoError(t, m.SetCustomerID(ctx, "u1", "cus_1"))
	require.NoError(t, m.SetCustomerID(ctx, "u1", "cus_1"))
	assert.ErrorIs(t, m.SetCustomerID(ctx, "u1", "cus_2"), ErrCustomerConflict)

	require.NoError(t, m.CompleteCheckout(ctx, "u1", models.TierPro, models.BillingAnnual, "cus_1"))
	p, err := m.GetProfileByCustomerID(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, p.SubscriptionStatus)

	n, err := m.ResetSubscription(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, _ = m.GetProfile(ctx, "u1")
	assert.Equal(t, models.TierFree, p.SubscriptionStatus)
	assert.Nil(t, p.SubscriptionPeriod)
	assert.Nil(t, p.SubscriptionEndDate)

	n, err = m.ResetSubscription(ctx, "cus_unknown")
	require.NoError(t, err)
	assert.Zero(t, n)
}
