// Package storage persists user profiles and ESG reports. Every report read
// is scoped to its owner.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/illegalcall/esgtracker/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("monthly report quota exceeded")
	// ErrCustomerConflict means the profile already carries a different
	// billing customer id.
	ErrCustomerConflict = errors.New("profile already linked to another customer")
)

// Storage defines the persistence operations used by the API, the webhook
// handler and the usage reset job.
type Storage interface {
	// EnsureProfile creates a free profile with a zero usage counter unless
	// one already exists. Only ID, Email, FullName and CompanyName are read.
	EnsureProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error)

	// SetCustomerID links a billing customer. Repeating the same id is a no-op.
	SetCustomerID(ctx context.Context, userID, customerID string) error
	CompleteCheckout(ctx context.Context, userID string, tier models.Tier, period models.BillingPeriod, customerID string) error
	SetSubscriptionStatus(ctx context.Context, userID string, tier models.Tier, endDate *time.Time) error
	// ResetSubscription returns the customer's profile to free with no period
	// or end date. It reports how many profiles changed.
	ResetSubscription(ctx context.Context, customerID string) (int64, error)

	// SaveReport re-checks the owner's quota, inserts the report and bumps the
	// usage counter atomically. r.ID and r.CreatedAt are filled in.
	SaveReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, userID, reportID string) (*models.Report, error)
	ListReports(ctx context.Context, userID string, limit int) ([]models.Report, error)

	ResetMonthlyUsage(ctx context.Context) (int64, error)
}
