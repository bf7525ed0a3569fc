package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/quota"
)

// Memory is an in-process Storage with the same semantics as Postgres. It
// backs local runs without a database and the tests of dependent packages.
type Memory struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	reports  map[string]*models.Report
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]*models.Profile),
		reports:  make(map[string]*models.Report),
		now:      time.Now,
	}
}

func (m *Memory) EnsureProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[p.ID]; ok {
		return nil
	}
	now := m.now().UTC()
	m.profiles[p.ID] = &models.Profile{
		ID:                 p.ID,
		Email:              p.Email,
		FullName:           p.FullName,
		CompanyName:        p.CompanyName,
		SubscriptionStatus: models.TierFree,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetProfileByCustomerID(_ context.Context, customerID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.byCustomer(customerID)
	if p == nil {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) SetCustomerID(_ context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	if p.StripeCustomerID != nil && *p.StripeCustomerID != customerID {
		return ErrCustomerConflict
	}
	p.StripeCustomerID = &customerID
	p.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) CompleteCheckout(_ context.Context, userID string, tier models.Tier, period models.BillingPeriod, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.SubscriptionStatus = tier
	p.SubscriptionPeriod = &period
	if customerID != "" {
		p.StripeCustomerID = &customerID
	}
	p.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) SetSubscriptionStatus(_ context.Context, userID string, tier models.Tier, endDate *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.SubscriptionStatus = tier
	p.SubscriptionEndDate = endDate
	p.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) ResetSubscription(_ context.Context, customerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, p := range m.profiles {
		if p.StripeCustomerID == nil || *p.StripeCustomerID != customerID {
			continue
		}
		p.SubscriptionStatus = models.TierFree
		p.SubscriptionPeriod = nil
		p.SubscriptionEndDate = nil
		p.UpdatedAt = m.now().UTC()
		n++
	}
	return n, nil
}

func (m *Memory) SaveReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[r.UserID]
	if !ok {
		return ErrNotFound
	}
	if !quota.Allowed(p.SubscriptionStatus, p.ReportsUsedThisMonth) {
		return ErrQuotaExceeded
	}

	r.ID = uuid.NewString()
	r.CreatedAt = m.now().UTC()
	cp := *r
	m.reports[r.ID] = &cp
	p.ReportsUsedThisMonth++
	return nil
}

func (m *Memory) GetReport(_ context.Context, userID, reportID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[reportID]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) ListReports(_ context.Context, userID string, limit int) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reports := []models.Report{}
	for _, r := range m.reports {
		if r.UserID == userID {
			reports = append(reports, *r)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (m *Memory) ResetMonthlyUsage(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, p := range m.profiles {
		if p.ReportsUsedThisMonth != 0 {
			p.ReportsUsedThisMonth = 0
			n++
		}
	}
	return n, nil
}

func (m *Memory) byCustomer(customerID string) *models.Profile {
	for _, p := range m.profiles {
		if p.StripeCustomerID != nil && *p.StripeCustomerID == customerID {
			return p
		}
	}
	return nil
}

var (
	_ Storage = (*Memory)(nil)
	_ Storage = (*Postgres)(nil)
)
