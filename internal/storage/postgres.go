package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/quota"
)

const profileColumns = `id, email, full_name, company_name, stripe_customer_id, subscription_status,
	subscription_period, subscription_end_date, reports_used_this_month, created_at, updated_at`

const reportColumns = `id, user_id, company_name, industry, employee_count, annual_revenue,
	environmental_score, social_score, governance_score, overall_score, summary,
	environmental_details, social_details, governance_details, compliance_status,
	recommendations, input_data, is_guest_report, created_at`

// Postgres implements Storage with sqlx.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) EnsureProfile(ctx context.Context, prof *models.Profile) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, company_name, subscription_status, reports_used_this_month)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (id) DO NOTHING`,
		prof.ID, prof.Email, prof.FullName, prof.CompanyName, models.TierFree,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

func (p *Postgres) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var prof models.Profile
	err := p.db.GetContext(ctx, &prof, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &prof, nil
}

func (p *Postgres) GetProfileByCustomerID(ctx context.Context, customerID string) (*models.Profile, error) {
	var prof models.Profile
	err := p.db.GetContext(ctx, &prof, `SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by customer: %w", err)
	}
	return &prof, nil
}

func (p *Postgres) SetCustomerID(ctx context.Context, userID, customerID string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET stripe_customer_id = $2, updated_at = NOW()
		WHERE id = $1 AND (stripe_customer_id IS NULL OR stripe_customer_id = $2)`,
		userID, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set customer id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set customer id: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the profile is gone or it already points at
	// another customer.
	if _, err := p.GetProfile(ctx, userID); err != nil {
		return err
	}
	return ErrCustomerConflict
}

func (p *Postgres) CompleteCheckout(ctx context.Context, userID string, tier models.Tier, period models.BillingPeriod, customerID string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET subscription_status = $2, subscription_period = $3,
			stripe_customer_id = COALESCE(NULLIF($4, ''), stripe_customer_id), updated_at = NOW()
		WHERE id = $1`,
		userID, tier, period, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete checkout: %w", err)
	}
	return requireRow(res)
}

func (p *Postgres) SetSubscriptionStatus(ctx context.Context, userID string, tier models.Tier, endDate *time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET subscription_status = $2, subscription_end_date = $3, updated_at = NOW() WHERE id = $1`,
		userID, tier, endDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return requireRow(res)
}

func (p *Postgres) ResetSubscription(ctx context.Context, customerID string) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET subscription_status = $2, subscription_period = NULL,
			subscription_end_date = NULL, updated_at = NOW()
		WHERE stripe_customer_id = $1`,
		customerID, models.TierFree,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset subscription: %w", err)
	}
	return res.RowsAffected()
}

const insertReport = `INSERT INTO esg_reports (user_id, company_name, industry, employee_count, annual_revenue,
	environmental_score, social_score, governance_score, overall_score, summary,
	environmental_details, social_details, governance_details, compliance_status,
	recommendations, input_data, is_guest_report)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id, created_at`

// SaveReport locks the owner's profile row so concurrent generations for the
// same user serialize on the quota check.
func (p *Postgres) SaveReport(ctx context.Context, r *models.Report) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var usage struct {
		Tier models.Tier `db:"subscription_status"`
		Used int         `db:"reports_used_this_month"`
	}
	err = tx.GetContext(ctx, &usage,
		`SELECT subscription_status, reports_used_this_month FROM profiles WHERE id = $1 FOR UPDATE`, r.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	if !quota.Allowed(usage.Tier, usage.Used) {
		return ErrQuotaExceeded
	}

	err = tx.QueryRowxContext(ctx, insertReport,
		r.UserID, r.CompanyName, r.Industry, r.EmployeeCount, r.AnnualRevenue,
		r.EnvironmentalScore, r.SocialScore, r.GovernanceScore, r.OverallScore, r.Summary,
		r.EnvironmentalDetails, r.SocialDetails, r.GovernanceDetails, r.ComplianceStatus,
		r.Recommendations, r.InputData, r.IsGuestReport,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET reports_used_this_month = reports_used_this_month + 1, updated_at = NOW() WHERE id = $1`,
		r.UserID,
	); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

func (p *Postgres) GetReport(ctx context.Context, userID, reportID string) (*models.Report, error) {
	var r models.Report
	err := p.db.GetContext(ctx, &r,
		`SELECT `+reportColumns+` FROM esg_reports WHERE id = $1 AND user_id = $2`, reportID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

func (p *Postgres) ListReports(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	reports := []models.Report{}
	err := p.db.SelectContext(ctx, &reports,
		`SELECT `+reportColumns+` FROM esg_reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (p *Postgres) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET reports_used_this_month = 0, updated_at = NOW() WHERE reports_used_this_month <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly usage: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
