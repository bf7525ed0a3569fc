package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/esgtracker/internal/models"
)

var profileCols = []string{
	"id", "email", "full_name", "company_name", "stripe_customer_id", "subscription_status",
	"subscription_period", "subscription_end_date", "reports_used_this_month", "created_at", "updated_at",
}

var reportCols = []string{
	"id", "user_id", "company_name", "industry", "employee_count", "annual_revenue",
	"environmental_score", "social_score", "governance_score", "overall_score", "summary",
	"environmental_details", "social_details", "governance_details", "compliance_status",
	"recommendations", "input_data", "is_guest_report", "created_at",
}

func setupPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPostgres(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestGetProfile(t *testing.T) {
	store, mock := setupPostgres(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("user-1", "a@b.c", nil, "Acme", "cus_1", "starter", "annual", nil, 2, now, now))

	p, err := store.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.TierStarter, p.SubscriptionStatus)
	require.NotNil(t, p.SubscriptionPeriod)
	assert.Equal(t, models.BillingAnnual, *p.SubscriptionPeriod)
	assert.Equal(t, "cus_1", p.CustomerID())
	assert.Nil(t, p.FullName)
	assert.Equal(t, 2, p.ReportsUsedThisMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE stripe_customer_id = $1")).
		WithArgs("cus_missing").
		WillReturnRows(sqlmock.NewRows(profileCols))

	_, err := store.GetProfileByCustomerID(context.Background(), "cus_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureProfile(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")).
		WithArgs("user-1", "a@b.c", nil, nil, "free").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.EnsureProfile(context.Background(), &models.Profile{ID: "user-1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetCustomerID(t *testing.T) {
	t.Run("linked", func(t *testing.T) {
		store, mock := setupPostgres(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET stripe_customer_id = $2")).
			WithArgs("user-1", "cus_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.SetCustomerID(context.Background(), "user-1", "cus_1"))
	})

	t.Run("already linked elsewhere", func(t *testing.T) {
		store, mock := setupPostgres(t)
		now := time.Now()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET stripe_customer_id = $2")).
			WithArgs("user-1", "cus_2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(profileCols).
				AddRow("user-1", "a@b.c", nil, nil, "cus_1", "free", nil, nil, 0, now, now))

		err := store.SetCustomerID(context.Background(), "user-1", "cus_2")
		assert.ErrorIs(t, err, ErrCustomerConflict)
	})
}

func TestSaveReport(t *testing.T) {
	store, mock := setupPostgres(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1 FOR UPDATE")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"subscription_status", "reports_used_this_month"}).AddRow("starter", 2))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO esg_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rep-1", created))
	mock.ExpectExec(regexp.QuoteMeta("SET reports_used_this_month = reports_used_this_month + 1")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := &models.Report{UserID: "user-1", CompanyName: "Acme", Industry: "Retail", Recommendations: models.StringList{"x"}}
	require.NoError(t, store.SaveReport(context.Background(), r))
	assert.Equal(t, "rep-1", r.ID)
	assert.Equal(t, created, r.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportQuotaExceeded(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"subscription_status", "reports_used_this_month"}).AddRow("free", 1))
	mock.ExpectRollback()

	err := store.SaveReport(context.Background(), &models.Report{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportIsOwnerScoped(t *testing.T) {
	store, mock := setupPostgres(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM esg_reports WHERE id = $1 AND user_id = $2")).
		WithArgs("rep-1", "user-1").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"rep-1", "user-1", "Acme", "Retail", 50, "1200000.50",
			70, 60, 80, 70, "summary",
			"env", "soc", "gov", "partial",
			[]byte(`["a","b"]`), []byte(`{"companyName":"Acme"}`), false, now,
		))

	r, err := store.GetReport(context.Background(), "user-1", "rep-1")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"a", "b"}, r.Recommendations)
	assert.Equal(t, 1200000.5, *r.AnnualRevenue)
	assert.JSONEq(t, `{"companyName":"Acme"}`, string(r.InputData))

	mock.ExpectQuery(regexp.QuoteMeta("FROM esg_reports WHERE id = $1 AND user_id = $2")).
		WithArgs("rep-1", "intruder").
		WillReturnRows(sqlmock.NewRows(reportCols))

	_, err = store.GetReport(context.Background(), "intruder", "rep-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReports(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("user-1", 20).
		WillReturnRows(sqlmock.NewRows(reportCols))

	reports, err := store.ListReports(context.Background(), "user-1", 20)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestSubscriptionUpdates(t *testing.T) {
	store, mock := setupPostgres(t)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET subscription_status = $2, subscription_period = $3")).
		WithArgs("user-1", "pro", "monthly", "cus_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET subscription_status = $2, subscription_end_date = $3")).
		WithArgs("user-1", "cancelled", end).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("subscription_period = NULL")).
		WithArgs("cus_1", "free").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, store.CompleteCheckout(ctx, "user-1", models.TierPro, models.BillingMonthly, "cus_1"))
	assert.ErrorIs(t, store.SetSubscriptionStatus(ctx, "user-1", models.TierCancelled, &end), ErrNotFound)

	n, err := store.ResetSubscription(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetMonthlyUsage(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("SET reports_used_this_month = 0")).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.ResetMonthlyUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
