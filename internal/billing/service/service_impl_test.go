package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/groundplan/groundplan/internal/billing/domain"
	"github.com/groundplan/groundplan/internal/billing/repository"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	db.Exec(`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		plan_id BIGINT,
		billing_cycle TEXT NOT NULL,
		mrr NUMERIC NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		subscription_start_date TIMESTAMP,
		next_payment_date TIMESTAMP,
		trial_ends_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS plans (
		id BIGINT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		monthly_price NUMERIC NOT NULL,
		annual_price NUMERIC,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS revenue_history (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		previous_mrr NUMERIC NOT NULL,
		new_mrr NUMERIC NOT NULL,
		reason TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`)

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 3, 0, 0, 0, time.UTC))

	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: fake,
		repo:  repository.Provide(),
	}
	return svc, db, node, fake
}

func seedPlan(t *testing.T, db *gorm.DB, node *snowflake.Node, monthly string, annual *string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	var annualPrice *decimal.Decimal
	if annual != nil {
		d := decimal.RequireFromString(*annual)
		annualPrice = &d
	}
	err := db.Exec(`INSERT INTO plans (id, code, name, monthly_price, annual_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "plan_"+id.String(), "Plan "+id.String(),
		decimal.RequireFromString(monthly), annualPrice, now, now,
	).Error
	require.NoError(t, err)
	return id
}

func seedCustomer(t *testing.T, db *gorm.DB, node *snowflake.Node, planID *snowflake.ID, cycle domain.BillingCycle, mrr string, status domain.CustomerStatus, start, next *time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(`INSERT INTO customers (id, name, email, plan_id, billing_cycle, mrr, status,
			subscription_start_date, next_payment_date, trial_ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		id, "Customer "+id.String(), id.String()+"@example.com",
		planID, cycle, decimal.RequireFromString(mrr), status, start, next, now, now,
	).Error
	require.NoError(t, err)
	return id
}

func customerMRR(t *testing.T, db *gorm.DB, id snowflake.ID) decimal.Decimal {
	t.Helper()
	var raw string
	require.NoError(t, db.Raw(`SELECT mrr FROM customers WHERE id = ?`, id).Scan(&raw).Error)
	return decimal.RequireFromString(raw)
}

func TestReconcileAll(t *testing.T) {
	svc, db, node, _ := newTestService(t)
	ctx := context.Background()

	monthlyPlan := seedPlan(t, db, node, "99.99", nil)
	annualPriced := "1080"
	annualPlan := seedPlan(t, db, node, "100", &annualPriced)
	noAnnualPlan := seedPlan(t, db, node, "50", nil)

	drifted := seedCustomer(t, db, node, &monthlyPlan, domain.BillingCycleMonthly, "120", domain.CustomerStatusActive, nil, nil)
	annual := seedCustomer(t, db, node, &annualPlan, domain.BillingCycleAnnual, "0", domain.CustomerStatusActive, nil, nil)
	derived := seedCustomer(t, db, node, &noAnnualPlan, domain.BillingCycleAnnual, "0", domain.CustomerStatusTrial, nil, nil)
	suspended := seedCustomer(t, db, node, &monthlyPlan, domain.BillingCycleMonthly, "99.99", domain.CustomerStatusSuspended, nil, nil)
	inTolerance := seedCustomer(t, db, node, &monthlyPlan, domain.BillingCycleMonthly, "99.99005", domain.CustomerStatusActive, nil, nil)

	summary, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 4, summary.Updated)
	assert.Equal(t, 0, summary.Errors)

	assert.True(t, customerMRR(t, db, drifted).Equal(decimal.RequireFromString("99.99")))
	// Explicit annual price wins over monthly x 12.
	assert.True(t, customerMRR(t, db, annual).Equal(decimal.RequireFromString("90")))
	// No annual price: annual billing derives monthly x 12 / 12.
	assert.True(t, customerMRR(t, db, derived).Equal(decimal.RequireFromString("50")))
	// Suspended customers converge to zero.
	assert.True(t, customerMRR(t, db, suspended).IsZero())
	// Sub-tolerance drift left untouched.
	assert.True(t, customerMRR(t, db, inTolerance).Equal(decimal.RequireFromString("99.99005")))

	t.Run("HistoryAppended", func(t *testing.T) {
		entries, err := svc.repo.ListRevenueHistory(ctx, db, drifted)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].PreviousMRR.Equal(decimal.RequireFromString("120")))
		assert.True(t, entries[0].NewMRR.Equal(decimal.RequireFromString("99.99")))
		assert.Equal(t, "mrr_reconciliation", entries[0].Reason)
	})

	t.Run("SecondRunIsFixpoint", func(t *testing.T) {
		again, err := svc.ReconcileAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Updated)
		assert.Equal(t, 0, again.Errors)

		entries, err := svc.repo.ListRevenueHistory(ctx, db, drifted)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("ZeroedCustomerLeavesPopulation", func(t *testing.T) {
		// A suspended customer with mrr already zero is not a candidate.
		candidates, err := svc.repo.ListForReconciliation(ctx, db)
		require.NoError(t, err)
		for _, c := range candidates {
			assert.NotEqual(t, suspended, c.ID)
		}
	})
}

func TestRefreshPaymentDates(t *testing.T) {
	svc, db, node, fake := newTestService(t)
	ctx := context.Background()

	plan := seedPlan(t, db, node, "100", nil)
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	missing := seedCustomer(t, db, node, &plan, domain.BillingCycleMonthly, "100", domain.CustomerStatusActive, &start, nil)
	upToDate := seedCustomer(t, db, node, &plan, domain.BillingCycleMonthly, "100", domain.CustomerStatusActive, &start, &future)
	// No subscription start: never billable for dates, excluded entirely.
	seedCustomer(t, db, node, &plan, domain.BillingCycleMonthly, "100", domain.CustomerStatusActive, nil, nil)

	summary, err := svc.RefreshPaymentDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Updated)

	customer, err := svc.repo.FindCustomer(ctx, db, missing)
	require.NoError(t, err)
	require.NotNil(t, customer.NextPaymentDate)
	assert.Equal(t, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), customer.NextPaymentDate.UTC())

	kept, err := svc.repo.FindCustomer(ctx, db, upToDate)
	require.NoError(t, err)
	require.NotNil(t, kept.NextPaymentDate)
	assert.Equal(t, future, kept.NextPaymentDate.UTC())

	t.Run("SecondRunNoWrites", func(t *testing.T) {
		again, err := svc.RefreshPaymentDates(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Updated)
	})

	t.Run("StaleDateAdvances", func(t *testing.T) {
		fake.Set(time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC))
		summary, err := svc.RefreshPaymentDates(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Updated)

		customer, err := svc.repo.FindCustomer(ctx, db, upToDate)
		require.NoError(t, err)
		require.NotNil(t, customer.NextPaymentDate)
		assert.True(t, customer.NextPaymentDate.After(fake.Now()))
	})
}
