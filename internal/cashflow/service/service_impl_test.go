package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/groundplan/groundplan/internal/cashflow/domain"
	cashflowrepo "github.com/groundplan/groundplan/internal/cashflow/repository"
	"github.com/groundplan/groundplan/internal/clock"
	expensedomain "github.com/groundplan/groundplan/internal/expense/domain"
	expenserepo "github.com/groundplan/groundplan/internal/expense/repository"
	fundingdomain "github.com/groundplan/groundplan/internal/funding/domain"
	fundingrepo "github.com/groundplan/groundplan/internal/funding/repository"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	projectrepo "github.com/groundplan/groundplan/internal/project/repository"
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

	db.Exec(`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		currency TEXT NOT NULL,
		completed_at TIMESTAMP,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS funding_records (
		id BIGINT PRIMARY KEY,
		project_id BIGINT NOT NULL,
		customer_id BIGINT,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		funding_type TEXT NOT NULL,
		status TEXT NOT NULL,
		expected_date TIMESTAMP,
		received_date TIMESTAMP,
		reference_number TEXT,
		description TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS expense_records (
		id BIGINT PRIMARY KEY,
		project_id BIGINT NOT NULL,
		amount NUMERIC NOT NULL,
		tax_amount NUMERIC NOT NULL,
		total_amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		expense_type TEXT,
		category TEXT,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		paid_date TIMESTAMP,
		expense_date TIMESTAMP,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	db.Exec(`CREATE TABLE IF NOT EXISTS project_cash_flow_snapshots (
		id BIGINT PRIMARY KEY,
		project_id BIGINT NOT NULL,
		period_type TEXT NOT NULL,
		period_start TIMESTAMP NOT NULL,
		period_end TIMESTAMP NOT NULL,
		total_inflow NUMERIC NOT NULL,
		total_outflow NUMERIC NOT NULL,
		net_cash_flow NUMERIC NOT NULL,
		calculated_at TIMESTAMP NOT NULL,
		UNIQUE (project_id, period_type, period_start)
	)`)

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC))

	svc := &Service{
		db:           db,
		log:          zaptest.NewLogger(t),
		genID:        node,
		clock:        fake,
		snapshotRepo: cashflowrepo.Provide(),
		fundingRepo:  fundingrepo.Provide(),
		expenseRepo:  expenserepo.Provide(),
		projectRepo:  projectrepo.Provide(),
	}
	return svc, db, node, fake
}

func seedProject(t *testing.T, db *gorm.DB, node *snowflake.Node, status projectdomain.ProjectStatus) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(`INSERT INTO projects (id, name, status, currency, completed_at, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULL, '{}', ?, ?)`,
		id, "Riverside Tower", status, "USD", now, now,
	).Error
	require.NoError(t, err)
	return id
}

func seedFunding(t *testing.T, db *gorm.DB, node *snowflake.Node, projectID snowflake.ID, amount string, status fundingdomain.FundingStatus, receivedDate *time.Time) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(`INSERT INTO funding_records (id, project_id, customer_id, amount, currency, funding_type, status,
			expected_date, received_date, reference_number, description, metadata, created_at, updated_at)
		VALUES (?, ?, NULL, ?, 'USD', ?, ?, NULL, ?, '', '', '{}', ?, ?)`,
		node.Generate(), projectID, decimal.RequireFromString(amount),
		fundingdomain.FundingTypeClientPayment, status, receivedDate, now, now,
	).Error
	require.NoError(t, err)
}

func seedExpense(t *testing.T, db *gorm.DB, node *snowflake.Node, projectID snowflake.ID, total string, paymentStatus expensedomain.PaymentStatus, paidDate, expenseDate *time.Time) {
	t.Helper()
	now := time.Now().UTC()
	amount := decimal.RequireFromString(total)
	err := db.Exec(`INSERT INTO expense_records (id, project_id, amount, tax_amount, total_amount, currency, expense_type,
			category, status, payment_status, paid_date, expense_date, metadata, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, 'USD', 'materials', 'construction', ?, ?, ?, ?, '{}', ?, ?)`,
		node.Generate(), projectID, amount, amount,
		expensedomain.ExpenseStatusPaid, paymentStatus, paidDate, expenseDate, now, now,
	).Error
	require.NoError(t, err)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCalculateProjectCashFlow(t *testing.T) {
	svc, db, node, _ := newTestService(t)
	ctx := context.Background()

	projectID := seedProject(t, db, node, projectdomain.ProjectStatusActive)

	// March 2024: two received fundings, two paid expenses.
	seedFunding(t, db, node, projectID, "3000000", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 5))
	seedFunding(t, db, node, projectID, "2000000", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 18))
	seedExpense(t, db, node, projectID, "1500000", expensedomain.PaymentStatusPaid, datePtr(2024, time.March, 10), nil)
	seedExpense(t, db, node, projectID, "700000", expensedomain.PaymentStatusPaid, nil, datePtr(2024, time.March, 22))

	// Noise that must not count: pending funding, unpaid expense.
	seedFunding(t, db, node, projectID, "9000000", fundingdomain.FundingStatusPending, nil)
	seedExpense(t, db, node, projectID, "9000000", expensedomain.PaymentStatusUnpaid, nil, datePtr(2024, time.March, 9))

	t.Run("SingleMonth", func(t *testing.T) {
		buckets, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  projectID.String(),
			Start:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodTypeMonthly,
		})
		require.NoError(t, err)
		require.Len(t, buckets, 1)

		bucket := buckets[0]
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), bucket.PeriodStart)
		assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), bucket.PeriodEnd)
		assert.True(t, bucket.Inflow.Equal(decimal.RequireFromString("5000000")), "inflow %s", bucket.Inflow)
		assert.True(t, bucket.Outflow.Equal(decimal.RequireFromString("2200000")), "outflow %s", bucket.Outflow)
		assert.True(t, bucket.Net.Equal(decimal.RequireFromString("2800000")), "net %s", bucket.Net)
		assert.Nil(t, bucket.CumulativeNet)
	})

	t.Run("DenseSeriesIncludesZeroMonths", func(t *testing.T) {
		buckets, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  projectID.String(),
			Start:      time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodTypeMonthly,
		})
		require.NoError(t, err)
		require.Len(t, buckets, 4)

		for i := 1; i < len(buckets); i++ {
			assert.True(t, buckets[i].PeriodStart.After(buckets[i-1].PeriodStart))
			assert.Equal(t, buckets[i-1].PeriodEnd, buckets[i].PeriodStart)
		}
		assert.True(t, buckets[0].Net.IsZero(), "january should be a zero bucket")
		assert.True(t, buckets[1].Net.IsZero(), "february should be a zero bucket")
		assert.True(t, buckets[2].Net.Equal(decimal.RequireFromString("2800000")))
		assert.True(t, buckets[3].Net.IsZero(), "april should be a zero bucket")
	})

	t.Run("NetInvariantPerBucket", func(t *testing.T) {
		buckets, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  projectID.String(),
			Start:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodTypeMonthly,
		})
		require.NoError(t, err)
		for _, bucket := range buckets {
			assert.True(t, bucket.Net.Equal(bucket.Inflow.Sub(bucket.Outflow)))
		}
	})

	t.Run("UnknownProject", func(t *testing.T) {
		_, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  node.Generate().String(),
			Start:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodTypeMonthly,
		})
		assert.ErrorIs(t, err, projectdomain.ErrNotFound)
	})

	t.Run("InvalidPeriodType", func(t *testing.T) {
		_, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  projectID.String(),
			Start:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodType("quarterly"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPeriodType)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		_, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
			ProjectID:  projectID.String(),
			Start:      time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			PeriodType: domain.PeriodTypeMonthly,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})
}

func TestCalculateProjectCashFlowWeekly(t *testing.T) {
	svc, db, node, _ := newTestService(t)
	ctx := context.Background()

	projectID := seedProject(t, db, node, projectdomain.ProjectStatusConstruction)

	// Wed Mar 6 and Fri Mar 8 land in the ISO week starting Mon Mar 4.
	seedFunding(t, db, node, projectID, "100.50", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 6))
	seedFunding(t, db, node, projectID, "200.25", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 8))
	seedExpense(t, db, node, projectID, "50.75", expensedomain.PaymentStatusPaid, datePtr(2024, time.March, 13), nil)

	buckets, err := svc.CalculateProjectCashFlow(ctx, domain.CalculateRequest{
		ProjectID:  projectID.String(),
		Start:      time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		PeriodType: domain.PeriodTypeWeekly,
	})
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), buckets[0].PeriodStart)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), buckets[0].PeriodEnd)
	assert.True(t, buckets[0].Inflow.Equal(decimal.RequireFromString("300.75")), "inflow %s", buckets[0].Inflow)
	assert.True(t, buckets[0].Outflow.IsZero())

	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), buckets[1].PeriodStart)
	assert.True(t, buckets[1].Outflow.Equal(decimal.RequireFromString("50.75")))
}

func TestCalculateCumulativeCashFlow(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	buckets := []domain.PeriodBucket{
		{Net: decimal.RequireFromString("100")},
		{Net: decimal.RequireFromString("-40")},
		{Net: decimal.Zero},
		{Net: decimal.RequireFromString("15.5")},
	}

	annotated := svc.CalculateCumulativeCashFlow(buckets, decimal.RequireFromString("1000"))
	require.Len(t, annotated, 4)

	want := []string{"1100", "1060", "1060", "1075.5"}
	for i, bucket := range annotated {
		require.NotNil(t, bucket.CumulativeNet)
		assert.True(t, bucket.CumulativeNet.Equal(decimal.RequireFromString(want[i])),
			"bucket %d cumulative %s", i, bucket.CumulativeNet)
	}

	// Input series stays unannotated.
	for _, bucket := range buckets {
		assert.Nil(t, bucket.CumulativeNet)
	}

	assert.Empty(t, svc.CalculateCumulativeCashFlow(nil, decimal.Zero))
}

func TestSaveMonthlySnapshot(t *testing.T) {
	svc, db, node, fake := newTestService(t)
	ctx := context.Background()

	projectID := seedProject(t, db, node, projectdomain.ProjectStatusActive)
	seedFunding(t, db, node, projectID, "3000000", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 5))
	seedExpense(t, db, node, projectID, "1200000", expensedomain.PaymentStatusPaid, datePtr(2024, time.March, 11), nil)

	first, err := svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodTypeMonthly, first.PeriodType)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), first.PeriodStart)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), first.PeriodEnd)
	assert.True(t, first.TotalInflow.Equal(decimal.RequireFromString("3000000")))
	assert.True(t, first.TotalOutflow.Equal(decimal.RequireFromString("1200000")))
	assert.True(t, first.NetCashFlow.Equal(decimal.RequireFromString("1800000")))

	t.Run("RecomputeKeepsIdentity", func(t *testing.T) {
		// Late-arriving expense for the same month.
		seedExpense(t, db, node, projectID, "300000", expensedomain.PaymentStatusPaid, datePtr(2024, time.March, 28), nil)
		fake.Advance(time.Hour)

		second, err := svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.March)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.TotalOutflow.Equal(decimal.RequireFromString("1500000")))
		assert.True(t, second.NetCashFlow.Equal(decimal.RequireFromString("1500000")))
		assert.True(t, second.CalculatedAt.After(first.CalculatedAt))

		var count int64
		db.Raw(`SELECT COUNT(*) FROM project_cash_flow_snapshots WHERE project_id = ?`, projectID).Scan(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("EmptyMonthIsZeroRow", func(t *testing.T) {
		snapshot, err := svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.July)
		require.NoError(t, err)
		assert.True(t, snapshot.TotalInflow.IsZero())
		assert.True(t, snapshot.TotalOutflow.IsZero())
		assert.True(t, snapshot.NetCashFlow.IsZero())
	})

	t.Run("InvalidMonth", func(t *testing.T) {
		_, err := svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.Month(13))
		assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	})

	t.Run("UnknownProject", func(t *testing.T) {
		_, err := svc.SaveMonthlySnapshot(ctx, node.Generate().String(), 2024, time.March)
		assert.ErrorIs(t, err, projectdomain.ErrNotFound)
	})
}

func TestSaveWeeklySnapshot(t *testing.T) {
	svc, db, node, _ := newTestService(t)
	ctx := context.Background()

	projectID := seedProject(t, db, node, projectdomain.ProjectStatusActive)
	seedFunding(t, db, node, projectID, "500", fundingdomain.FundingStatusReceived, datePtr(2024, time.March, 6))

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	snapshot, err := svc.SaveWeeklySnapshot(ctx, projectID.String(), monday)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodTypeWeekly, snapshot.PeriodType)
	assert.Equal(t, monday, snapshot.PeriodStart)
	assert.Equal(t, monday.AddDate(0, 0, 7), snapshot.PeriodEnd)
	assert.True(t, snapshot.TotalInflow.Equal(decimal.RequireFromString("500")))

	t.Run("RejectsMisalignedStart", func(t *testing.T) {
		_, err := svc.SaveWeeklySnapshot(ctx, projectID.String(), monday.AddDate(0, 0, 2))
		assert.ErrorIs(t, err, domain.ErrInvalidWeekStart)
	})
}

func TestListSnapshots(t *testing.T) {
	svc, db, node, _ := newTestService(t)
	ctx := context.Background()

	projectID := seedProject(t, db, node, projectdomain.ProjectStatusActive)

	_, err := svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.February)
	require.NoError(t, err)
	_, err = svc.SaveMonthlySnapshot(ctx, projectID.String(), 2024, time.January)
	require.NoError(t, err)
	_, err = svc.SaveWeeklySnapshot(ctx, projectID.String(), time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	all, err := svc.ListSnapshots(ctx, projectID.String(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].PeriodStart.Before(all[i-1].PeriodStart))
	}

	monthly := domain.PeriodTypeMonthly
	filtered, err := svc.ListSnapshots(ctx, projectID.String(), &monthly)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), filtered[0].PeriodStart)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), filtered[1].PeriodStart)

	bad := domain.PeriodType("hourly")
	_, err = svc.ListSnapshots(ctx, projectID.String(), &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriodType)
}
