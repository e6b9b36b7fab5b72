package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/billing/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const customerColumns = `id, name, email, plan_id, billing_cycle, mrr, status,
	subscription_start_date, next_payment_date, trial_ends_at, created_at, updated_at`

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) ListForReconciliation(ctx context.Context, db *gorm.DB) ([]domain.ReconcileCandidate, error) {
	var candidates []domain.ReconcileCandidate
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.name, c.email, c.plan_id, c.billing_cycle, c.mrr, c.status,
			c.subscription_start_date, c.next_payment_date, c.trial_ends_at, c.created_at, c.updated_at,
			p.id IS NOT NULL AS has_plan,
			COALESCE(p.monthly_price, 0) AS plan_monthly_price,
			p.annual_price AS plan_annual_price
		 FROM customers c
		 LEFT JOIN plans p ON p.id = c.plan_id
		 WHERE (c.status IN ? AND c.plan_id IS NOT NULL)
		    OR (c.status NOT IN ? AND c.mrr <> 0)
		 ORDER BY c.id ASC`,
		[]domain.CustomerStatus{domain.CustomerStatusActive, domain.CustomerStatusTrial},
		[]domain.CustomerStatus{domain.CustomerStatusActive, domain.CustomerStatusTrial},
	).Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *repo) ListBillable(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT `+customerColumns+` FROM customers
		 WHERE status IN ?
		   AND subscription_start_date IS NOT NULL
		 ORDER BY id ASC`,
		[]domain.CustomerStatus{domain.CustomerStatusActive, domain.CustomerStatusTrial},
	).Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) UpdateMRR(ctx context.Context, db *gorm.DB, customerID snowflake.ID, mrr decimal.Decimal, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET mrr = ?, updated_at = ? WHERE id = ?`,
		mrr, now, customerID,
	).Error
}

func (r *repo) UpdateNextPaymentDate(ctx context.Context, db *gorm.DB, customerID snowflake.ID, next *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET next_payment_date = ?, updated_at = ? WHERE id = ?`,
		next, now, customerID,
	).Error
}

func (r *repo) InsertRevenueHistory(ctx context.Context, db *gorm.DB, entry *domain.RevenueHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO revenue_history (id, customer_id, previous_mrr, new_mrr, reason, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CustomerID,
		entry.PreviousMRR,
		entry.NewMRR,
		entry.Reason,
		entry.RecordedAt,
	).Error
}

func (r *repo) ListRevenueHistory(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.RevenueHistory, error) {
	var entries []domain.RevenueHistory
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, previous_mrr, new_mrr, reason, recorded_at
		 FROM revenue_history
		 WHERE customer_id = ?
		 ORDER BY recorded_at ASC, id ASC`,
		customerID,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
