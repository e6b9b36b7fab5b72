package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	FindCustomer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)

	// ListForReconciliation returns every customer whose cached mrr may
	// need correction: billable customers with a plan, plus non-billable
	// customers still carrying a nonzero cached value.
	ListForReconciliation(ctx context.Context, db *gorm.DB) ([]ReconcileCandidate, error)

	// ListBillable returns active/trial customers with a subscription
	// start date, the population for the payment-date refresh.
	ListBillable(ctx context.Context, db *gorm.DB) ([]Customer, error)

	UpdateMRR(ctx context.Context, db *gorm.DB, customerID snowflake.ID, mrr decimal.Decimal, now time.Time) error
	UpdateNextPaymentDate(ctx context.Context, db *gorm.DB, customerID snowflake.ID, next *time.Time, now time.Time) error

	InsertRevenueHistory(ctx context.Context, db *gorm.DB, entry *RevenueHistory) error
	ListRevenueHistory(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]RevenueHistory, error)
}
