package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ExpenseRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ExpenseRecord, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]ExpenseRecord, error)
	// ListPaidInRange returns paid records whose effective date (paid_date,
	// else expense_date) falls within [from, to).
	ListPaidInRange(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to time.Time) ([]ExpenseRecord, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidDate time.Time, now time.Time) error
}
