package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ExpenseStatus string

const (
	ExpenseStatusDraft    ExpenseStatus = "draft"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusPaid     ExpenseStatus = "paid"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ExpenseRecord is a ledger entry for money spent on a project. TotalAmount
// is always Amount + TaxAmount; the intake service enforces the invariant.
// Outflow counts records with payment_status=paid, dated by paid_date with
// expense_date as fallback.
type ExpenseRecord struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProjectID     snowflake.ID      `gorm:"not null;index" json:"project_id"`
	Amount        decimal.Decimal   `gorm:"type:numeric;not null" json:"amount"`
	TaxAmount     decimal.Decimal   `gorm:"type:numeric;not null" json:"tax_amount"`
	TotalAmount   decimal.Decimal   `gorm:"type:numeric;not null" json:"total_amount"`
	Currency      string            `gorm:"not null" json:"currency"`
	ExpenseType   string            `json:"expense_type,omitempty"`
	Category      string            `json:"category,omitempty"`
	Status        ExpenseStatus     `gorm:"not null;index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"not null;index" json:"payment_status"`
	PaidDate      *time.Time        `json:"paid_date,omitempty"`
	ExpenseDate   *time.Time        `json:"expense_date,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// EffectiveDate resolves the outflow date: paid_date when set, else
// expense_date.
func (e ExpenseRecord) EffectiveDate() *time.Time {
	if e.PaidDate != nil {
		return e.PaidDate
	}
	return e.ExpenseDate
}

var (
	ErrNotFound        = errors.New("expense_record_not_found")
	ErrInvalidID       = errors.New("invalid_expense_record_id")
	ErrInvalidProject  = errors.New("invalid_project")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrMissingPaidDate = errors.New("missing_paid_date")
)
