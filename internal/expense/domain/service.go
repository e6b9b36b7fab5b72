package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CreateExpenseRequest struct {
	ProjectID   string
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
	Currency    string
	ExpenseType string
	Category    string
	ExpenseDate *time.Time
}

type MarkPaidRequest struct {
	ID       string
	PaidDate time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateExpenseRequest) (ExpenseRecord, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (ExpenseRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]ExpenseRecord, error)
}
