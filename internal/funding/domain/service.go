package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CreateFundingRequest struct {
	ProjectID       string
	CustomerID      string
	Amount          decimal.Decimal
	Currency        string
	FundingType     FundingType
	ExpectedDate    *time.Time
	ReferenceNumber string
	Description     string
}

type MarkReceivedRequest struct {
	ID           string
	ReceivedDate time.Time
	// Partial marks the record partially received instead of fully received.
	Partial bool
}

type Service interface {
	Create(ctx context.Context, req CreateFundingRequest) (FundingRecord, error)
	MarkReceived(ctx context.Context, req MarkReceivedRequest) (FundingRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]FundingRecord, error)
}
