package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type FundingType string

const (
	FundingTypeClientPayment    FundingType = "client_payment"
	FundingTypeBankLoan         FundingType = "bank_loan"
	FundingTypeEquityInvestment FundingType = "equity_investment"
	FundingTypeGrant            FundingType = "grant"
	FundingTypeInternalBudget   FundingType = "internal_budget"
	FundingTypeAdvancePayment   FundingType = "advance_payment"
)

func (t FundingType) Valid() bool {
	switch t {
	case FundingTypeClientPayment, FundingTypeBankLoan, FundingTypeEquityInvestment,
		FundingTypeGrant, FundingTypeInternalBudget, FundingTypeAdvancePayment:
		return true
	default:
		return false
	}
}

type FundingStatus string

const (
	FundingStatusPending   FundingStatus = "pending"
	FundingStatusReceived  FundingStatus = "received"
	FundingStatusPartial   FundingStatus = "partial"
	FundingStatusCancelled FundingStatus = "cancelled"
)

// FundingRecord is a ledger entry for money received or expected for a
// project. Only received (optionally partial) records with a received_date
// count toward cash inflow.
type FundingRecord struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProjectID       snowflake.ID      `gorm:"not null;index" json:"project_id"`
	CustomerID      snowflake.ID      `gorm:"index" json:"customer_id,omitempty"`
	Amount          decimal.Decimal   `gorm:"type:numeric;not null" json:"amount"`
	Currency        string            `gorm:"not null" json:"currency"`
	FundingType     FundingType       `gorm:"not null" json:"funding_type"`
	Status          FundingStatus     `gorm:"not null;index" json:"status"`
	ExpectedDate    *time.Time        `json:"expected_date,omitempty"`
	ReceivedDate    *time.Time        `json:"received_date,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

var (
	ErrNotFound           = errors.New("funding_record_not_found")
	ErrInvalidID          = errors.New("invalid_funding_record_id")
	ErrInvalidProject     = errors.New("invalid_project")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidFundingType = errors.New("invalid_funding_type")
	ErrInvalidStatus      = errors.New("invalid_status_transition")
	ErrMissingReceiveDate = errors.New("missing_received_date")
)
