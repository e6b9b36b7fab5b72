package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusTrial     CustomerStatus = "trial"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusCancelled CustomerStatus = "cancelled"
)

// Billable reports whether the status contributes recurring revenue.
func (s CustomerStatus) Billable() bool {
	return s == CustomerStatusActive || s == CustomerStatusTrial
}

// Customer carries a cached mrr column. The reconciler converges it toward
// the canonical plan-derived value; reads must treat it as eventually
// consistent.
type Customer struct {
	ID                    snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name                  string          `gorm:"not null" json:"name"`
	Email                 string          `gorm:"not null" json:"email"`
	PlanID                *snowflake.ID   `gorm:"index" json:"plan_id,omitempty"`
	BillingCycle          BillingCycle    `gorm:"not null" json:"billing_cycle"`
	MRR                   decimal.Decimal `gorm:"column:mrr;type:numeric;not null" json:"mrr"`
	Status                CustomerStatus  `gorm:"not null;index" json:"status"`
	SubscriptionStartDate *time.Time      `json:"subscription_start_date,omitempty"`
	NextPaymentDate       *time.Time      `json:"next_payment_date,omitempty"`
	TrialEndsAt           *time.Time      `json:"trial_ends_at,omitempty"`
	CreatedAt             time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updated_at"`
}

type Plan struct {
	ID           snowflake.ID     `gorm:"primaryKey" json:"id"`
	Code         string           `gorm:"uniqueIndex;not null" json:"code"`
	Name         string           `gorm:"not null" json:"name"`
	MonthlyPrice decimal.Decimal  `gorm:"type:numeric;not null" json:"monthly_price"`
	AnnualPrice  *decimal.Decimal `gorm:"type:numeric" json:"annual_price,omitempty"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null" json:"updated_at"`
}

// RevenueHistory is an append-only audit trail of mrr corrections.
type RevenueHistory struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PreviousMRR decimal.Decimal `gorm:"column:previous_mrr;type:numeric;not null" json:"previous_mrr"`
	NewMRR      decimal.Decimal `gorm:"column:new_mrr;type:numeric;not null" json:"new_mrr"`
	Reason      string          `gorm:"not null" json:"reason"`
	RecordedAt  time.Time       `gorm:"not null" json:"recorded_at"`
}

func (RevenueHistory) TableName() string { return "revenue_history" }

// ReconcileCandidate is a customer row joined with its plan prices. HasPlan
// distinguishes a missing plan from a zero-priced one.
type ReconcileCandidate struct {
	Customer
	HasPlan          bool             `gorm:"column:has_plan"`
	PlanMonthlyPrice decimal.Decimal  `gorm:"column:plan_monthly_price;type:numeric"`
	PlanAnnualPrice  *decimal.Decimal `gorm:"column:plan_annual_price;type:numeric"`
}

var (
	ErrNotFound  = errors.New("customer_not_found")
	ErrInvalidID = errors.New("invalid_customer_id")
)
