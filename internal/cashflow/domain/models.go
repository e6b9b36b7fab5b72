package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PeriodType string

const (
	PeriodTypeMonthly PeriodType = "monthly"
	PeriodTypeWeekly  PeriodType = "weekly"
)

func (p PeriodType) Valid() bool {
	return p == PeriodTypeMonthly || p == PeriodTypeWeekly
}

// PeriodBucket is one calendar-aligned slice of a project's cash movement.
// PeriodEnd is exclusive. CumulativeNet is nil until the series has been
// annotated by CalculateCumulativeCashFlow.
type PeriodBucket struct {
	PeriodStart   time.Time        `json:"period_start"`
	PeriodEnd     time.Time        `json:"period_end"`
	Inflow        decimal.Decimal  `json:"inflow"`
	Outflow       decimal.Decimal  `json:"outflow"`
	Net           decimal.Decimal  `json:"net"`
	CumulativeNet *decimal.Decimal `json:"cumulative_net,omitempty"`
}

// Snapshot is a persisted aggregate for one project and one period. At most
// one row exists per (project_id, period_type, period_start); recomputation
// replaces the numeric fields and calculated_at but never the identity key.
type Snapshot struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	ProjectID    snowflake.ID    `gorm:"not null;uniqueIndex:ux_snapshot_key" json:"project_id"`
	PeriodType   PeriodType      `gorm:"not null;uniqueIndex:ux_snapshot_key" json:"period_type"`
	PeriodStart  time.Time       `gorm:"not null;uniqueIndex:ux_snapshot_key" json:"period_start"`
	PeriodEnd    time.Time       `gorm:"not null" json:"period_end"`
	TotalInflow  decimal.Decimal `gorm:"type:numeric;not null" json:"total_inflow"`
	TotalOutflow decimal.Decimal `gorm:"type:numeric;not null" json:"total_outflow"`
	NetCashFlow  decimal.Decimal `gorm:"type:numeric;not null" json:"net_cash_flow"`
	CalculatedAt time.Time       `gorm:"not null" json:"calculated_at"`
}

func (Snapshot) TableName() string { return "project_cash_flow_snapshots" }

var (
	ErrInvalidDateRange  = errors.New("invalid_date_range")
	ErrInvalidPeriodType = errors.New("invalid_period_type")
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrInvalidWeekStart  = errors.New("invalid_week_start")
)
