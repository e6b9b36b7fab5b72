package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CalculateRequest struct {
	ProjectID  string
	Start      time.Time
	End        time.Time
	PeriodType PeriodType
}

type Service interface {
	// CalculateProjectCashFlow produces one bucket per calendar period
	// overlapping [Start, End], dense and chronologically ordered: periods
	// with no matching ledger rows still appear with zero totals.
	CalculateProjectCashFlow(ctx context.Context, req CalculateRequest) ([]PeriodBucket, error)

	// CalculateCumulativeCashFlow annotates buckets with a running net
	// total. The opening balance is explicit; pass decimal.Zero when the
	// series has no prior baseline.
	CalculateCumulativeCashFlow(buckets []PeriodBucket, opening decimal.Decimal) []PeriodBucket

	// SaveMonthlySnapshot recomputes the full (year, month) bucket from the
	// ledger and upserts the canonical snapshot row. Full recompute and
	// replace, never an incremental merge: calling it any number of times
	// converges to ledger truth at call time.
	SaveMonthlySnapshot(ctx context.Context, projectID string, year int, month time.Month) (Snapshot, error)

	// SaveWeeklySnapshot is the weekly counterpart; weekStart must be an
	// ISO Monday 00:00 UTC.
	SaveWeeklySnapshot(ctx context.Context, projectID string, weekStart time.Time) (Snapshot, error)

	ListSnapshots(ctx context.Context, projectID string, periodType *PeriodType) ([]Snapshot, error)
}
