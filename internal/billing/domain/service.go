package domain

import "context"

// ReconcileSummary aggregates one reconciliation pass. Errors counts
// customers skipped by a failure; the pass itself keeps going.
type ReconcileSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

type RefreshSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

type Service interface {
	// ReconcileAll converges every customer's cached mrr to the canonical
	// plan-derived value. A second run immediately after a successful one
	// performs zero writes.
	ReconcileAll(ctx context.Context) (ReconcileSummary, error)

	// RefreshPaymentDates recomputes next_payment_date for billable
	// customers whose stored date is missing or no longer in the future.
	RefreshPaymentDates(ctx context.Context) (RefreshSummary, error)
}
