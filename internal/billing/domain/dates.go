package domain

import (
	"strings"
	"time"
)

// NextPaymentDate resolves a customer's next payment date at the instant now.
//
// Rules, in order:
//   - nil subscription start yields nil; the customer has no billing anchor.
//   - a current date strictly after now is kept as-is, so rescheduling is
//     stable across repeated evaluations.
//   - otherwise the date advances from the subscription start in whole
//     cycle steps (one month, or one year for annual/yearly) until it is
//     strictly after now. A start exactly equal to now still advances one
//     step; the result is always in the future.
//
// Unrecognized cycle values fall back to monthly.
func NextPaymentDate(start *time.Time, cycle string, current *time.Time, now time.Time) *time.Time {
	if start == nil {
		return nil
	}
	if current != nil && current.After(now) {
		return current
	}

	addStep := func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "annual", "yearly":
		addStep = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	}

	next := start.UTC()
	for !next.After(now) {
		next = addStep(next)
	}
	return &next
}
