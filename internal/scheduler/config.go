package scheduler

import (
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// Config controls the tick rate and retention window. Job cadences
// themselves are fixed in UTC calendar windows and not configurable.
type Config struct {
	RunInterval time.Duration
	// RetentionYears is the snapshot retention window in calendar years.
	// Calendar arithmetic keeps the window exact across leap days, where a
	// fixed day count drifts by one.
	RetentionYears int
	// RetentionDays, when set, overrides RetentionYears with a day-based
	// window.
	RetentionDays int
	JobTimeout    time.Duration

	// EnabledJobs restricts the scheduler to the named jobs. Empty means
	// all jobs run (monolith mode).
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Minute,
		RetentionYears: 2,
		JobTimeout:     10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RetentionYears <= 0 {
		c.RetentionYears = defaults.RetentionYears
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// retentionCutoff resolves the delete-before boundary. A row whose period
// starts exactly at the cutoff is retained.
func (c Config) retentionCutoff(now time.Time) time.Time {
	if c.RetentionDays > 0 {
		return now.AddDate(0, 0, -c.RetentionDays)
	}
	return now.AddDate(-c.RetentionYears, 0, 0)
}
