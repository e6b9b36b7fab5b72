package scheduler

import (
	"context"
	"time"

	cashflowdomain "github.com/groundplan/groundplan/internal/cashflow/domain"
)

type jobCadence string

const (
	cadenceDaily   jobCadence = "daily"
	cadenceWeekly  jobCadence = "weekly"
	cadenceMonthly jobCadence = "monthly"
)

// staleClaimAfter bounds the overlap guard: an unfinished claim older than
// this is treated as abandoned (crashed process) and can be reclaimed.
const staleClaimAfter = time.Hour

// JobCheckpoint is the persisted per-job run record. One row per job name;
// it survives restarts, so cadence windows are honored across process
// lifetimes.
type JobCheckpoint struct {
	JobName        string     `gorm:"primaryKey;column:job_name"`
	RunID          string     `gorm:"not null"`
	StartedAt      time.Time  `gorm:"not null"`
	FinishedAt     *time.Time `gorm:""`
	ProcessedCount int        `gorm:"not null"`
	ErrorCount     int        `gorm:"not null"`
}

func (JobCheckpoint) TableName() string { return "scheduler_job_runs" }

// windowStart returns the first instant of the cadence window containing
// now, in UTC. Daily windows open at midnight, weekly at ISO Monday,
// monthly at the 1st.
func windowStart(now time.Time, cadence jobCadence) time.Time {
	now = now.UTC()
	switch cadence {
	case cadenceWeekly:
		return cashflowdomain.AlignPeriodStart(now, cashflowdomain.PeriodTypeWeekly)
	case cadenceMonthly:
		return cashflowdomain.AlignPeriodStart(now, cashflowdomain.PeriodTypeMonthly)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// claimJob decides whether the named job is due in the current cadence
// window and, if so, records the claim. A finished run inside the window
// means not due; an unfinished recent run means another claim owns it.
func (s *Scheduler) claimJob(ctx context.Context, job string, cadence jobCadence, runID string) (bool, error) {
	now := s.clock.Now()
	window := windowStart(now, cadence)

	var checkpoint JobCheckpoint
	err := s.db.WithContext(ctx).Raw(
		`SELECT job_name, run_id, started_at, finished_at, processed_count, error_count
		 FROM scheduler_job_runs WHERE job_name = ?`,
		job,
	).Scan(&checkpoint).Error
	if err != nil {
		return false, err
	}

	if checkpoint.JobName != "" && !checkpoint.StartedAt.Before(window) {
		if checkpoint.FinishedAt != nil {
			return false, nil
		}
		if now.Sub(checkpoint.StartedAt) < staleClaimAfter {
			return false, nil
		}
	}

	// Guarded upsert: the WHERE clause rejects the claim when a live run
	// slipped in between the read and the write.
	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO scheduler_job_runs (job_name, run_id, started_at, finished_at, processed_count, error_count)
		 VALUES (?, ?, ?, NULL, 0, 0)
		 ON CONFLICT (job_name) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			started_at = EXCLUDED.started_at,
			finished_at = NULL,
			processed_count = 0,
			error_count = 0
		 WHERE scheduler_job_runs.finished_at IS NOT NULL
			OR scheduler_job_runs.started_at < ?`,
		job, runID, now, now.Add(-staleClaimAfter),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Scheduler) finishJob(ctx context.Context, run *jobRun) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE scheduler_job_runs
		 SET finished_at = ?, processed_count = ?, error_count = ?
		 WHERE job_name = ? AND run_id = ?`,
		s.clock.Now(), run.processedCount, run.errorCount, run.job, run.runID,
	).Error
}
