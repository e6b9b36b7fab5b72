package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/groundplan/groundplan/internal/billing/domain"
	cashflowdomain "github.com/groundplan/groundplan/internal/cashflow/domain"
	"github.com/groundplan/groundplan/internal/clock"
	obsmetrics "github.com/groundplan/groundplan/internal/observability/metrics"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	CashFlowSvc  cashflowdomain.Service
	BillingSvc   billingdomain.Service
	ProjectRepo  projectdomain.Repository
	SnapshotRepo cashflowdomain.SnapshotRepository
	Config       Config `optional:"true"`
}

type Scheduler struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          Config
	genID        *snowflake.Node
	clock        clock.Clock
	cashflowSvc  cashflowdomain.Service
	billingSvc   billingdomain.Service
	projectRepo  projectdomain.Repository
	snapshotRepo cashflowdomain.SnapshotRepository
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil ||
		p.CashFlowSvc == nil || p.BillingSvc == nil || p.ProjectRepo == nil || p.SnapshotRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:           p.DB,
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		genID:        p.GenID,
		clock:        p.Clock,
		cashflowSvc:  p.CashFlowSvc,
		billingSvc:   p.BillingSvc,
		projectRepo:  p.ProjectRepo,
		snapshotRepo: p.SnapshotRepo,
	}, nil
}

// runJob claims the cadence window, executes fn with a timeout, records
// metrics and the persisted checkpoint. A job that is not due is a skip,
// not an error.
func (s *Scheduler) runJob(parent context.Context, name string, cadence jobCadence, fn func(ctx context.Context, run *jobRun) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run := s.newJobRun(ctx, name)
	schedMetrics := obsmetrics.Scheduler()

	claimed, err := s.claimJob(ctx, name, cadence, run.runID)
	if err != nil {
		schedMetrics.IncJobError(name)
		return fmt.Errorf("%s: claim: %w", name, err)
	}
	if !claimed {
		schedMetrics.IncJobSkip(name, "not_due")
		return nil
	}

	s.logJobStart(ctx, run)
	schedMetrics.IncJobRun(name)

	err = fn(ctx, run)

	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(run.startedAt))
	schedMetrics.AddItemsProcessed(name, run.processedCount)
	if err != nil && run.errorCount == 0 {
		run.IncError()
	}
	s.logJobFinish(ctx, run)

	if finishErr := s.finishJob(ctx, run); finishErr != nil {
		s.logger(ctx).Warn("scheduler.checkpoint.finish.failed",
			zap.String("job", name),
			zap.Error(finishErr),
		)
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobError(name)
		s.logger(ctx).Warn("scheduler.job.timeout",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job that is due right now. Exported for
// tests and on-demand operational runs.
func (s *Scheduler) RunOnce(parent context.Context) error {
	jobs := []struct {
		Name    string
		Cadence jobCadence
		Run     func(context.Context, *jobRun) error
	}{
		{"daily_snapshots", cadenceDaily, s.dailySnapshotsJob},
		{"monthly_finalization", cadenceMonthly, s.monthlyFinalizationJob},
		{"snapshot_cleanup", cadenceWeekly, s.snapshotCleanupJob},
		{"mrr_reconcile", cadenceDaily, s.mrrReconcileJob},
	}

	var err error
	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Cadence, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs enables everything (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// dailySnapshotsJob recomputes the current-to-date monthly snapshot for
// every snapshot-eligible project, using yesterday's calendar month so a
// run just past midnight on the 1st still finalizes the month that the
// data belongs to.
func (s *Scheduler) dailySnapshotsJob(ctx context.Context, run *jobRun) error {
	yesterday := s.clock.Now().AddDate(0, 0, -1)

	projects, err := s.projectRepo.ListByStatus(ctx, s.db, projectdomain.SnapshotEligibleStatuses())
	if err != nil {
		return err
	}
	return s.snapshotEach(ctx, run, projects, yesterday.Year(), yesterday.Month())
}

// monthlyFinalizationJob recomputes the previous month for eligible
// projects plus projects completed during that month, catching ledger rows
// that arrived after the month rolled over.
func (s *Scheduler) monthlyFinalizationJob(ctx context.Context, run *jobRun) error {
	now := s.clock.Now()
	thisMonth := cashflowdomain.AlignPeriodStart(now, cashflowdomain.PeriodTypeMonthly)
	prevMonth := thisMonth.AddDate(0, -1, 0)

	projects, err := s.projectRepo.ListForFinalization(ctx, s.db, prevMonth, thisMonth)
	if err != nil {
		return err
	}
	return s.snapshotEach(ctx, run, projects, prevMonth.Year(), prevMonth.Month())
}

func (s *Scheduler) snapshotEach(ctx context.Context, run *jobRun, projects []projectdomain.Project, year int, month time.Month) error {
	var jobErr error
	for _, project := range projects {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if _, err := s.cashflowSvc.SaveMonthlySnapshot(ctx, project.ID.String(), year, month); err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logJobError(ctx, run, "scheduler.snapshot.failed", project.ID, err,
				zap.Int("year", year),
				zap.String("month", month.String()),
			)
			continue
		}
		run.AddProcessed(1)
	}
	return jobErr
}

// snapshotCleanupJob prunes snapshots whose period started strictly before
// the retention cutoff. A row at exactly the cutoff is retained.
func (s *Scheduler) snapshotCleanupJob(ctx context.Context, run *jobRun) error {
	cutoff := s.cfg.retentionCutoff(s.clock.Now())

	deleted, err := s.snapshotRepo.DeleteBefore(ctx, s.db, cutoff)
	if err != nil {
		return err
	}
	run.AddProcessed(int(deleted))

	counts, err := s.snapshotRepo.CountByPeriodType(ctx, s.db)
	if err != nil {
		return err
	}
	s.logger(ctx).Info("scheduler.cleanup.finished",
		zap.String("job", run.job),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
		zap.Int64("monthly_remaining", counts[cashflowdomain.PeriodTypeMonthly]),
		zap.Int64("weekly_remaining", counts[cashflowdomain.PeriodTypeWeekly]),
	)
	return nil
}

// mrrReconcileJob runs the revenue reconciliation pass, then the payment
// date refresh. The second pass runs even when the first reports partial
// failures.
func (s *Scheduler) mrrReconcileJob(ctx context.Context, run *jobRun) error {
	reconcile, reconcileErr := s.billingSvc.ReconcileAll(ctx)
	run.AddProcessed(reconcile.Processed)
	for i := 0; i < reconcile.Errors; i++ {
		run.IncError()
	}

	refresh, refreshErr := s.billingSvc.RefreshPaymentDates(ctx)
	run.AddProcessed(refresh.Processed)
	for i := 0; i < refresh.Errors; i++ {
		run.IncError()
	}

	return errors.Join(reconcileErr, refreshErr)
}
