package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics exposes counters and histograms for background jobs.
type SchedulerMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	jobSkips     *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	itemsHandled *prometheus.CounterVec
}

var (
	schedulerOnce sync.Once
	schedulerInst *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics, registering them on
// first use.
func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		schedulerInst = newSchedulerMetrics(prometheus.DefaultRegisterer)
	})
	return schedulerInst
}

func newSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	factory := promauto.With(reg)
	return &SchedulerMetrics{
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groundplan_scheduler_job_runs_total",
			Help: "Number of scheduler job runs started.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groundplan_scheduler_job_errors_total",
			Help: "Number of item-level errors inside scheduler jobs.",
		}, []string{"job"}),
		jobSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groundplan_scheduler_job_skips_total",
			Help: "Number of job runs skipped because a run was in flight or not due.",
		}, []string{"job", "reason"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groundplan_scheduler_job_duration_seconds",
			Help:    "Wall-clock duration of scheduler job runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		itemsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groundplan_scheduler_items_processed_total",
			Help: "Number of items processed by scheduler jobs.",
		}, []string{"job"}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobSkip(job, reason string) {
	m.jobSkips.WithLabelValues(job, reason).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) AddItemsProcessed(job string, count int) {
	if count <= 0 {
		return
	}
	m.itemsHandled.WithLabelValues(job).Add(float64(count))
}
