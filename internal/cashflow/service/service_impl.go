package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/cashflow/domain"
	"github.com/groundplan/groundplan/internal/clock"
	expensedomain "github.com/groundplan/groundplan/internal/expense/domain"
	fundingdomain "github.com/groundplan/groundplan/internal/funding/domain"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config controls realization policy for the calculator.
type Config struct {
	// IncludePartialFunding widens realized inflow to status=partial funding
	// records.
	IncludePartialFunding bool
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	SnapshotRepo domain.SnapshotRepository
	FundingRepo  fundingdomain.Repository
	ExpenseRepo  expensedomain.Repository
	ProjectRepo  projectdomain.Repository
	Config       Config `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	snapshotRepo domain.SnapshotRepository
	fundingRepo  fundingdomain.Repository
	expenseRepo  expensedomain.Repository
	projectRepo  projectdomain.Repository
	cfg          Config
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("cashflow.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		snapshotRepo: p.SnapshotRepo,
		fundingRepo:  p.FundingRepo,
		expenseRepo:  p.ExpenseRepo,
		projectRepo:  p.ProjectRepo,
		cfg:          p.Config,
	}
}

func (s *Service) CalculateProjectCashFlow(ctx context.Context, req domain.CalculateRequest) ([]domain.PeriodBucket, error) {
	if !req.PeriodType.Valid() {
		return nil, domain.ErrInvalidPeriodType
	}
	start := req.Start.UTC()
	end := req.End.UTC()
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	projectID, err := s.resolveProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	firstStart := domain.AlignPeriodStart(start, req.PeriodType)
	lastEnd := domain.NextPeriodStart(domain.AlignPeriodStart(end, req.PeriodType), req.PeriodType)

	inflows, outflows, err := s.loadRealizedTotals(ctx, projectID, firstStart, lastEnd, req.PeriodType)
	if err != nil {
		return nil, err
	}

	// Dense series: one bucket per period overlapping [start, end], zero
	// buckets included, in chronological order.
	var buckets []domain.PeriodBucket
	for periodStart := firstStart; !periodStart.After(end); periodStart = domain.NextPeriodStart(periodStart, req.PeriodType) {
		inflow := inflows[periodStart]
		outflow := outflows[periodStart]
		buckets = append(buckets, domain.PeriodBucket{
			PeriodStart: periodStart,
			PeriodEnd:   domain.NextPeriodStart(periodStart, req.PeriodType),
			Inflow:      inflow,
			Outflow:     outflow,
			Net:         inflow.Sub(outflow),
		})
	}
	return buckets, nil
}

func (s *Service) CalculateCumulativeCashFlow(buckets []domain.PeriodBucket, opening decimal.Decimal) []domain.PeriodBucket {
	annotated := make([]domain.PeriodBucket, len(buckets))
	running := opening
	for i, bucket := range buckets {
		running = running.Add(bucket.Net)
		cumulative := running
		bucket.CumulativeNet = &cumulative
		annotated[i] = bucket
	}
	return annotated
}

func (s *Service) SaveMonthlySnapshot(ctx context.Context, projectID string, year int, month time.Month) (domain.Snapshot, error) {
	if month < time.January || month > time.December || year <= 0 {
		return domain.Snapshot{}, domain.ErrInvalidMonth
	}
	periodStart := domain.MonthStart(year, month)
	return s.saveSnapshot(ctx, projectID, domain.PeriodTypeMonthly, periodStart)
}

func (s *Service) SaveWeeklySnapshot(ctx context.Context, projectID string, weekStart time.Time) (domain.Snapshot, error) {
	weekStart = weekStart.UTC()
	if weekStart.IsZero() || !weekStart.Equal(domain.AlignPeriodStart(weekStart, domain.PeriodTypeWeekly)) {
		return domain.Snapshot{}, domain.ErrInvalidWeekStart
	}
	return s.saveSnapshot(ctx, projectID, domain.PeriodTypeWeekly, weekStart)
}

// saveSnapshot is the full-recompute-and-replace path: it rereads the ledger
// for the whole period and upserts the single canonical row, so late-arriving
// records are folded in on the next call.
func (s *Service) saveSnapshot(ctx context.Context, projectID string, periodType domain.PeriodType, periodStart time.Time) (domain.Snapshot, error) {
	id, err := s.resolveProject(ctx, projectID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	periodEnd := domain.NextPeriodStart(periodStart, periodType)
	inflow, outflow, err := s.sumRealized(ctx, id, periodStart, periodEnd)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		ID:           s.genID.Generate(),
		ProjectID:    id,
		PeriodType:   periodType,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		TotalInflow:  inflow,
		TotalOutflow: outflow,
		NetCashFlow:  inflow.Sub(outflow),
		CalculatedAt: s.clock.Now(),
	}
	if err := s.snapshotRepo.Upsert(ctx, s.db, &snapshot); err != nil {
		return domain.Snapshot{}, err
	}

	// Reread so the caller sees the row's stable identity when the upsert
	// hit an existing key.
	stored, err := s.snapshotRepo.FindByKey(ctx, s.db, id, periodType, periodStart)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if stored == nil {
		return snapshot, nil
	}

	s.log.Info("cashflow.snapshot.saved",
		zap.String("project_id", id.String()),
		zap.String("period_type", string(periodType)),
		zap.Time("period_start", periodStart),
		zap.String("net", stored.NetCashFlow.String()),
	)
	return *stored, nil
}

func (s *Service) ListSnapshots(ctx context.Context, projectID string, periodType *domain.PeriodType) ([]domain.Snapshot, error) {
	if periodType != nil && !periodType.Valid() {
		return nil, domain.ErrInvalidPeriodType
	}
	id, err := s.resolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.snapshotRepo.ListByProject(ctx, s.db, id, periodType)
}

func (s *Service) resolveProject(ctx context.Context, projectID string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil || id == 0 {
		return 0, projectdomain.ErrInvalidID
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, projectdomain.ErrNotFound
	}
	return id, nil
}

// loadRealizedTotals buckets realized ledger rows by aligned period start.
// Sums stay in decimals end to end; no float arithmetic.
func (s *Service) loadRealizedTotals(ctx context.Context, projectID snowflake.ID, from, to time.Time, periodType domain.PeriodType) (map[time.Time]decimal.Decimal, map[time.Time]decimal.Decimal, error) {
	fundings, err := s.fundingRepo.ListRealizedInRange(ctx, s.db, projectID, from, to, s.cfg.IncludePartialFunding)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := s.expenseRepo.ListPaidInRange(ctx, s.db, projectID, from, to)
	if err != nil {
		return nil, nil, err
	}

	inflows := make(map[time.Time]decimal.Decimal)
	for _, record := range fundings {
		if record.ReceivedDate == nil {
			continue
		}
		key := domain.AlignPeriodStart(*record.ReceivedDate, periodType)
		inflows[key] = inflows[key].Add(record.Amount)
	}

	outflows := make(map[time.Time]decimal.Decimal)
	for _, record := range expenses {
		date := record.EffectiveDate()
		if date == nil {
			continue
		}
		key := domain.AlignPeriodStart(*date, periodType)
		outflows[key] = outflows[key].Add(record.TotalAmount)
	}
	return inflows, outflows, nil
}

func (s *Service) sumRealized(ctx context.Context, projectID snowflake.ID, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	fundings, err := s.fundingRepo.ListRealizedInRange(ctx, s.db, projectID, from, to, s.cfg.IncludePartialFunding)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	expenses, err := s.expenseRepo.ListPaidInRange(ctx, s.db, projectID, from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	inflow := decimal.Zero
	for _, record := range fundings {
		inflow = inflow.Add(record.Amount)
	}
	outflow := decimal.Zero
	for _, record := range expenses {
		outflow = outflow.Add(record.TotalAmount)
	}
	return inflow, outflow, nil
}
