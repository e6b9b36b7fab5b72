package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/billing/domain"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mrrTolerance suppresses writes for sub-cent drift so reconciliation is a
// fixpoint: a run right after a successful one changes nothing.
var (
	mrrTolerance = decimal.NewFromFloat(0.0001)
	twelve       = decimal.NewFromInt(12)
)

const reasonReconciliation = "mrr_reconciliation"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("billing.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ReconcileAll(ctx context.Context) (domain.ReconcileSummary, error) {
	candidates, err := s.repo.ListForReconciliation(ctx, s.db)
	if err != nil {
		return domain.ReconcileSummary{}, err
	}

	var summary domain.ReconcileSummary
	var jobErr error
	now := s.clock.Now()

	for _, candidate := range candidates {
		summary.Processed++

		canonical := canonicalMRR(candidate)
		if candidate.MRR.Sub(canonical).Abs().LessThanOrEqual(mrrTolerance) {
			continue
		}

		if err := s.applyMRR(ctx, candidate, canonical, now); err != nil {
			summary.Errors++
			jobErr = errors.Join(jobErr, err)
			s.log.Error("billing.reconcile.customer.failed",
				zap.String("customer_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		summary.Updated++
	}

	s.log.Info("billing.reconcile.finished",
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("errors", summary.Errors),
	)
	return summary, jobErr
}

// applyMRR writes the corrected value and its audit entry atomically.
func (s *Service) applyMRR(ctx context.Context, candidate domain.ReconcileCandidate, canonical decimal.Decimal, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateMRR(ctx, tx, candidate.ID, canonical, now); err != nil {
			return err
		}
		return s.repo.InsertRevenueHistory(ctx, tx, &domain.RevenueHistory{
			ID:          s.genID.Generate(),
			CustomerID:  candidate.ID,
			PreviousMRR: candidate.MRR,
			NewMRR:      canonical,
			Reason:      reasonReconciliation,
			RecordedAt:  now,
		})
	})
}

// canonicalMRR derives the plan-based monthly recurring revenue. Annual
// billing divides the annual price by twelve, deriving it from the monthly
// price when the plan has no explicit annual price. Non-billable statuses
// always resolve to zero, which zeroes stale cached values.
func canonicalMRR(c domain.ReconcileCandidate) decimal.Decimal {
	if !c.Status.Billable() || !c.HasPlan {
		return decimal.Zero
	}
	if c.BillingCycle == domain.BillingCycleAnnual {
		annual := c.PlanMonthlyPrice.Mul(twelve)
		if c.PlanAnnualPrice != nil {
			annual = *c.PlanAnnualPrice
		}
		return annual.DivRound(twelve, 6)
	}
	return c.PlanMonthlyPrice
}

func (s *Service) RefreshPaymentDates(ctx context.Context) (domain.RefreshSummary, error) {
	customers, err := s.repo.ListBillable(ctx, s.db)
	if err != nil {
		return domain.RefreshSummary{}, err
	}

	var summary domain.RefreshSummary
	var jobErr error
	now := s.clock.Now()

	for _, customer := range customers {
		summary.Processed++

		next := domain.NextPaymentDate(customer.SubscriptionStartDate, string(customer.BillingCycle), customer.NextPaymentDate, now)
		if sameDate(customer.NextPaymentDate, next) {
			continue
		}

		if err := s.repo.UpdateNextPaymentDate(ctx, s.db, customer.ID, next, now); err != nil {
			summary.Errors++
			jobErr = errors.Join(jobErr, err)
			s.log.Error("billing.payment_dates.customer.failed",
				zap.String("customer_id", customer.ID.String()),
				zap.Error(err),
			)
			continue
		}
		summary.Updated++
	}

	s.log.Info("billing.payment_dates.finished",
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("errors", summary.Errors),
	)
	return summary, jobErr
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
