package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/groundplan/groundplan/internal/expense/domain"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProjectRepo projectdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	projectRepo projectdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("expense.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateExpenseRequest) (domain.ExpenseRecord, error) {
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return domain.ExpenseRecord{}, domain.ErrInvalidProject
	}
	if req.Amount.IsNegative() || req.TaxAmount.IsNegative() {
		return domain.ExpenseRecord{}, domain.ErrInvalidAmount
	}

	project, err := s.projectRepo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return domain.ExpenseRecord{}, err
	}
	if project == nil {
		return domain.ExpenseRecord{}, projectdomain.ErrNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = project.Currency
	}

	now := s.clock.Now()
	record := domain.ExpenseRecord{
		ID:            s.genID.Generate(),
		ProjectID:     projectID,
		Amount:        req.Amount,
		TaxAmount:     req.TaxAmount,
		TotalAmount:   req.Amount.Add(req.TaxAmount),
		Currency:      currency,
		ExpenseType:   strings.TrimSpace(req.ExpenseType),
		Category:      strings.TrimSpace(req.Category),
		Status:        domain.ExpenseStatusDraft,
		PaymentStatus: domain.PaymentStatusUnpaid,
		ExpenseDate:   req.ExpenseDate,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.ExpenseRecord{}, err
	}

	s.log.Info("expense.created",
		zap.String("expense_id", record.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("category", record.Category),
	)
	return record, nil
}

func (s *Service) MarkPaid(ctx context.Context, req domain.MarkPaidRequest) (domain.ExpenseRecord, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.ExpenseRecord{}, domain.ErrInvalidID
	}
	if req.PaidDate.IsZero() {
		return domain.ExpenseRecord{}, domain.ErrMissingPaidDate
	}

	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ExpenseRecord{}, err
	}
	if record == nil {
		return domain.ExpenseRecord{}, domain.ErrNotFound
	}

	paid := req.PaidDate.UTC()
	now := s.clock.Now()
	if err := s.repo.MarkPaid(ctx, s.db, id, paid, now); err != nil {
		return domain.ExpenseRecord{}, err
	}

	record.Status = domain.ExpenseStatusPaid
	record.PaymentStatus = domain.PaymentStatusPaid
	record.PaidDate = &paid
	record.UpdatedAt = now
	return *record, nil
}

func (s *Service) ListByProject(ctx context.Context, projectID string) ([]domain.ExpenseRecord, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, domain.ErrInvalidProject
	}
	return s.repo.ListByProject(ctx, s.db, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
