package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/clock"
	"github.com/groundplan/groundplan/internal/funding/domain"
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
		log:         p.Log.Named("funding.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateFundingRequest) (domain.FundingRecord, error) {
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return domain.FundingRecord{}, domain.ErrInvalidProject
	}
	if !req.FundingType.Valid() {
		return domain.FundingRecord{}, domain.ErrInvalidFundingType
	}
	if req.Amount.IsNegative() {
		return domain.FundingRecord{}, domain.ErrInvalidAmount
	}

	project, err := s.projectRepo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return domain.FundingRecord{}, err
	}
	if project == nil {
		return domain.FundingRecord{}, projectdomain.ErrNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = project.Currency
	}

	var customerID snowflake.ID
	if strings.TrimSpace(req.CustomerID) != "" {
		customerID, err = parseID(req.CustomerID)
		if err != nil {
			return domain.FundingRecord{}, domain.ErrInvalidID
		}
	}

	now := s.clock.Now()
	record := domain.FundingRecord{
		ID:              s.genID.Generate(),
		ProjectID:       projectID,
		CustomerID:      customerID,
		Amount:          req.Amount,
		Currency:        currency,
		FundingType:     req.FundingType,
		Status:          domain.FundingStatusPending,
		ExpectedDate:    req.ExpectedDate,
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		Description:     strings.TrimSpace(req.Description),
		Metadata:        datatypes.JSONMap{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.FundingRecord{}, err
	}

	s.log.Info("funding.created",
		zap.String("funding_id", record.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("funding_type", string(record.FundingType)),
	)
	return record, nil
}

func (s *Service) MarkReceived(ctx context.Context, req domain.MarkReceivedRequest) (domain.FundingRecord, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.FundingRecord{}, domain.ErrInvalidID
	}
	if req.ReceivedDate.IsZero() {
		return domain.FundingRecord{}, domain.ErrMissingReceiveDate
	}

	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.FundingRecord{}, err
	}
	if record == nil {
		return domain.FundingRecord{}, domain.ErrNotFound
	}
	if record.Status == domain.FundingStatusCancelled {
		return domain.FundingRecord{}, domain.ErrInvalidStatus
	}

	status := domain.FundingStatusReceived
	if req.Partial {
		status = domain.FundingStatusPartial
	}

	received := req.ReceivedDate.UTC()
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, id, status, &received, now); err != nil {
		return domain.FundingRecord{}, err
	}

	record.Status = status
	record.ReceivedDate = &received
	record.UpdatedAt = now
	return *record, nil
}

func (s *Service) ListByProject(ctx context.Context, projectID string) ([]domain.FundingRecord, error) {
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
