package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/funding/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const fundingColumns = `id, project_id, customer_id, amount, currency, funding_type, status,
	expected_date, received_date, reference_number, description, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.FundingRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO funding_records (id, project_id, customer_id, amount, currency, funding_type, status,
			expected_date, received_date, reference_number, description, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ProjectID,
		record.CustomerID,
		record.Amount,
		record.Currency,
		record.FundingType,
		record.Status,
		record.ExpectedDate,
		record.ReceivedDate,
		record.ReferenceNumber,
		record.Description,
		record.Metadata,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FundingRecord, error) {
	var record domain.FundingRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+fundingColumns+` FROM funding_records WHERE id = ?`,
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.FundingRecord, error) {
	var records []domain.FundingRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+fundingColumns+` FROM funding_records
		 WHERE project_id = ?
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListRealizedInRange(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to time.Time, includePartial bool) ([]domain.FundingRecord, error) {
	statuses := []domain.FundingStatus{domain.FundingStatusReceived}
	if includePartial {
		statuses = append(statuses, domain.FundingStatusPartial)
	}

	var records []domain.FundingRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+fundingColumns+` FROM funding_records
		 WHERE project_id = ?
		   AND status IN ?
		   AND received_date IS NOT NULL
		   AND received_date >= ? AND received_date < ?
		 ORDER BY received_date ASC, id ASC`,
		projectID,
		statuses,
		from,
		to,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.FundingStatus, receivedDate *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE funding_records
		 SET status = ?, received_date = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		receivedDate,
		now,
		id,
	).Error
}
