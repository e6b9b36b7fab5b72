package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/expense/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const expenseColumns = `id, project_id, amount, tax_amount, total_amount, currency, expense_type,
	category, status, payment_status, paid_date, expense_date, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ExpenseRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO expense_records (id, project_id, amount, tax_amount, total_amount, currency, expense_type,
			category, status, payment_status, paid_date, expense_date, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ProjectID,
		record.Amount,
		record.TaxAmount,
		record.TotalAmount,
		record.Currency,
		record.ExpenseType,
		record.Category,
		record.Status,
		record.PaymentStatus,
		record.PaidDate,
		record.ExpenseDate,
		record.Metadata,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ExpenseRecord, error) {
	var record domain.ExpenseRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+expenseColumns+` FROM expense_records WHERE id = ?`,
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

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.ExpenseRecord, error) {
	var records []domain.ExpenseRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+expenseColumns+` FROM expense_records
		 WHERE project_id = ?
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListPaidInRange(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to time.Time) ([]domain.ExpenseRecord, error) {
	var records []domain.ExpenseRecord
	err := db.WithContext(ctx).Raw(
		`SELECT `+expenseColumns+` FROM expense_records
		 WHERE project_id = ?
		   AND payment_status = ?
		   AND COALESCE(paid_date, expense_date) IS NOT NULL
		   AND COALESCE(paid_date, expense_date) >= ?
		   AND COALESCE(paid_date, expense_date) < ?
		 ORDER BY COALESCE(paid_date, expense_date) ASC, id ASC`,
		projectID,
		domain.PaymentStatusPaid,
		from,
		to,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidDate time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE expense_records
		 SET status = ?, payment_status = ?, paid_date = ?, updated_at = ?
		 WHERE id = ?`,
		domain.ExpenseStatusPaid,
		domain.PaymentStatusPaid,
		paidDate,
		now,
		id,
	).Error
}
