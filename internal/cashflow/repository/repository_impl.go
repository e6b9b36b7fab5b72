package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/cashflow/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.SnapshotRepository {
	return &repo{}
}

const snapshotColumns = `id, project_id, period_type, period_start, period_end,
	total_inflow, total_outflow, net_cash_flow, calculated_at`

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, snapshot *domain.Snapshot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO project_cash_flow_snapshots (id, project_id, period_type, period_start, period_end,
			total_inflow, total_outflow, net_cash_flow, calculated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, period_type, period_start)
		 DO UPDATE SET period_end = EXCLUDED.period_end,
		               total_inflow = EXCLUDED.total_inflow,
		               total_outflow = EXCLUDED.total_outflow,
		               net_cash_flow = EXCLUDED.net_cash_flow,
		               calculated_at = EXCLUDED.calculated_at`,
		snapshot.ID,
		snapshot.ProjectID,
		snapshot.PeriodType,
		snapshot.PeriodStart,
		snapshot.PeriodEnd,
		snapshot.TotalInflow,
		snapshot.TotalOutflow,
		snapshot.NetCashFlow,
		snapshot.CalculatedAt,
	).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, projectID snowflake.ID, periodType domain.PeriodType, periodStart time.Time) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := db.WithContext(ctx).Raw(
		`SELECT `+snapshotColumns+`
		 FROM project_cash_flow_snapshots
		 WHERE project_id = ? AND period_type = ? AND period_start = ?`,
		projectID,
		periodType,
		periodStart,
	).Scan(&snapshot).Error
	if err != nil {
		return nil, err
	}
	if snapshot.ID == 0 {
		return nil, nil
	}
	return &snapshot, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID, periodType *domain.PeriodType) ([]domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		 FROM project_cash_flow_snapshots
		 WHERE project_id = ?`
	args := []any{projectID}
	if periodType != nil {
		query += ` AND period_type = ?`
		args = append(args, *periodType)
	}
	query += ` ORDER BY period_start ASC`

	var snapshots []domain.Snapshot
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *repo) DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM project_cash_flow_snapshots WHERE period_start < ?`,
		cutoff,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type periodTypeCountRow struct {
	PeriodType domain.PeriodType `gorm:"column:period_type"`
	Count      int64             `gorm:"column:count"`
}

func (r *repo) CountByPeriodType(ctx context.Context, db *gorm.DB) (map[domain.PeriodType]int64, error) {
	var rows []periodTypeCountRow
	err := db.WithContext(ctx).Raw(
		`SELECT period_type, COUNT(1) AS count
		 FROM project_cash_flow_snapshots
		 GROUP BY period_type`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.PeriodType]int64, len(rows))
	for _, row := range rows {
		counts[row.PeriodType] = row.Count
	}
	return counts, nil
}
