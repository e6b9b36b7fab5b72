package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SnapshotRepository interface {
	// Upsert inserts the snapshot or, when a row already exists for the
	// (project_id, period_type, period_start) key, replaces its numeric
	// fields and calculated_at in place.
	Upsert(ctx context.Context, db *gorm.DB, snapshot *Snapshot) error
	FindByKey(ctx context.Context, db *gorm.DB, projectID snowflake.ID, periodType PeriodType, periodStart time.Time) (*Snapshot, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID, periodType *PeriodType) ([]Snapshot, error)
	// DeleteBefore removes snapshots with period_start strictly older than
	// cutoff and reports how many rows went away.
	DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
	CountByPeriodType(ctx context.Context, db *gorm.DB) (map[PeriodType]int64, error)
}
