package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	ListByStatus(ctx context.Context, db *gorm.DB, statuses []ProjectStatus) ([]Project, error)
	// ListForFinalization returns snapshot-eligible projects plus projects
	// that transitioned to completed within [windowStart, windowEnd), so a
	// finished project's last month is still captured.
	ListForFinalization(ctx context.Context, db *gorm.DB, windowStart, windowEnd time.Time) ([]Project, error)
}
