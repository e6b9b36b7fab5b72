package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/groundplan/groundplan/internal/project/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (id, name, status, currency, completed_at, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.Status,
		project.Currency,
		project.CompletedAt,
		project.Metadata,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, status, currency, completed_at, metadata, created_at, updated_at
		 FROM projects WHERE id = ?`,
		id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, statuses []domain.ProjectStatus) ([]domain.Project, error) {
	var projects []domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, status, currency, completed_at, metadata, created_at, updated_at
		 FROM projects
		 WHERE status IN ?
		 ORDER BY id`,
		statuses,
	).Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) ListForFinalization(ctx context.Context, db *gorm.DB, windowStart, windowEnd time.Time) ([]domain.Project, error) {
	var projects []domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, status, currency, completed_at, metadata, created_at, updated_at
		 FROM projects
		 WHERE status IN ?
		    OR (status = ? AND completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ?)
		 ORDER BY id`,
		domain.SnapshotEligibleStatuses(),
		domain.ProjectStatusCompleted,
		windowStart,
		windowEnd,
	).Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}
