package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ProjectStatus string

const (
	ProjectStatusPlanning     ProjectStatus = "planning"
	ProjectStatusActive       ProjectStatus = "active"
	ProjectStatusConstruction ProjectStatus = "construction"
	ProjectStatusCompleted    ProjectStatus = "completed"
	ProjectStatusOnHold       ProjectStatus = "on_hold"
	ProjectStatusArchived     ProjectStatus = "archived"
)

// Project is a construction/development project. A project is single-currency;
// every funding and expense record attached to it carries the same currency.
type Project struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"not null" json:"name"`
	Status      ProjectStatus     `gorm:"not null;index" json:"status"`
	Currency    string            `gorm:"not null" json:"currency"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusConstruction,
		ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound      = errors.New("project_not_found")
	ErrInvalidID     = errors.New("invalid_project_id")
	ErrInvalidStatus = errors.New("invalid_project_status")
)

// SnapshotEligibleStatuses are the statuses picked up by the daily snapshot
// refresh.
func SnapshotEligibleStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectStatusActive, ProjectStatusConstruction}
}
