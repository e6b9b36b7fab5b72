package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *FundingRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FundingRecord, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]FundingRecord, error)
	// ListRealizedInRange returns records counting toward inflow with a
	// received_date in [from, to). includePartial widens the realized set to
	// status=partial.
	ListRealizedInRange(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to time.Time, includePartial bool) ([]FundingRecord, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status FundingStatus, receivedDate *time.Time, now time.Time) error
}
