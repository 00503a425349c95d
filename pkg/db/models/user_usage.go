package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/pkg/enums"
)

// UserUsage mirrors the capability tier for quota-limit lookups plus the
// per-user usage counters the dashboard reads. It is kept in sync with
// UserTier but tolerated to lag behind it.
type UserUsage struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CurrentTier    enums.CapabilityTier `gorm:"column:current_tier;not null;default:'free'"`
	RequestsUsed   int64                `gorm:"column:requests_used;not null;default:0"`
	TokensUsed     int64                `gorm:"column:tokens_used;not null;default:0"`
	PeriodStartsAt *time.Time           `gorm:"column:period_starts_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName fixes the legacy table name.
func (UserUsage) TableName() string {
	return "user_usage"
}
