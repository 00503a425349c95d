package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot-backend/pkg/enums"
)

// UserTier persists the current subscription tier per user. One live row per
// user; payment events overwrite it wholesale (last-write-wins).
type UserTier struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ProductTier    enums.ProductTier    `gorm:"column:product_tier;not null;default:'free'"`
	CapabilityTier enums.CapabilityTier `gorm:"column:capability_tier;not null;default:'free'"`
	IsActive       bool                 `gorm:"column:is_active;not null;default:false"`
	AssignedReason string               `gorm:"column:assigned_reason"`
	Metadata       json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName fixes the legacy table name.
func (UserTier) TableName() string {
	return "user_tiers"
}
