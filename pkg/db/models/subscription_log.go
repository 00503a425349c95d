package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/classpilot/classpilot-backend/pkg/enums"
)

// SubscriptionLog is the append-only audit trail of payment events. Retried
// webhook deliveries insert duplicate rows; this layer does not deduplicate
// on the gateway payment id.
type SubscriptionLog struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ProductTier   enums.ProductTier `gorm:"column:product_tier;not null"`
	AmountGross   decimal.Decimal   `gorm:"column:amount_gross;type:numeric(12,2);not null"`
	PaymentID     string            `gorm:"column:m_payment_id"`
	PfPaymentID   string            `gorm:"column:pf_payment_id;index"`
	PaymentStatus string            `gorm:"column:payment_status;not null"`
	Metadata      json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName fixes the legacy table name.
func (SubscriptionLog) TableName() string {
	return "subscription_logs"
}
