package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a student registration row synced from the external school
// site. Rows are upserted by their external id on every sync cycle.
type Registration struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID     string     `gorm:"column:external_id;not null;uniqueIndex"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index"`
	StudentName    string     `gorm:"column:student_name;not null"`
	ParentEmail    string     `gorm:"column:parent_email;not null"`
	Grade          string     `gorm:"column:grade"`
	Status         string     `gorm:"column:status;not null;default:'pending'"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at"`
	SyncedAt       time.Time  `gorm:"column:synced_at;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Organization is a school tenant. Registrations join against it for the
// admin dashboard listing.
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
