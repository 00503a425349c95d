package registrations

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classpilot/classpilot-backend/pkg/db/models"
)

// RegistrationWithOrg is a registration row joined with the organization name
// for the admin listing.
type RegistrationWithOrg struct {
	models.Registration
	OrganizationName string `gorm:"column:organization_name"`
}

// Repository handles registration persistence.
type Repository interface {
	UpsertByExternalID(ctx context.Context, registration *models.Registration) error
	ListWithOrganization(ctx context.Context, limit int) ([]RegistrationWithOrg, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a registration repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertByExternalID keeps one row per external registration id. Re-synced
// rows overwrite mutable fields and refresh synced_at.
func (r *repository) UpsertByExternalID(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"organization_id", "student_name", "parent_email", "grade", "status",
				"submitted_at", "synced_at", "updated_at",
			}),
		}).
		Create(registration).Error
}

func (r *repository) ListWithOrganization(ctx context.Context, limit int) ([]RegistrationWithOrg, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []RegistrationWithOrg
	err := r.db.WithContext(ctx).
		Model(&models.Registration{}).
		Select("registrations.*, organizations.name AS organization_name").
		Joins("LEFT JOIN organizations ON organizations.id = registrations.organization_id").
		Order("registrations.submitted_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
