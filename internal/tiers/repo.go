package tiers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classpilot/classpilot-backend/pkg/db/models"
)

// Repository handles tier and usage persistence.
type Repository interface {
	UpsertUserTier(ctx context.Context, tier *models.UserTier) error
	UpsertUserUsage(ctx context.Context, usage *models.UserUsage) error
	InsertSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error
	FindTierByUser(ctx context.Context, userID uuid.UUID) (*models.UserTier, error)
	FindUsageByUser(ctx context.Context, userID uuid.UUID) (*models.UserUsage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertUserTier overwrites the user's tier row keyed on user_id, keeping a
// single live row per user regardless of delivery order or retries.
func (r *repository) UpsertUserTier(ctx context.Context, tier *models.UserTier) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_tier", "capability_tier", "is_active", "assigned_reason", "metadata", "updated_at",
			}),
		}).
		Create(tier).Error
}

func (r *repository) UpsertUserUsage(ctx context.Context, usage *models.UserUsage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_tier", "updated_at"}),
		}).
		Create(usage).Error
}

func (r *repository) InsertSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) FindTierByUser(ctx context.Context, userID uuid.UUID) (*models.UserTier, error) {
	var tier models.UserTier
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&tier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) FindUsageByUser(ctx context.Context, userID uuid.UUID) (*models.UserUsage, error) {
	var usage models.UserUsage
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&usage).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}
