package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileModel is the GORM model for the user_profiles table.
type ProfileModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"size:100"`
	LastName  string    `gorm:"size:100"`
	Role      string    `gorm:"size:20"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ProfileModel) TableName() string {
	return "user_profiles"
}

// GormProfileRepository implements identity.ProfileDirectory.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByIDs returns the profiles that exist among ids.
func (r *GormProfileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]identity.Profile, error) {
	result := make(map[uuid.UUID]identity.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []ProfileModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}
	for _, m := range models {
		result[m.ID] = identity.Profile{
			ID:        m.ID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Role:      identity.Role(m.Role),
		}
	}
	return result, nil
}

// Upsert inserts or replaces a profile.
func (r *GormProfileRepository) Upsert(ctx context.Context, profile identity.Profile) error {
	model := &ProfileModel{
		ID:        profile.ID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Role:      string(profile.Role),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

var _ identity.ProfileDirectory = (*GormProfileRepository)(nil)
