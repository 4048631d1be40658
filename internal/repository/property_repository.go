package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyModel is the GORM model for the property_snapshots table.
type PropertyModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	AgentID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"not null;size:200"`
	City              string    `gorm:"not null;size:100;index"`
	Country           string    `gorm:"size:100"`
	PropertyType      string    `gorm:"size:30"`
	Bedrooms          int       `gorm:"not null;default:0"`
	MaxGuests         int       `gorm:"not null;default:1"`
	NightlyPriceCents int64     `gorm:"not null"`
	Available         bool      `gorm:"not null;default:true"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PropertyModel) TableName() string {
	return "property_snapshots"
}

// GormPropertyRepository implements property.Directory over the local snapshot table.
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository.
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID retrieves a property snapshot by ID.
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the property row, serializing booking creation per property.
func (r *GormPropertyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPropertyRepository) findOne(db *gorm.DB, id uuid.UUID) (*property.Property, error) {
	var model PropertyModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Property", id.String())
		}
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	return toDomainProperty(&model), nil
}

// FindByIDs returns the snapshots that exist among ids.
func (r *GormPropertyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*property.Property, error) {
	result := make(map[uuid.UUID]*property.Property, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []PropertyModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	for i := range models {
		result[models[i].ID] = toDomainProperty(&models[i])
	}
	return result, nil
}

// Search returns available properties matching the filter, cheapest first.
func (r *GormPropertyRepository) Search(ctx context.Context, filter property.SearchFilter, page, limit int) ([]*property.Property, int64, error) {
	query := r.db.WithContext(ctx).Model(&PropertyModel{}).Where("available = ?", true)
	if filter.City != nil {
		query = query.Where("city ILIKE ?", "%"+escapeLike(*filter.City)+"%")
	}
	if filter.Type != nil {
		query = query.Where("UPPER(property_type) = UPPER(?)", *filter.Type)
	}
	if filter.MinPrice != nil {
		query = query.Where("nightly_price_cents >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("nightly_price_cents <= ?", *filter.MaxPrice)
	}
	if filter.MinBedrooms != nil {
		query = query.Where("bedrooms >= ?", *filter.MinBedrooms)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	var models []PropertyModel
	if err := query.Session(&gorm.Session{}).
		Order("nightly_price_cents ASC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search properties: %w", err)
	}

	props := make([]*property.Property, len(models))
	for i := range models {
		props[i] = toDomainProperty(&models[i])
	}
	return props, total, nil
}

// IsAgentOf reports whether agentID lists the property.
func (r *GormPropertyRepository) IsAgentOf(ctx context.Context, propertyID, agentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&PropertyModel{}).
		Where("id = ? AND agent_id = ?", propertyID, agentID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check property agent: %w", err)
	}
	return count > 0, nil
}

// Upsert inserts or replaces a snapshot.
func (r *GormPropertyRepository) Upsert(ctx context.Context, p *property.Property) error {
	model := toPropertyModel(p)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert property: %w", err)
	}
	return nil
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (r *GormPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&PropertyModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return nil
}

func toPropertyModel(p *property.Property) *PropertyModel {
	return &PropertyModel{
		ID:                p.ID(),
		AgentID:           p.AgentID(),
		Title:             p.Title(),
		City:              p.City(),
		Country:           p.Country(),
		PropertyType:      p.Type(),
		Bedrooms:          p.Bedrooms(),
		MaxGuests:         p.MaxGuests(),
		NightlyPriceCents: p.NightlyPriceCents(),
		Available:         p.Available(),
		UpdatedAt:         p.UpdatedAt(),
	}
}

func toDomainProperty(m *PropertyModel) *property.Property {
	return property.Reconstruct(
		m.ID, m.AgentID,
		m.Title, m.City, m.Country, m.PropertyType,
		m.Bedrooms, m.MaxGuests,
		m.NightlyPriceCents,
		m.Available,
		m.UpdatedAt,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
