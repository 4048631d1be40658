package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/contracts"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"go.uber.org/zap"
)

// CatalogService keeps the local property and profile read models in step with upstream events.
type CatalogService struct {
	properties property.Directory
	profiles   identity.ProfileDirectory
	cache      BookedDatesCache
	logger     *zap.Logger
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(
	properties property.Directory,
	profiles identity.ProfileDirectory,
	cache BookedDatesCache,
	logger *zap.Logger,
) *CatalogService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CatalogService{
		properties: properties,
		profiles:   profiles,
		cache:      cache,
		logger:     logger,
	}
}

// SyncProperty stores the latest snapshot of a listing. Existing bookings keep their price.
func (s *CatalogService) SyncProperty(ctx context.Context, evt contracts.PropertyUpsertedEvent) error {
	p, err := property.NewProperty(
		evt.PropertyID, evt.AgentID,
		evt.Title, evt.City, evt.Country, evt.PropertyType,
		evt.Bedrooms, evt.MaxGuests,
		evt.NightlyPriceCents,
		evt.Available,
	)
	if err != nil {
		return err
	}
	if err := s.properties.Upsert(ctx, p); err != nil {
		return err
	}

	s.logger.Debug("property snapshot updated",
		zap.String("property_id", p.ID().String()),
		zap.Bool("available", p.Available()),
	)
	return nil
}

// RemoveProperty drops a snapshot, which makes the property unbookable.
func (s *CatalogService) RemoveProperty(ctx context.Context, propertyID uuid.UUID) error {
	if err := s.properties.Delete(ctx, propertyID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, propertyID); err != nil {
		s.logger.Warn("failed to invalidate booked dates cache",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
	return nil
}

// SyncProfile stores the latest profile of a user. Unknown roles are kept blank.
func (s *CatalogService) SyncProfile(ctx context.Context, evt contracts.UserUpsertedEvent) error {
	role, err := identity.ParseRole(evt.Role)
	if err != nil {
		s.logger.Debug("user event with unknown role",
			zap.String("user_id", evt.UserID.String()),
			zap.String("role", evt.Role),
		)
	}
	return s.profiles.Upsert(ctx, identity.Profile{
		ID:        evt.UserID,
		FirstName: evt.FirstName,
		LastName:  evt.LastName,
		Role:      role,
	})
}
