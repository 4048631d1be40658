package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
)

// Property is the local snapshot of a catalog listing, as far as bookings need it.
type Property struct {
	id                uuid.UUID
	agentID           uuid.UUID
	title             string
	city              string
	country           string
	propertyType      string
	bedrooms          int
	maxGuests         int
	nightlyPriceCents int64
	available         bool
	updatedAt         time.Time
}

// NewProperty creates a validated property snapshot.
func NewProperty(
	id, agentID uuid.UUID,
	title, city, country, propertyType string,
	bedrooms, maxGuests int,
	nightlyPriceCents int64,
	available bool,
) (*Property, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if agentID == uuid.Nil {
		return nil, domain.NewValidationError("agent ID is required")
	}
	if nightlyPriceCents <= 0 {
		return nil, domain.NewValidationError("nightly price must be positive")
	}
	if maxGuests < 1 {
		return nil, domain.NewValidationError("max guests must be at least 1")
	}

	return &Property{
		id:                id,
		agentID:           agentID,
		title:             title,
		city:              city,
		country:           country,
		propertyType:      propertyType,
		bedrooms:          bedrooms,
		maxGuests:         maxGuests,
		nightlyPriceCents: nightlyPriceCents,
		available:         available,
		updatedAt:         time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Property from persistence data (no validation).
func Reconstruct(
	id, agentID uuid.UUID,
	title, city, country, propertyType string,
	bedrooms, maxGuests int,
	nightlyPriceCents int64,
	available bool,
	updatedAt time.Time,
) *Property {
	return &Property{
		id:                id,
		agentID:           agentID,
		title:             title,
		city:              city,
		country:           country,
		propertyType:      propertyType,
		bedrooms:          bedrooms,
		maxGuests:         maxGuests,
		nightlyPriceCents: nightlyPriceCents,
		available:         available,
		updatedAt:         updatedAt,
	}
}

func (p *Property) ID() uuid.UUID            { return p.id }
func (p *Property) AgentID() uuid.UUID       { return p.agentID }
func (p *Property) Title() string            { return p.title }
func (p *Property) City() string             { return p.city }
func (p *Property) Country() string          { return p.country }
func (p *Property) Type() string             { return p.propertyType }
func (p *Property) Bedrooms() int            { return p.bedrooms }
func (p *Property) MaxGuests() int           { return p.maxGuests }
func (p *Property) NightlyPriceCents() int64 { return p.nightlyPriceCents }
func (p *Property) Available() bool          { return p.available }
func (p *Property) UpdatedAt() time.Time     { return p.updatedAt }

// IsManagedBy reports whether the given user is the agent listing this property.
func (p *Property) IsManagedBy(userID uuid.UUID) bool {
	return p.agentID == userID
}
