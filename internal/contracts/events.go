// Package contracts defines the Kafka topics and event payloads exchanged with other services.
package contracts

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicPropertyEvents = "property.events"
	TopicUserEvents     = "user.events"
)

// Event types published on TopicBookingEvents.
const (
	BookingRequested = "booking.requested"
	BookingConfirmed = "booking.confirmed"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	BookingDeleted   = "booking.deleted"
)

// Event types consumed from the catalog and identity services.
const (
	PropertyUpserted = "property.upserted"
	PropertyDeleted  = "property.deleted"
	UserUpserted     = "user.upserted"
)

// EventSource is the CloudEvent source of everything this service publishes.
const EventSource = "service-booking"

// BookingRequestedEvent is published when a renter creates a booking.
type BookingRequestedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PropertyID      uuid.UUID `json:"property_id"`
	AgentID         uuid.UUID `json:"agent_id"`
	RenterID        uuid.UUID `json:"renter_id"`
	CheckInDate     string    `json:"check_in_date"`
	CheckOutDate    string    `json:"check_out_date"`
	Guests          int       `json:"guests"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on confirm, reject and cancel.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	RenterID   uuid.UUID `json:"renter_id"`
	Status     string    `json:"status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingDeletedEvent is published when an admin removes a booking.
type BookingDeletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	DeletedBy  uuid.UUID `json:"deleted_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PropertyUpsertedEvent carries the catalog fields bookings depend on.
type PropertyUpsertedEvent struct {
	PropertyID        uuid.UUID `json:"property_id"`
	AgentID           uuid.UUID `json:"agent_id"`
	Title             string    `json:"title"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	PropertyType      string    `json:"property_type"`
	Bedrooms          int       `json:"bedrooms"`
	MaxGuests         int       `json:"max_guests"`
	NightlyPriceCents int64     `json:"nightly_price_cents"`
	Available         bool      `json:"available"`
}

// PropertyDeletedEvent announces a listing removal.
type PropertyDeletedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
}

// UserUpsertedEvent carries the profile fields used for display names.
type UserUpsertedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}
