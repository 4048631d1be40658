package booking

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
)

// maxSpecialRequestsLen is counted in characters, matching the VARCHAR(2000) column.
const maxSpecialRequestsLen = 2000

// Booking is the aggregate root for the booking domain.
// Everything except status is fixed at creation.
type Booking struct {
	id              uuid.UUID
	propertyID      uuid.UUID
	renterID        uuid.UUID
	stay            Stay
	guests          int
	totalPriceCents int64
	specialRequests string
	status          BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=PENDING.
func NewBooking(
	propertyID uuid.UUID,
	renterID uuid.UUID,
	stay Stay,
	guests int,
	totalPriceCents int64,
	specialRequests string,
) (*Booking, error) {
	if propertyID == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if renterID == uuid.Nil {
		return nil, domain.NewValidationError("renter ID is required")
	}
	if stay.Nights() < 1 {
		return nil, domain.NewBadRequestError("check-out date must be after check-in date")
	}
	if guests < 1 {
		return nil, domain.NewValidationError("guests must be at least 1")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if utf8.RuneCountInString(specialRequests) > maxSpecialRequestsLen {
		return nil, domain.NewValidationError("special requests are too long")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		propertyID:      propertyID,
		renterID:        renterID,
		stay:            stay,
		guests:          guests,
		totalPriceCents: totalPriceCents,
		specialRequests: specialRequests,
		status:          StatusPending,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	propertyID uuid.UUID,
	renterID uuid.UUID,
	stay Stay,
	guests int,
	totalPriceCents int64,
	specialRequests string,
	status BookingStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		propertyID:      propertyID,
		renterID:        renterID,
		stay:            stay,
		guests:          guests,
		totalPriceCents: totalPriceCents,
		specialRequests: specialRequests,
		status:          status,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// PropertyID returns the booked property's identifier.
func (b *Booking) PropertyID() uuid.UUID { return b.propertyID }

// RenterID returns the identifier of the renter who owns the booking.
func (b *Booking) RenterID() uuid.UUID { return b.renterID }

// Stay returns the booked date range.
func (b *Booking) Stay() Stay { return b.stay }

// CheckIn returns the first night of the stay.
func (b *Booking) CheckIn() time.Time { return b.stay.CheckIn }

// CheckOut returns the departure day.
func (b *Booking) CheckOut() time.Time { return b.stay.CheckOut }

// Guests returns the number of guests.
func (b *Booking) Guests() int { return b.guests }

// TotalPriceCents returns the price fixed at creation, in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// SpecialRequests returns the renter's free-text note.
func (b *Booking) SpecialRequests() string { return b.specialRequests }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for compare-and-set updates.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive reports whether the booking still blocks its date range.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// --- Behavior ---

// Confirm transitions the booking from PENDING to CONFIRMED.
func (b *Booking) Confirm() error {
	return b.transition(StatusConfirmed)
}

// Reject transitions the booking from PENDING to REJECTED.
func (b *Booking) Reject() error {
	return b.transition(StatusRejected)
}

// Cancel transitions the booking from PENDING to CANCELLED.
// A confirmed booking cannot be cancelled through the booking lifecycle.
func (b *Booking) Cancel() error {
	switch b.status {
	case StatusCancelled:
		return domain.NewInvalidStateErrorf("booking is already cancelled")
	case StatusConfirmed:
		return domain.NewInvalidStateErrorf("cannot cancel a confirmed booking, contact support")
	}
	return b.transition(StatusCancelled)
}

func (b *Booking) transition(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.IncrementVersion()
	return nil
}

// IncrementVersion bumps the version for compare-and-set updates.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
