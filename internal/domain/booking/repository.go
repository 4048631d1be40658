package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and locks its row until the enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRenterID retrieves bookings belonging to a renter with pagination.
	FindByRenterID(ctx context.Context, renterID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByPropertyID retrieves bookings of a property with pagination.
	FindByPropertyID(ctx context.Context, propertyID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ExistsConflict reports whether an active booking of the property overlaps stay.
	ExistsConflict(ctx context.Context, propertyID uuid.UUID, stay Stay) (bool, error)

	// ActiveRanges lists the stays of active bookings that check out on or after from.
	ActiveRanges(ctx context.Context, propertyID uuid.UUID, from time.Time) ([]Stay, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists a status change, failing if the stored version moved on.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UnitOfWork exposes the repositories bound to one transaction.
type UnitOfWork interface {
	Bookings() BookingRepository
	Properties() property.Directory
}

// TxManager runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
