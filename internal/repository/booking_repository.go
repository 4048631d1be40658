package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	PropertyID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_bookings_property_status,priority:1"`
	RenterID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	CheckIn         datatypes.Date `gorm:"column:check_in;not null"`
	CheckOut        datatypes.Date `gorm:"column:check_out;not null"`
	Guests          int            `gorm:"not null;default:1"`
	TotalPriceCents int64          `gorm:"not null"`
	SpecialRequests string         `gorm:"size:2000"`
	Status          string         `gorm:"not null;size:20;index:idx_bookings_property_status,priority:2"`
	Version         int64          `gorm:"not null;default:1"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a booking and holds a row lock until the transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) findOne(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRenterID retrieves bookings for a specific renter with pagination.
func (r *GormBookingRepository) FindByRenterID(ctx context.Context, renterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Where("renter_id = ?", renterID), page, limit)
}

// FindByPropertyID retrieves bookings of a property with pagination.
func (r *GormBookingRepository) FindByPropertyID(ctx context.Context, propertyID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Where("property_id = ?", propertyID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx), page, limit)
}

func (r *GormBookingRepository) paginate(ctx context.Context, scope *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := scope.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// ExistsConflict reports whether an active booking of the property overlaps stay.
func (r *GormBookingRepository) ExistsConflict(ctx context.Context, propertyID uuid.UUID, stay bookingDomain.Stay) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("property_id = ?", propertyID).
		Where("status NOT IN ?", bookingDomain.TerminatedStatusNames()).
		Where("check_in < ? AND check_out > ?", stay.CheckOut, stay.CheckIn).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check booking conflicts: %w", err)
	}
	return count > 0, nil
}

// ActiveRanges lists the stays of active bookings that check out on or after from.
func (r *GormBookingRepository) ActiveRanges(ctx context.Context, propertyID uuid.UUID, from time.Time) ([]bookingDomain.Stay, error) {
	var models []BookingModel
	err := r.db.WithContext(ctx).
		Select("check_in", "check_out").
		Where("property_id = ?", propertyID).
		Where("status NOT IN ?", bookingDomain.TerminatedStatusNames()).
		Where("check_out >= ?", bookingDomain.Day(from)).
		Order("check_in ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booked ranges: %w", err)
	}

	stays := make([]bookingDomain.Stay, len(models))
	for i, m := range models {
		stays[i] = bookingDomain.Stay{
			CheckIn:  bookingDomain.Day(time.Time(m.CheckIn)),
			CheckOut: bookingDomain.Day(time.Time(m.CheckOut)),
		}
	}
	return stays, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := r.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists a status change with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	// The aggregate already bumped its version, so the stored row must still hold the previous one.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", bk.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":     string(bk.Status()),
			"version":    bk.Version(),
			"updated_at": bk.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		RenterID:        bk.RenterID(),
		CheckIn:         datatypes.Date(bk.CheckIn()),
		CheckOut:        datatypes.Date(bk.CheckOut()),
		Guests:          bk.Guests(),
		TotalPriceCents: bk.TotalPriceCents(),
		SpecialRequests: bk.SpecialRequests(),
		Status:          string(bk.Status()),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	stay := bookingDomain.Stay{
		CheckIn:  bookingDomain.Day(time.Time(m.CheckIn)),
		CheckOut: bookingDomain.Day(time.Time(m.CheckOut)),
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.PropertyID,
		m.RenterID,
		stay,
		m.Guests,
		m.TotalPriceCents,
		m.SpecialRequests,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
