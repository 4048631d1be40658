package repository

import (
	"context"

	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"gorm.io/gorm"
)

// GormTxManager runs units of work inside a database transaction.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(uow bookingDomain.UnitOfWork) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{
			bookings:   NewGormBookingRepository(tx),
			properties: NewGormPropertyRepository(tx),
		})
	})
}

type gormUnitOfWork struct {
	bookings   *GormBookingRepository
	properties *GormPropertyRepository
}

func (u *gormUnitOfWork) Bookings() bookingDomain.BookingRepository { return u.bookings }
func (u *gormUnitOfWork) Properties() property.Directory            { return u.properties }

var (
	_ bookingDomain.BookingRepository = (*GormBookingRepository)(nil)
	_ property.Directory              = (*GormPropertyRepository)(nil)
	_ bookingDomain.TxManager         = (*GormTxManager)(nil)
)
