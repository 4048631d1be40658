package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	"github.com/homestead-rentals/service-booking/internal/contracts"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"go.uber.org/zap"
)

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	tx         bookingDomain.TxManager
	bookings   bookingDomain.BookingRepository
	properties property.Directory
	profiles   identity.ProfileDirectory
	pricing    bookingDomain.PricingStrategy
	publisher  EventPublisher
	cache      BookedDatesCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewBookingService creates a new BookingService. publisher and cache may be nil.
func NewBookingService(
	tx bookingDomain.TxManager,
	bookings bookingDomain.BookingRepository,
	properties property.Directory,
	profiles identity.ProfileDirectory,
	pricing bookingDomain.PricingStrategy,
	publisher EventPublisher,
	cache BookedDatesCache,
	logger *zap.Logger,
) *BookingService {
	if cache == nil {
		cache = noopCache{}
	}
	return &BookingService{
		tx:         tx,
		bookings:   bookings,
		properties: properties,
		profiles:   profiles,
		pricing:    pricing,
		publisher:  publisher,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateBooking reserves a property for the caller. The property row stays locked
// from the availability check until the new booking is inserted.
func (s *BookingService) CreateBooking(ctx context.Context, caller identity.Caller, req CreateBookingRequest) (*BookingDTO, error) {
	if caller.IsZero() {
		return nil, domain.NewForbiddenError("authentication required")
	}
	if caller.Role != identity.RoleRenter && caller.Role != identity.RoleAdmin {
		return nil, domain.NewForbiddenError("only renters can create bookings")
	}

	cmd, err := req.parse(s.now())
	if err != nil {
		return nil, err
	}

	var (
		bk   *bookingDomain.Booking
		prop *property.Property
	)
	err = s.tx.WithinTx(ctx, func(uow bookingDomain.UnitOfWork) error {
		var err error
		prop, err = uow.Properties().FindByIDForUpdate(ctx, cmd.propertyID)
		if err != nil {
			return err
		}
		if !prop.Available() {
			return domain.NewBadRequestError("property is not available for booking")
		}

		stay, err := bookingDomain.NewStay(cmd.checkIn, cmd.checkOut)
		if err != nil {
			return err
		}
		if cmd.guests > prop.MaxGuests() {
			return domain.NewBadRequestError(fmt.Sprintf("property allows at most %d guests", prop.MaxGuests()))
		}

		conflict, err := uow.Bookings().ExistsConflict(ctx, prop.ID(), stay)
		if err != nil {
			return err
		}
		if conflict {
			return domain.NewBadRequestError("property is already booked for the selected dates")
		}

		priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
			Nights:            stay.Nights(),
			NightlyPriceCents: prop.NightlyPriceCents(),
		})
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
		}

		bk, err = bookingDomain.NewBooking(prop.ID(), caller.ID, stay, cmd.guests, priceCents, cmd.specialRequests)
		if err != nil {
			return err
		}
		return uow.Bookings().Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("property_id", bk.PropertyID().String()),
		zap.String("renter_id", caller.ID.String()),
		zap.Int("nights", bk.Stay().Nights()),
	)

	s.invalidateBookedDates(ctx, bk.PropertyID())
	s.publishEvent(ctx, contracts.BookingRequested, bk.ID(), contracts.BookingRequestedEvent{
		BookingID:       bk.ID(),
		PropertyID:      bk.PropertyID(),
		AgentID:         prop.AgentID(),
		RenterID:        bk.RenterID(),
		CheckInDate:     bk.CheckIn().Format(bookingDomain.DateLayout),
		CheckOutDate:    bk.CheckOut().Format(bookingDomain.DateLayout),
		Guests:          bk.Guests(),
		TotalPriceCents: bk.TotalPriceCents(),
		OccurredAt:      time.Now().UTC(),
	})

	return s.projectOne(ctx, bk)
}

// GetBooking retrieves a booking visible to the caller: its renter, the property's agent, or an admin.
func (s *BookingService) GetBooking(ctx context.Context, caller identity.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && bk.RenterID() != caller.ID {
		isAgent, err := s.properties.IsAgentOf(ctx, bk.PropertyID(), caller.ID)
		if err != nil {
			return nil, err
		}
		if !isAgent {
			return nil, domain.NewForbiddenError("you do not have access to this booking")
		}
	}
	return s.projectOne(ctx, bk)
}

// ConfirmBooking accepts a pending booking on behalf of the property's agent.
func (s *BookingService) ConfirmBooking(ctx context.Context, caller identity.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.transition(ctx, caller, bookingID, s.authorizeStaff, (*bookingDomain.Booking).Confirm, contracts.BookingConfirmed)
}

// RejectBooking declines a pending booking on behalf of the property's agent.
func (s *BookingService) RejectBooking(ctx context.Context, caller identity.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.transition(ctx, caller, bookingID, s.authorizeStaff, (*bookingDomain.Booking).Reject, contracts.BookingRejected)
}

// CancelBooking withdraws a pending booking. Only its renter or an admin may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, caller identity.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.transition(ctx, caller, bookingID, authorizeRenter, (*bookingDomain.Booking).Cancel, contracts.BookingCancelled)
}

type authorizer func(ctx context.Context, uow bookingDomain.UnitOfWork, caller identity.Caller, bk *bookingDomain.Booking) error

func (s *BookingService) authorizeStaff(ctx context.Context, uow bookingDomain.UnitOfWork, caller identity.Caller, bk *bookingDomain.Booking) error {
	if caller.IsAdmin() {
		return nil
	}
	isAgent, err := uow.Properties().IsAgentOf(ctx, bk.PropertyID(), caller.ID)
	if err != nil {
		return err
	}
	if !isAgent {
		return domain.NewForbiddenError("only the property's agent can manage this booking")
	}
	return nil
}

func authorizeRenter(_ context.Context, _ bookingDomain.UnitOfWork, caller identity.Caller, bk *bookingDomain.Booking) error {
	if caller.IsAdmin() || bk.RenterID() == caller.ID {
		return nil
	}
	return domain.NewForbiddenError("you can only cancel your own bookings")
}

// transition re-reads the booking under a row lock, checks access, applies the
// status change and writes it back with a version check.
func (s *BookingService) transition(
	ctx context.Context,
	caller identity.Caller,
	bookingID uuid.UUID,
	authorize authorizer,
	apply func(*bookingDomain.Booking) error,
	eventType string,
) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.WithinTx(ctx, func(uow bookingDomain.UnitOfWork) error {
		var err error
		bk, err = uow.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorize(ctx, uow, caller, bk); err != nil {
			return err
		}
		if err := apply(bk); err != nil {
			return err
		}
		return uow.Bookings().Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", bk.Status().String()),
		zap.String("changed_by", caller.ID.String()),
	)

	s.invalidateBookedDates(ctx, bk.PropertyID())
	s.publishEvent(ctx, eventType, bk.ID(), contracts.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		PropertyID: bk.PropertyID(),
		RenterID:   bk.RenterID(),
		Status:     bk.Status().String(),
		ChangedBy:  caller.ID,
		OccurredAt: time.Now().UTC(),
	})

	return s.projectOne(ctx, bk)
}

// DeleteBooking permanently removes a booking regardless of status (admin).
func (s *BookingService) DeleteBooking(ctx context.Context, caller identity.Caller, bookingID uuid.UUID) error {
	if !caller.IsAdmin() {
		return domain.NewForbiddenError("only admins can delete bookings")
	}

	var propertyID uuid.UUID
	err := s.tx.WithinTx(ctx, func(uow bookingDomain.UnitOfWork) error {
		bk, err := uow.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		propertyID = bk.PropertyID()
		return uow.Bookings().Delete(ctx, bookingID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("booking deleted",
		zap.String("booking_id", bookingID.String()),
		zap.String("deleted_by", caller.ID.String()),
	)

	s.invalidateBookedDates(ctx, propertyID)
	s.publishEvent(ctx, contracts.BookingDeleted, bookingID, contracts.BookingDeletedEvent{
		BookingID:  bookingID,
		PropertyID: propertyID,
		DeletedBy:  caller.ID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *BookingService) invalidateBookedDates(ctx context.Context, propertyID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, propertyID); err != nil {
		s.logger.Warn("failed to invalidate booked dates cache",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, subject uuid.UUID, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(contracts.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject.String()

	if err := s.publisher.PublishEvent(ctx, contracts.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", contracts.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
