package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"go.uber.org/zap"
)

// ListMyBookings retrieves the caller's own bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, caller identity.Caller, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByRenterID(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.paginated(ctx, bookings, total, page, limit)
}

// ListPropertyBookings retrieves the bookings of one property for its agent or an admin.
func (s *BookingService) ListPropertyBookings(ctx context.Context, caller identity.Caller, propertyID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	prop, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !prop.IsManagedBy(caller.ID) {
		return nil, domain.NewForbiddenError("only the property's agent can list its bookings")
	}

	bookings, total, err := s.bookings.FindByPropertyID(ctx, propertyID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.paginated(ctx, bookings, total, page, limit)
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, caller identity.Caller, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	if !caller.IsAdmin() {
		return nil, domain.NewForbiddenError("admin access required")
	}

	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return s.paginated(ctx, bookings, total, page, limit)
}

func (s *BookingService) paginated(ctx context.Context, bookings []*bookingDomain.Booking, total int64, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	dtos, err := s.project(ctx, bookings)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// BookedDates lists the active ranges of a property that have not checked out before today.
func (s *BookingService) BookedDates(ctx context.Context, caller identity.Caller, propertyID uuid.UUID) ([]BookedRangeDTO, error) {
	if caller.IsZero() {
		return nil, domain.NewForbiddenError("authentication required")
	}
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}

	today := bookingDomain.Day(s.now())
	stays, hit, err := s.cache.Get(ctx, propertyID, today)
	if err != nil {
		s.logger.Warn("booked dates cache read failed",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
	if hit {
		return toBookedRangeDTOs(stays), nil
	}

	// The generation is read before the ranges so a concurrent invalidation voids the write.
	generation, genErr := s.cache.Generation(ctx, propertyID)
	if genErr != nil {
		s.logger.Warn("booked dates cache generation read failed",
			zap.String("property_id", propertyID.String()),
			zap.Error(genErr),
		)
	}

	stays, err = s.bookings.ActiveRanges(ctx, propertyID, today)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.cache.Set(ctx, propertyID, today, generation, stays); err != nil {
			s.logger.Warn("booked dates cache write failed",
				zap.String("property_id", propertyID.String()),
				zap.Error(err),
			)
		}
	}
	return toBookedRangeDTOs(stays), nil
}

// BookingStats returns booking counts per status (admin). Every status is present.
func (s *BookingService) BookingStats(ctx context.Context, caller identity.Caller) (*BookingStatsDTO, error) {
	if !caller.IsAdmin() {
		return nil, domain.NewForbiddenError("admin access required")
	}

	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := map[string]int64{
		bookingDomain.StatusPending.String():   0,
		bookingDomain.StatusConfirmed.String(): 0,
		bookingDomain.StatusCancelled.String(): 0,
		bookingDomain.StatusRejected.String():  0,
	}
	var total int64
	for status, c := range counts {
		byStatus[status] += c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// SearchProperties lists available properties matching the filter, cheapest first.
func (s *BookingService) SearchProperties(ctx context.Context, filter property.SearchFilter, page, limit int) (*domain.PaginatedResult[PropertyDTO], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, domain.NewFieldValidationError(map[string]string{
			"min_price": "must not exceed max_price",
		})
	}

	props, total, err := s.properties.Search(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]PropertyDTO, len(props))
	for i, p := range props {
		dtos[i] = toPropertyDTO(p)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}
