package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	PropertyID      string `json:"property_id" binding:"required,uuid"`
	CheckInDate     string `json:"check_in_date" binding:"required"`
	CheckOutDate    string `json:"check_out_date" binding:"required"`
	Guests          *int   `json:"guests" binding:"omitempty,min=1"`
	SpecialRequests string `json:"special_requests" binding:"max=2000"`
}

type createBookingCommand struct {
	propertyID      uuid.UUID
	checkIn         time.Time
	checkOut        time.Time
	guests          int
	specialRequests string
}

// parse checks the request shape against today's date. Date ordering is left to the engine.
func (r CreateBookingRequest) parse(today time.Time) (createBookingCommand, error) {
	fields := make(map[string]string)
	cmd := createBookingCommand{guests: 1, specialRequests: r.SpecialRequests}

	id, err := uuid.Parse(r.PropertyID)
	if err != nil {
		fields["property_id"] = "must be a valid UUID"
	}
	cmd.propertyID = id

	today = bookingDomain.Day(today)
	if cmd.checkIn, err = bookingDomain.ParseDay(r.CheckInDate); err != nil {
		fields["check_in_date"] = fmt.Sprintf("must be a date in %s format", bookingDomain.DateLayout)
	} else if cmd.checkIn.Before(today) {
		fields["check_in_date"] = "must be today or in the future"
	}
	if cmd.checkOut, err = bookingDomain.ParseDay(r.CheckOutDate); err != nil {
		fields["check_out_date"] = fmt.Sprintf("must be a date in %s format", bookingDomain.DateLayout)
	} else if !cmd.checkOut.After(today) {
		fields["check_out_date"] = "must be in the future"
	}

	if r.Guests != nil {
		if *r.Guests < 1 {
			fields["guests"] = "must be at least 1"
		}
		cmd.guests = *r.Guests
	}

	if len(fields) > 0 {
		return createBookingCommand{}, domain.NewFieldValidationError(fields)
	}
	return cmd, nil
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID `json:"id"`
	PropertyID      uuid.UUID `json:"property_id"`
	PropertyTitle   string    `json:"property_title"`
	PropertyCity    string    `json:"property_city"`
	RenterID        uuid.UUID `json:"renter_id"`
	RenterName      string    `json:"renter_name"`
	CheckInDate     string    `json:"check_in_date"`
	CheckOutDate    string    `json:"check_out_date"`
	Guests          int       `json:"guests"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookedRangeDTO is one blocked range of a property calendar. CheckOutDate is exclusive.
type BookedRangeDTO struct {
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

// PropertyDTO is the search projection of a property snapshot.
type PropertyDTO struct {
	ID                uuid.UUID `json:"id"`
	AgentID           uuid.UUID `json:"agent_id"`
	Title             string    `json:"title"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	Type              string    `json:"type"`
	Bedrooms          int       `json:"bedrooms"`
	MaxGuests         int       `json:"max_guests"`
	NightlyPriceCents int64     `json:"nightly_price_cents"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking, prop *property.Property, renter identity.Profile) BookingDTO {
	result := BookingDTO{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		RenterID:        bk.RenterID(),
		RenterName:      renter.DisplayName(),
		CheckInDate:     bk.CheckIn().Format(bookingDomain.DateLayout),
		CheckOutDate:    bk.CheckOut().Format(bookingDomain.DateLayout),
		Guests:          bk.Guests(),
		TotalPriceCents: bk.TotalPriceCents(),
		Status:          bk.Status().String(),
		SpecialRequests: bk.SpecialRequests(),
		CreatedAt:       bk.CreatedAt(),
	}
	if prop != nil {
		result.PropertyTitle = prop.Title()
		result.PropertyCity = prop.City()
	}
	return result
}

func toPropertyDTO(p *property.Property) PropertyDTO {
	return PropertyDTO{
		ID:                p.ID(),
		AgentID:           p.AgentID(),
		Title:             p.Title(),
		City:              p.City(),
		Country:           p.Country(),
		Type:              p.Type(),
		Bedrooms:          p.Bedrooms(),
		MaxGuests:         p.MaxGuests(),
		NightlyPriceCents: p.NightlyPriceCents(),
	}
}

func toBookedRangeDTOs(stays []bookingDomain.Stay) []BookedRangeDTO {
	out := make([]BookedRangeDTO, len(stays))
	for i, st := range stays {
		out[i] = BookedRangeDTO{
			CheckInDate:  st.CheckIn.Format(bookingDomain.DateLayout),
			CheckOutDate: st.CheckOut.Format(bookingDomain.DateLayout),
		}
	}
	return out
}

// project resolves property and renter names in two batch lookups.
func (s *BookingService) project(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	propertyIDs := make([]uuid.UUID, 0, len(bookings))
	renterIDs := make([]uuid.UUID, 0, len(bookings))
	for _, bk := range bookings {
		propertyIDs = append(propertyIDs, bk.PropertyID())
		renterIDs = append(renterIDs, bk.RenterID())
	}

	props, err := s.properties.FindByIDs(ctx, propertyIDs)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.FindByIDs(ctx, renterIDs)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, props[bk.PropertyID()], profiles[bk.RenterID()])
	}
	return dtos, nil
}

func (s *BookingService) projectOne(ctx context.Context, bk *bookingDomain.Booking) (*BookingDTO, error) {
	dtos, err := s.project(ctx, []*bookingDomain.Booking{bk})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}
