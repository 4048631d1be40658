package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	"github.com/homestead-rentals/service-booking/internal/contracts"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"github.com/homestead-rentals/service-booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == contracts.TopicBookingEvents {
		p.events = append(p.events, event)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store     *memory.Store
	svc       *BookingService
	publisher *recordingPublisher
	agent     identity.Caller
	renter    identity.Caller
	admin     identity.Caller
	property  *property.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewBookingService(store, store.Bookings(), store.Properties(), store.Profiles(),
		bookingDomain.NewNightlyPricingStrategy(), pub, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC) }

	f := &fixture{
		store:     store,
		svc:       svc,
		publisher: pub,
		agent:     identity.NewCaller(uuid.New(), identity.RoleAgent),
		renter:    identity.NewCaller(uuid.New(), identity.RoleRenter),
		admin:     identity.NewCaller(uuid.New(), identity.RoleAdmin),
	}
	f.property = f.addProperty(t, 10000, 4, true)

	require.NoError(t, store.Profiles().Upsert(context.Background(), identity.Profile{
		ID: f.renter.ID, FirstName: "Rina", LastName: "Tan", Role: identity.RoleRenter,
	}))
	return f
}

func (f *fixture) addProperty(t *testing.T, priceCents int64, maxGuests int, available bool) *property.Property {
	t.Helper()
	p, err := property.NewProperty(uuid.New(), f.agent.ID, "Seaview Loft", "Penang", "MY", "APARTMENT", 2, maxGuests, priceCents, available)
	require.NoError(t, err)
	require.NoError(t, f.store.Properties().Upsert(context.Background(), p))
	return p
}

func request(propertyID uuid.UUID, in, out string) CreateBookingRequest {
	return CreateBookingRequest{PropertyID: propertyID.String(), CheckInDate: in, CheckOutDate: out}
}

func (f *fixture) book(t *testing.T, in, out string) *BookingDTO {
	t.Helper()
	dto, err := f.svc.CreateBooking(context.Background(), f.renter, request(f.property.ID(), in, out))
	require.NoError(t, err)
	return dto
}

func TestCreateBooking_ConcreteScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, "2025-06-01", "2025-06-05")
	assert.Equal(t, int64(40000), a.TotalPriceCents)
	assert.Equal(t, "PENDING", a.Status)
	assert.Equal(t, 1, a.Guests)
	assert.Equal(t, "Seaview Loft", a.PropertyTitle)
	assert.Equal(t, "Penang", a.PropertyCity)
	assert.Equal(t, "Rina Tan", a.RenterName)
	assert.Equal(t, "2025-06-01", a.CheckInDate)
	assert.Equal(t, "2025-06-05", a.CheckOutDate)

	_, err := f.svc.CreateBooking(ctx, f.renter, request(f.property.ID(), "2025-06-04", "2025-06-06"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindBadRequest))

	c := f.book(t, "2025-06-05", "2025-06-07")
	assert.Equal(t, int64(20000), c.TotalPriceCents)

	assert.Equal(t, []string{contracts.BookingRequested, contracts.BookingRequested}, f.publisher.types())
}

func TestCreateBooking_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unavailable := f.addProperty(t, 5000, 2, false)
	four := 4
	five := 5

	tests := []struct {
		name   string
		caller identity.Caller
		req    CreateBookingRequest
		kind   domain.ErrorKind
	}{
		{"agent cannot book", f.agent, request(f.property.ID(), "2025-06-01", "2025-06-02"), domain.KindForbidden},
		{"missing property", f.renter, request(uuid.New(), "2025-06-01", "2025-06-02"), domain.KindNotFound},
		{"unavailable property", f.renter, request(unavailable.ID(), "2025-06-01", "2025-06-02"), domain.KindBadRequest},
		{"check-out before check-in", f.renter, request(f.property.ID(), "2025-06-05", "2025-06-03"), domain.KindBadRequest},
		{"same-day stay", f.renter, request(f.property.ID(), "2025-06-05", "2025-06-05"), domain.KindBadRequest},
		{"check-in in the past", f.renter, request(f.property.ID(), "2025-04-30", "2025-05-03"), domain.KindValidation},
		{"malformed date", f.renter, request(f.property.ID(), "06/01/2025", "2025-06-03"), domain.KindValidation},
		{"malformed property id", f.renter, CreateBookingRequest{PropertyID: "nope", CheckInDate: "2025-06-01", CheckOutDate: "2025-06-02"}, domain.KindValidation},
		{"too many guests", f.renter, CreateBookingRequest{PropertyID: f.property.ID().String(), CheckInDate: "2025-06-01", CheckOutDate: "2025-06-02", Guests: &five}, domain.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(ctx, tt.caller, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}

	ok := CreateBookingRequest{PropertyID: f.property.ID().String(), CheckInDate: "2025-05-01", CheckOutDate: "2025-05-02", Guests: &four}
	dto, err := f.svc.CreateBooking(ctx, f.admin, ok)
	require.NoError(t, err)
	assert.Equal(t, 4, dto.Guests)
}

func TestCreateBooking_PastCheckInReportsField(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.renter, request(f.property.ID(), "2025-04-01", "2025-04-03"))

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "check_in_date")
	assert.Contains(t, de.Fields, "check_out_date")
}

func TestCreateBooking_ConcurrentOverlapsAdmitOne(t *testing.T) {
	f := newFixture(t)
	const n = 20

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		badRequest int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			renter := identity.NewCaller(uuid.New(), identity.RoleRenter)
			_, err := f.svc.CreateBooking(context.Background(), renter, request(f.property.ID(), "2025-07-10", "2025-07-14"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if domain.IsKind(err, domain.KindBadRequest) {
				badRequest++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, badRequest)
}

func TestCreateBooking_TerminatedBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled := f.book(t, "2025-06-01", "2025-06-05")
	_, err := f.svc.CancelBooking(ctx, f.renter, cancelled.ID)
	require.NoError(t, err)

	rejected := f.book(t, "2025-06-02", "2025-06-04")
	_, err = f.svc.RejectBooking(ctx, f.agent, rejected.ID)
	require.NoError(t, err)

	again := f.book(t, "2025-06-01", "2025-06-05")
	assert.Equal(t, "PENDING", again.Status)
}

func TestCreateBooking_PriceFixedAtCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-04")

	repriced, err := property.NewProperty(f.property.ID(), f.agent.ID, "Seaview Loft", "Penang", "MY", "APARTMENT", 2, 4, 99900, true)
	require.NoError(t, err)
	require.NoError(t, f.store.Properties().Upsert(ctx, repriced))

	got, err := f.svc.GetBooking(ctx, f.renter, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), got.TotalPriceCents)
}

func TestConfirmBooking_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-05")

	confirmed, err := f.svc.ConfirmBooking(ctx, f.agent, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)

	_, err = f.svc.ConfirmBooking(ctx, f.agent, created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))

	_, err = f.svc.RejectBooking(ctx, f.admin, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindInvalidState))
}

func TestConfirmBooking_RequiresPropertyAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-05")
	otherAgent := identity.NewCaller(uuid.New(), identity.RoleAgent)

	_, err := f.svc.ConfirmBooking(ctx, otherAgent, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = f.svc.ConfirmBooking(ctx, f.renter, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = f.svc.ConfirmBooking(ctx, f.agent, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	confirmed, err := f.svc.ConfirmBooking(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)
}

func TestCancelBooking_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("owner cancels pending", func(t *testing.T) {
		created := f.book(t, "2025-06-01", "2025-06-05")
		cancelled, err := f.svc.CancelBooking(ctx, f.renter, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", cancelled.Status)

		_, err = f.svc.CancelBooking(ctx, f.renter, created.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already cancelled")
	})

	t.Run("unrelated renter is denied", func(t *testing.T) {
		created := f.book(t, "2025-06-10", "2025-06-12")
		stranger := identity.NewCaller(uuid.New(), identity.RoleRenter)
		_, err := f.svc.CancelBooking(ctx, stranger, created.ID)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})

	t.Run("confirmed booking needs support", func(t *testing.T) {
		created := f.book(t, "2025-06-20", "2025-06-22")
		_, err := f.svc.ConfirmBooking(ctx, f.agent, created.ID)
		require.NoError(t, err)

		_, err = f.svc.CancelBooking(ctx, f.renter, created.ID)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
		assert.Contains(t, err.Error(), "contact support")
	})

	t.Run("admin cancels any pending booking", func(t *testing.T) {
		created := f.book(t, "2025-07-01", "2025-07-02")
		cancelled, err := f.svc.CancelBooking(ctx, f.admin, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", cancelled.Status)
	})
}

func TestGetBooking_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-05")

	for _, caller := range []identity.Caller{f.renter, f.agent, f.admin} {
		got, err := f.svc.GetBooking(ctx, caller, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	}

	_, err := f.svc.GetBooking(ctx, identity.NewCaller(uuid.New(), identity.RoleRenter), created.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = f.svc.GetBooking(ctx, f.renter, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-05")
	_, err := f.svc.ConfirmBooking(ctx, f.agent, created.ID)
	require.NoError(t, err)

	err = f.svc.DeleteBooking(ctx, f.agent, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	require.NoError(t, f.svc.DeleteBooking(ctx, f.admin, created.ID))

	_, err = f.svc.GetBooking(ctx, f.admin, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	err = f.svc.DeleteBooking(ctx, f.admin, created.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	// The freed range can be booked again.
	f.book(t, "2025-06-01", "2025-06-05")
	assert.Contains(t, f.publisher.types(), contracts.BookingDeleted)
}

func TestTransition_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.book(t, "2025-06-01", "2025-06-05")

	_, err := f.svc.CancelBooking(ctx, identity.NewCaller(uuid.New(), identity.RoleRenter), created.ID)
	require.Error(t, err)

	got, err := f.svc.GetBooking(ctx, f.renter, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
}

func TestCreateBooking_MultibyteSpecialRequests(t *testing.T) {
	f := newFixture(t)
	req := request(f.property.ID(), "2025-06-01", "2025-06-05")
	req.SpecialRequests = strings.Repeat("é", 1500)

	dto, err := f.svc.CreateBooking(context.Background(), f.renter, req)
	require.NoError(t, err)
	assert.Equal(t, req.SpecialRequests, dto.SpecialRequests)
}
