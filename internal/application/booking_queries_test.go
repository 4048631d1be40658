package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/homestead-rentals/service-booking/internal/domain/identity"
	"github.com/homestead-rentals/service-booking/internal/domain/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]bookingDomain.Stay
	generations map[uuid.UUID]int64
	hits        int
}

func newMapCache() *mapCache {
	return &mapCache{
		entries:     make(map[uuid.UUID][]bookingDomain.Stay),
		generations: make(map[uuid.UUID]int64),
	}
}

func (c *mapCache) Get(_ context.Context, id uuid.UUID, _ time.Time) ([]bookingDomain.Stay, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stays, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return stays, ok, nil
}

func (c *mapCache) Generation(_ context.Context, id uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id], nil
}

func (c *mapCache) Set(_ context.Context, id uuid.UUID, _ time.Time, generation int64, stays []bookingDomain.Stay) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[id] != generation {
		return nil
	}
	c.entries[id] = stays
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	delete(c.entries, id)
	return nil
}

// interleavingBookings runs afterRanges once, right after the first ActiveRanges read returns.
type interleavingBookings struct {
	bookingDomain.BookingRepository
	once        sync.Once
	afterRanges func()
}

func (r *interleavingBookings) ActiveRanges(ctx context.Context, propertyID uuid.UUID, from time.Time) ([]bookingDomain.Stay, error) {
	stays, err := r.BookingRepository.ActiveRanges(ctx, propertyID, from)
	r.once.Do(r.afterRanges)
	return stays, err
}

func TestBookedDates_ActiveAndCurrentOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "2025-05-02", "2025-05-04")
	rejected := f.book(t, "2025-06-01", "2025-06-03")
	_, err := f.svc.RejectBooking(ctx, f.agent, rejected.ID)
	require.NoError(t, err)
	f.book(t, "2025-06-10", "2025-06-12")

	// Moving the clock past the first stay drops it from the calendar.
	f.svc.now = func() time.Time { return time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC) }

	ranges, err := f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	assert.Equal(t, []BookedRangeDTO{{CheckInDate: "2025-06-10", CheckOutDate: "2025-06-12"}}, ranges)

	_, err = f.svc.BookedDates(ctx, f.renter, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestBookedDates_CheckoutTodayStillListed(t *testing.T) {
	f := newFixture(t)
	f.book(t, "2025-05-02", "2025-05-04")
	f.svc.now = func() time.Time { return time.Date(2025, 5, 4, 23, 0, 0, 0, time.UTC) }

	ranges, err := f.svc.BookedDates(context.Background(), f.renter, f.property.ID())
	require.NoError(t, err)
	assert.Len(t, ranges, 1)
}

func TestBookedDates_CacheInvalidatedOnMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newMapCache()
	f.svc.cache = cache

	first := f.book(t, "2025-06-01", "2025-06-03")
	ranges, err := f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	require.Len(t, ranges, 1)

	_, err = f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = f.svc.CancelBooking(ctx, f.renter, first.ID)
	require.NoError(t, err)

	ranges, err = f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestBookedDates_CreateDuringReadIsNotCachedAway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.cache = newMapCache()
	f.svc.bookings = &interleavingBookings{
		BookingRepository: f.store.Bookings(),
		afterRanges: func() {
			f.book(t, "2025-06-01", "2025-06-05")
		},
	}

	ranges, err := f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	assert.Empty(t, ranges)

	ranges, err = f.svc.BookedDates(ctx, f.renter, f.property.ID())
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, BookedRangeDTO{CheckInDate: "2025-06-01", CheckOutDate: "2025-06-05"}, ranges[0])
}

func TestListMyBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "2025-06-01", "2025-06-03")
	f.book(t, "2025-06-03", "2025-06-05")
	other := identity.NewCaller(uuid.New(), identity.RoleRenter)

	mine, err := f.svc.ListMyBookings(ctx, f.renter, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)
	assert.Len(t, mine.Items, 2)

	theirs, err := f.svc.ListMyBookings(ctx, other, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, theirs.Items)
}

func TestListPropertyBookings_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "2025-06-01", "2025-06-03")

	page, err := f.svc.ListPropertyBookings(ctx, f.agent, f.property.ID(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "Seaview Loft", page.Items[0].PropertyTitle)

	_, err = f.svc.ListPropertyBookings(ctx, identity.NewCaller(uuid.New(), identity.RoleAgent), f.property.ID(), 1, 20)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = f.svc.ListPropertyBookings(ctx, f.admin, uuid.New(), 1, 20)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestListAllBookings_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "2025-06-01", "2025-06-03")
	f.book(t, "2025-06-05", "2025-06-07")
	f.book(t, "2025-06-09", "2025-06-11")

	page, err := f.svc.ListAllBookings(ctx, f.admin, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	_, err = f.svc.ListAllBookings(ctx, f.agent, 1, 20)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestBookingStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2025-06-01", "2025-06-03")
	f.book(t, "2025-06-05", "2025-06-07")
	_, err := f.svc.ConfirmBooking(ctx, f.agent, a.ID)
	require.NoError(t, err)

	stats, err := f.svc.BookingStats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["PENDING"])
	assert.Equal(t, int64(1), stats.ByStatus["CONFIRMED"])
	assert.Equal(t, int64(0), stats.ByStatus["REJECTED"])

	_, err = f.svc.BookingStats(ctx, f.renter)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestSearchProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addProperty(t, 4000, 2, true)
	f.addProperty(t, 2500, 2, false)

	minPrice := int64(5000)
	city := "penang"
	res, err := f.svc.SearchProperties(ctx, property.SearchFilter{City: &city, MinPrice: &minPrice}, 1, 20)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, f.property.ID(), res.Items[0].ID)

	all, err := f.svc.SearchProperties(ctx, property.SearchFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, int64(4000), all.Items[0].NightlyPriceCents)

	maxPrice := int64(1000)
	_, err = f.svc.SearchProperties(ctx, property.SearchFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, 1, 20)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSearchProperties_CityMatchesSubstring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, city := range []string{"nan", "PEN", "Penang"} {
		res, err := f.svc.SearchProperties(ctx, property.SearchFilter{City: &city}, 1, 20)
		require.NoError(t, err)
		require.Len(t, res.Items, 1, city)
		assert.Equal(t, f.property.ID(), res.Items[0].ID)
	}

	other := "Ipoh"
	res, err := f.svc.SearchProperties(ctx, property.SearchFilter{City: &other}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
