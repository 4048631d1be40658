package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(t *testing.T, propertyID uuid.UUID, in, out string) *booking.Booking {
	t.Helper()
	checkIn, err := booking.ParseDay(in)
	require.NoError(t, err)
	checkOut, err := booking.ParseDay(out)
	require.NoError(t, err)
	st, err := booking.NewStay(checkIn, checkOut)
	require.NoError(t, err)
	b, err := booking.NewBooking(propertyID, uuid.New(), st, 1, 100*int64(st.Nights()), "")
	require.NoError(t, err)
	return b
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	b := newBooking(t, uuid.New(), "2025-06-01", "2025-06-03")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(uow booking.UnitOfWork) error {
		require.NoError(t, uow.Bookings().Save(ctx, b))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Bookings().FindByID(ctx, b.ID())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestUpdate_RequiresPreviousVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	b := newBooking(t, uuid.New(), "2025-06-01", "2025-06-03")
	require.NoError(t, s.Bookings().Save(ctx, b))

	stale, err := s.Bookings().FindByID(ctx, b.ID())
	require.NoError(t, err)

	require.NoError(t, b.Confirm())
	require.NoError(t, s.Bookings().Update(ctx, b))

	require.NoError(t, stale.Reject())
	err = s.Bookings().Update(ctx, stale)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestConflictAndRanges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	propertyID := uuid.New()

	active := newBooking(t, propertyID, "2025-06-01", "2025-06-05")
	cancelled := newBooking(t, propertyID, "2025-06-10", "2025-06-12")
	require.NoError(t, cancelled.Cancel())
	require.NoError(t, s.Bookings().Save(ctx, active))
	require.NoError(t, s.Bookings().Save(ctx, cancelled))

	probe := newBooking(t, propertyID, "2025-06-04", "2025-06-11")
	conflict, err := s.Bookings().ExistsConflict(ctx, propertyID, probe.Stay())
	require.NoError(t, err)
	assert.True(t, conflict)

	backToBack := newBooking(t, propertyID, "2025-06-05", "2025-06-12")
	conflict, err = s.Bookings().ExistsConflict(ctx, propertyID, backToBack.Stay())
	require.NoError(t, err)
	assert.False(t, conflict)

	ranges, err := s.Bookings().ActiveRanges(ctx, propertyID, time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, ranges, 1)

	ranges, err = s.Bookings().ActiveRanges(ctx, propertyID, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, ranges)
}
