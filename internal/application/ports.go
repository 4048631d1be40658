package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
)

// EventPublisher sends CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// BookedDatesCache stores the active ranges of a property as computed for a given day.
// Invalidate bumps a per-property generation. Set only stores ranges read under the
// generation returned by Generation, so a read that raced a mutation is dropped.
type BookedDatesCache interface {
	Get(ctx context.Context, propertyID uuid.UUID, day time.Time) ([]bookingDomain.Stay, bool, error)
	Generation(ctx context.Context, propertyID uuid.UUID) (int64, error)
	Set(ctx context.Context, propertyID uuid.UUID, day time.Time, generation int64, stays []bookingDomain.Stay) error
	Invalidate(ctx context.Context, propertyID uuid.UUID) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID, time.Time) ([]bookingDomain.Stay, bool, error) {
	return nil, false, nil
}
func (noopCache) Generation(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (noopCache) Set(context.Context, uuid.UUID, time.Time, int64, []bookingDomain.Stay) error {
	return nil
}
func (noopCache) Invalidate(context.Context, uuid.UUID) error { return nil }
