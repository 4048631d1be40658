// Package cache holds the Redis-backed booked-dates cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
)

const (
	keyPrefix           = "booking:booked-dates:"
	generationKeyPrefix = "booking:booked-dates-gen:"
)

var errGenerationMoved = errors.New("booked dates generation moved")

type entry struct {
	Day    string               `json:"day"`
	Ranges []bookingDomain.Stay `json:"ranges"`
}

// BookedDatesCache stores the active ranges of each property under one key.
// An entry computed on an earlier day is treated as a miss. A second key per
// property holds a generation counter that every invalidation increments.
type BookedDatesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBookedDatesCache creates a cache over an existing client.
func NewBookedDatesCache(client *redis.Client, ttl time.Duration) *BookedDatesCache {
	return &BookedDatesCache{client: client, ttl: ttl}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func key(propertyID uuid.UUID) string {
	return keyPrefix + propertyID.String()
}

func generationKey(propertyID uuid.UUID) string {
	return generationKeyPrefix + propertyID.String()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter, propertyID uuid.UUID) (int64, error) {
	gen, err := cmd.Get(ctx, generationKey(propertyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Generation returns the current invalidation generation of a property.
func (c *BookedDatesCache) Generation(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	gen, err := readGeneration(ctx, c.client, propertyID)
	if err != nil {
		return 0, fmt.Errorf("failed to read booked dates generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached ranges of a property if they were computed for day.
func (c *BookedDatesCache) Get(ctx context.Context, propertyID uuid.UUID, day time.Time) ([]bookingDomain.Stay, bool, error) {
	raw, err := c.client.Get(ctx, key(propertyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read booked dates: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode booked dates: %w", err)
	}
	if e.Day != bookingDomain.Day(day).Format(bookingDomain.DateLayout) {
		return nil, false, nil
	}
	return e.Ranges, true, nil
}

// Set stores the ranges computed for day, provided the property's generation is
// still the one read before the ranges were loaded. Otherwise the write is dropped.
func (c *BookedDatesCache) Set(ctx context.Context, propertyID uuid.UUID, day time.Time, generation int64, stays []bookingDomain.Stay) error {
	raw, err := json.Marshal(entry{
		Day:    bookingDomain.Day(day).Format(bookingDomain.DateLayout),
		Ranges: stays,
	})
	if err != nil {
		return fmt.Errorf("failed to encode booked dates: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, propertyID)
		if err != nil {
			return err
		}
		if current != generation {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(propertyID), raw, c.ttl)
			return nil
		})
		return err
	}, generationKey(propertyID))

	if errors.Is(err, errGenerationMoved) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write booked dates: %w", err)
	}
	return nil
}

// Invalidate drops the cached ranges of a property and bumps its generation.
func (c *BookedDatesCache) Invalidate(ctx context.Context, propertyID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(propertyID))
		pipe.Del(ctx, key(propertyID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate booked dates: %w", err)
	}
	return nil
}
