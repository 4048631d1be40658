package events

import (
	"context"

	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	"github.com/homestead-rentals/service-booking/internal/contracts"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// UserEventConsumer keeps renter display names in step with the identity service.
type UserEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.CatalogService
	logger   *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	service *application.CatalogService,
	logger *zap.Logger,
) *UserEventConsumer {
	return &UserEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, contracts.TopicUserEvents, logger),
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil
	}

	if cloudEvent.Type != contracts.UserUpserted {
		c.logger.Debug("ignoring unhandled user event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt contracts.UserUpsertedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserUpsertedEvent data", zap.Error(err))
		return nil
	}
	return c.service.SyncProfile(ctx, evt)
}
