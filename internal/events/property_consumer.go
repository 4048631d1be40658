package events

import (
	"context"

	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	"github.com/homestead-rentals/service-booking/internal/contracts"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PropertyEventConsumer keeps the property snapshots in step with the catalog service.
type PropertyEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.CatalogService
	logger   *zap.Logger
}

// NewPropertyEventConsumer creates a new PropertyEventConsumer.
func NewPropertyEventConsumer(
	brokers []string,
	groupID string,
	service *application.CatalogService,
	logger *zap.Logger,
) *PropertyEventConsumer {
	return &PropertyEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, contracts.TopicPropertyEvents, logger),
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming property events. This blocks until the context is cancelled.
func (c *PropertyEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PropertyEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PropertyEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from property topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case contracts.PropertyUpserted:
		var evt contracts.PropertyUpsertedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PropertyUpsertedEvent data", zap.Error(err))
			return nil
		}
		return c.skipRejected(c.service.SyncProperty(ctx, evt), evt.PropertyID.String())

	case contracts.PropertyDeleted:
		var evt contracts.PropertyDeletedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse PropertyDeletedEvent data", zap.Error(err))
			return nil
		}
		return c.service.RemoveProperty(ctx, evt.PropertyID)

	default:
		c.logger.Debug("ignoring unhandled property event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// skipRejected drops events whose payload the domain refuses; retrying would not change the outcome.
func (c *PropertyEventConsumer) skipRejected(err error, propertyID string) error {
	if err == nil || domain.KindOf(err) == "" {
		return err
	}
	c.logger.Warn("skipping invalid property snapshot",
		zap.String("property_id", propertyID),
		zap.Error(err),
	)
	return nil
}
