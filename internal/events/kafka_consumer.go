package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/application"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/proto/events"
)

// PrepaymentApplier records deposits on bookings. *application.BookingService satisfies it.
type PrepaymentApplier interface {
	ApplyPrepayment(ctx context.Context, bookingID int64, amount float64) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and records prepayments on bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PrepaymentApplier
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PrepaymentApplier,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentPrepaymentReceived:
		return c.handlePrepaymentReceived(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePrepaymentReceived(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PrepaymentReceivedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PrepaymentReceivedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing prepayment received event",
		zap.Int64("booking_id", evt.BookingID),
		zap.Float64("amount", evt.Amount),
	)

	_, err := c.service.ApplyPrepayment(ctx, evt.BookingID, evt.Amount)
	if err != nil {
		// Retrying cannot fix a missing booking or a bad amount.
		if domain.IsNotFound(err) || domain.IsValidation(err) {
			c.logger.Warn("dropping prepayment event",
				zap.Int64("booking_id", evt.BookingID),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to apply prepayment",
			zap.Int64("booking_id", evt.BookingID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("prepayment applied to booking",
		zap.Int64("booking_id", evt.BookingID),
	)
	return nil
}
