package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer reads order events from the given topics as part of groupID.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start blocks, handing every decoded order event to handler until ctx is done.
func (c *Consumer) Start(ctx context.Context, handler func(models.OrderEvent)) {
	c.logger.Info("KAFKA", "Order event consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		var event models.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message on %s: %v", msg.Topic, err))
			continue
		}
		handler(event)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// NotifyHandler logs the passenger notification an order event would trigger.
func NotifyHandler(log *logger.Logger) func(models.OrderEvent) {
	return func(e models.OrderEvent) {
		switch e.Type {
		case models.EventOrderConfirmed:
			log.Info("NOTIFY", fmt.Sprintf("Booking %s confirmed for user %s (%d seats)", e.BookingID, e.UserID, len(e.SeatIDs)))
		case models.EventOrderCancelled:
			log.Info("NOTIFY", fmt.Sprintf("Booking %s cancelled for user %s, refund %.2f", e.BookingID, e.UserID, e.Refund))
		default:
			log.Debug("NOTIFY", fmt.Sprintf("Order %s: %s", e.OrderID, e.Type))
		}
	}
}
