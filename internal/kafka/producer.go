package kafka

import (
	"context"
	"fmt"
	"time"

	"ms-busbooking/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	TopicOrderCreated   = "busbooking.order.created"
	TopicOrderConfirmed = "busbooking.order.confirmed"
	TopicOrderCancelled = "busbooking.order.cancelled"
)

// Topics lists every topic the service writes to.
var Topics = []string{TopicOrderCreated, TopicOrderConfirmed, TopicOrderCancelled}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

type Producer struct {
	Writer *kafka.Writer
	logger *logger.Logger
}

// NewProducer builds a writer without a fixed topic; each message names its own.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, logger: log}
}

// Publish streams one message to topic, keyed for partition affinity.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.logger.LogKafka("PUBLISH", topic, "key="+key)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	Logger *logger.Logger
}

func (l LogPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	l.Logger.Debug("KAFKA", fmt.Sprintf("[disabled] %s key=%s payload=%s", topic, key, value))
	return nil
}

func (LogPublisher) Close() error { return nil }
