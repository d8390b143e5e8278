package notifications

import (
	"context"
	"fmt"
	"time"

	"billetter/internal/shared/config"
	"billetter/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer publishes booking lifecycle events to Kafka. Publishing is
// best-effort by design: a payment must resolve even when the broker is
// down, so failures only log.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a sync producer. Returns nil (disabled) when the
// feature is off.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.GetDefault().Info("kafka booking producer created", "topic", cfg.Topic)
	return &Producer{
		producer: producer,
		topic:    cfg.Topic,
	}, nil
}

// BookingConfirmed publishes a booking.confirmed event.
func (p *Producer) BookingConfirmed(ctx context.Context, bookingID, concertID int64, paymentID string) {
	p.publish(&BookingEvent{
		EventID:    uuid.New().String(),
		Type:       EventBookingConfirmed,
		BookingID:  bookingID,
		ConcertID:  concertID,
		PaymentID:  paymentID,
		OccurredAt: time.Now().UTC(),
	})
}

// BookingReleased publishes a booking.released event.
func (p *Producer) BookingReleased(ctx context.Context, bookingID, concertID int64, paymentID, reason string) {
	p.publish(&BookingEvent{
		EventID:    uuid.New().String(),
		Type:       EventBookingReleased,
		BookingID:  bookingID,
		ConcertID:  concertID,
		PaymentID:  paymentID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Producer) publish(event *BookingEvent) {
	payload, err := event.ToJSON()
	if err != nil {
		logger.GetDefault().Error("failed to marshal booking event", "error", err)
		return
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: event.OccurredAt,
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		logger.GetDefault().Warn("failed to publish booking event",
			"type", event.Type, "booking_id", event.BookingID, "error", err)
	}
}

// Close shuts the producer down.
func (p *Producer) Close() error {
	return p.producer.Close()
}
