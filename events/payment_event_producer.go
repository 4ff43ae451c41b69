package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mickey4653/restful-payment-gateway-api/models"
)

// Producer publishes payment lifecycle events for downstream consumers.
type Producer interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error
	Close() error
}

// KafkaProducer writes payment events to a Kafka topic, keyed by payment id
// so events for one payment stay ordered within a partition.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka payment event producer initialized",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
	)
	return &KafkaProducer{writer: w, logger: logger}
}

func (p *KafkaProducer) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("payment event published",
		zap.String("event_type", event.Type),
		zap.String("payment_id", event.PaymentID),
	)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopProducer discards events. Used when no broker is configured.
type NoopProducer struct{}

func NewNoopProducer() *NoopProducer { return &NoopProducer{} }

func (*NoopProducer) PublishPaymentEvent(context.Context, models.PaymentEvent) error { return nil }
func (*NoopProducer) Close() error                                                   { return nil }
