package kafka

import (
	"context"
	"fmt"
	"time"

	"vimart-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer is the outbound queue used for fire-and-forget notification
// events. Delivery failures are logged, never propagated into payment state.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.L().Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.L().Error(fmt.Sprintf(msg, args...))
		}),
	}

	return &kafkaProducer{writer: writer}
}

func (p *kafkaProducer) Produce(ctx context.Context, key string, value []byte) error {
	produceCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	err := p.writer.WriteMessages(produceCtx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed producing message",
			zap.String("topic", p.writer.Topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
