package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
)

// Producer publishes verification results to Kafka
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	// Topic stays unset on the writer so results and errors can share it.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Compression:            compressionCodec(config.Compression),
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}, nil
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}

// PublishResult publishes a verification result keyed by request id
func (p *Producer) PublishResult(ctx context.Context, msg *VerificationMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	headers := msg.Headers()
	if err := p.write(ctx, p.config.Topic, msg.RequestID, headers, data, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

// PublishError publishes a failed request to the error topic. It is a no-op
// when no error topic is configured.
func (p *Producer) PublishError(ctx context.Context, msg *ErrorMessage) error {
	if p.config.ErrorTopic == "" {
		return nil
	}

	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize error message: %w", err)
	}

	headers := msg.Headers()
	if err := p.write(ctx, p.config.ErrorTopic, msg.RequestID, headers, data, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to publish error: %w", err)
	}
	return nil
}

func (p *Producer) write(ctx context.Context, topic, key string, headers MessageHeaders, value []byte, at time.Time) error {
	kafkaHeaders := make([]kafka.Header, 0, 5)
	for _, h := range headers.ToKafkaHeaders() {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: h.Key, Value: h.Value})
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
		Time:    at,
	})
}

// Close closes the producer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}

// Stats returns producer statistics
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
