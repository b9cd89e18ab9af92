package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Consumer reads messages from one topic under a consumer group and hands
// each message's raw bytes to a handler (spec §6: "Consumer decodes each
// message as JSON matching the Event schema and invokes handle_event").
// Decoding and dispatch are the caller's responsibility so this package has
// no dependency on the eventing or orchestrator packages.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer builds a Consumer bound to groupID/topic using the same
// bootstrap/SASL/TLS configuration as the producer.
func NewConsumer(cfg KafkaConfig, groupID, topic string) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("broker: at least one bootstrap server required")
	}
	if groupID == "" {
		return nil, fmt.Errorf("broker: group_id required")
	}
	if topic == "" {
		return nil, fmt.Errorf("broker: topic required")
	}

	dialer, err := cfg.dialer()
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  dialer,
	})

	return &Consumer{reader: reader}, nil
}

// Start runs the read loop until ctx is canceled, calling handle with each
// message's raw value. A handler error is logged and does not stop the
// loop — one malformed or failed event should not wedge the consumer.
func (c *Consumer) Start(ctx context.Context, handle func(ctx context.Context, value []byte) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading broker message: %w", err)
		}
		if err := handle(ctx, msg.Value); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("broker message handling failed")
		}
	}
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
