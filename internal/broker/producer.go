// Package broker publishes events to the downstream message bus the
// publish_kafka tool targets (spec §4.3, §6). Producer has two
// implementations: a real Kafka producer, and an Unavailable stand-in used
// when no broker is configured so publish_kafka can still fall back to the
// outbox offset sequence instead of failing outright (spec §9).
package broker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Producer publishes a single message and reports whether the broker
// actually accepted it. Available is false when the producer is the
// Unavailable stand-in, telling the caller to use a fallback offset rather
// than one returned by the broker.
type Producer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte) (offset int64, available bool, err error)
	Close() error
}

// KafkaConfig configures the Kafka producer. Brokers, SASL, and TLS
// parameters are sourced from OCI_STREAMING_BOOTSTRAP or
// KAFKA_BOOTSTRAP_SERVERS plus the operator's secret provider (spec §6).
type KafkaConfig struct {
	Brokers      []string
	MaxAttempts  int
	WriteTimeout time.Duration
	Balancer     kafka.Balancer

	// SecurityProtocol is "PLAINTEXT" or "SASL_SSL". Defaults to SASL_SSL
	// when SASLUsername is set, else PLAINTEXT.
	SecurityProtocol string
	SASLMechanism    string // "PLAIN" or "SCRAM-SHA-256" / "SCRAM-SHA-512"
	SASLUsername     string
	SASLPassword     string
	SSLCALocation    string
}

func (cfg KafkaConfig) dialer() (*kafka.Dialer, error) {
	if cfg.SASLUsername == "" {
		return nil, nil
	}

	mechanism, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}

	dialer := &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		SASLMechanism: mechanism,
	}

	protocol := cfg.SecurityProtocol
	if protocol == "" {
		protocol = "SASL_SSL"
	}
	if protocol == "SASL_SSL" {
		tlsConfig := &tls.Config{}
		if cfg.SSLCALocation != "" {
			pem, err := os.ReadFile(cfg.SSLCALocation)
			if err != nil {
				return nil, fmt.Errorf("reading ssl_ca_location: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates parsed from %s", cfg.SSLCALocation)
			}
			tlsConfig.RootCAs = pool
		}
		dialer.TLS = tlsConfig
	}

	return dialer, nil
}

func (cfg KafkaConfig) saslMechanism() (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "", "PLAIN":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	default:
		return nil, fmt.Errorf("unsupported sasl_mechanism %q", cfg.SASLMechanism)
	}
}

// KafkaProducer publishes messages via segmentio/kafka-go, retrying
// transient write failures with a capped exponential backoff.
type KafkaProducer struct {
	writer      *kafka.Writer
	maxAttempts int
}

// NewKafkaProducer constructs a KafkaProducer. A single writer is shared
// across topics; kafka-go routes each WriteMessages call by the message's
// Topic field.
func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("broker: at least one bootstrap server required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}

	dialer, err := cfg.dialer()
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Balancer:     cfg.Balancer,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
		Dialer:       dialer,
	})

	return &KafkaProducer{writer: w, maxAttempts: cfg.MaxAttempts}, nil
}

// Produce writes one message to topic, retrying on transient errors.
// kafka-go's high-level Writer does not surface the broker-assigned offset,
// so a successful publish reports offset -1; callers needing a sequence
// number for downstream correlation should allocate one from the outbox.
func (p *KafkaProducer) Produce(ctx context.Context, topic string, key, value []byte) (offset int64, available bool, err error) {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		msg := kafka.Message{Topic: topic, Key: key, Value: value, Time: time.Now().UTC()}

		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		writeErr := p.writer.WriteMessages(attemptCtx, msg)
		cancel()

		if writeErr == nil {
			return -1, true, nil
		}
		lastErr = writeErr
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}

	return -1, true, fmt.Errorf("publish to %s failed after %d attempts: %w", topic, p.maxAttempts, lastErr)
}

// ProduceJSON marshals v and produces it as the message value.
func (p *KafkaProducer) ProduceJSON(ctx context.Context, topic string, key []byte, v interface{}) (int64, bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return -1, true, fmt.Errorf("marshaling broker payload: %w", err)
	}
	return p.Produce(ctx, topic, key, b)
}

// Close shuts down the underlying writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Unavailable is a Producer that never reaches a broker. publish_kafka uses
// it when no bootstrap servers are configured, so the tool can still
// complete by allocating an outbox offset instead of failing the step.
type Unavailable struct{}

// Produce always reports available=false and a zero offset; callers must
// allocate their own fallback offset.
func (Unavailable) Produce(_ context.Context, _ string, _ []byte, _ []byte) (int64, bool, error) {
	return 0, false, nil
}

// Close is a no-op.
func (Unavailable) Close() error { return nil }
