// Package events implements the revocation event publisher over Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/pkg/logger"
)

// RevocationEvent is the message body published when a token is revoked.
// Consumers (resource servers, audit pipelines) use it to drop cached
// authorization decisions for the token.
type RevocationEvent struct {
	TokenHash string    `json:"token_hash"`
	Reason    string    `json:"reason,omitempty"`
	RevokedAt time.Time `json:"revoked_at"`
}

// KafkaPublisher publishes revocation events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    logger.Logger
}

var _ service.RevocationPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a RevocationPublisher over the configured topic.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) service.RevocationPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{
		writer: writer,
		log:    log.WithComponent("revocation_publisher"),
	}
}

// PublishRevocation emits a revocation event. Failures are logged and
// returned; callers treat publishing as best effort.
func (p *KafkaPublisher) PublishRevocation(ctx context.Context, tokenHash, reason string) error {
	event := RevocationEvent{
		TokenHash: tokenHash,
		Reason:    reason,
		RevokedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error(ctx, "Failed to marshal revocation event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tokenHash),
		Value: payload,
	})
	if err != nil {
		p.log.Error(ctx, "Failed to publish revocation event", err,
			logger.String("token_hash", tokenHash),
		)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// noopPublisher discards revocation events. Used when Kafka is disabled.
type noopPublisher struct{}

// NewNoopPublisher creates a publisher that discards events.
func NewNoopPublisher() service.RevocationPublisher {
	return &noopPublisher{}
}

func (n *noopPublisher) PublishRevocation(ctx context.Context, tokenHash, reason string) error {
	return nil
}

func (n *noopPublisher) Close() error { return nil }
