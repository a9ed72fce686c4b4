// Package events forwards corrections and trust outcomes to Kafka so other
// systems can consume them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

// Default topic names.
const (
	DefaultCorrectionsTopic = "triage.corrections"
	DefaultOutcomesTopic    = "triage.outcomes"
)

// Event type names carried in the envelope.
const (
	TypeCorrection = "correction"
	TypeOutcome    = "outcome"
)

// Envelope wraps every published payload.
type Envelope struct {
	PublishedAt time.Time       `json:"published_at"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

// OutcomePayload is the body of an outcome event.
type OutcomePayload struct {
	Event model.OutcomeEvent `json:"event"`
	Score model.TrustScore   `json:"score"`
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	Brokers          []string `mapstructure:"brokers"`
	CorrectionsTopic string   `mapstructure:"corrections_topic"`
	OutcomesTopic    string   `mapstructure:"outcomes_topic"`
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// KafkaPublisher sends engine events to Kafka.
type KafkaPublisher struct {
	corrections messageWriter
	outcomes    messageWriter
	logger      *slog.Logger
	now         func() time.Time
}

var _ service.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher with one writer per topic.
func NewKafkaPublisher(cfg Config, logger *slog.Logger) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.CorrectionsTopic == "" {
		cfg.CorrectionsTopic = DefaultCorrectionsTopic
	}
	if cfg.OutcomesTopic == "" {
		cfg.OutcomesTopic = DefaultOutcomesTopic
	}

	return newPublisher(
		&kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.CorrectionsTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		&kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.OutcomesTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		logger,
	), nil
}

func newPublisher(corrections, outcomes messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		corrections: corrections,
		outcomes:    outcomes,
		logger:      logger,
		now:         time.Now,
	}
}

// PublishCorrection sends a captured correction keyed by app and category so
// every event for one trust row lands on the same partition.
func (p *KafkaPublisher) PublishCorrection(ctx context.Context, correction model.Correction) error {
	key := model.TrustKey{AppID: correction.AppID, Category: correction.Category}.String()
	if err := p.send(ctx, p.corrections, TypeCorrection, key, correction); err != nil {
		return fmt.Errorf("failed to publish correction %s: %w", correction.ID, err)
	}
	p.logger.Debug("Published correction", "correction_id", correction.ID, "key", key)
	return nil
}

// PublishOutcome sends an applied outcome together with the resulting score.
func (p *KafkaPublisher) PublishOutcome(ctx context.Context, event model.OutcomeEvent, score model.TrustScore) error {
	key := model.TrustKey{AppID: event.AppID, Category: event.Category}.String()
	payload := OutcomePayload{Event: event, Score: score}
	if err := p.send(ctx, p.outcomes, TypeOutcome, key, payload); err != nil {
		return fmt.Errorf("failed to publish outcome for %s: %w", key, err)
	}
	p.logger.Debug("Published outcome", "key", key, "outcome", event.Outcome, "score", score.Score)
	return nil
}

func (p *KafkaPublisher) send(ctx context.Context, w messageWriter, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	data, err := json.Marshal(Envelope{
		PublishedAt: p.now().UTC(),
		Type:        eventType,
		Payload:     body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(eventType)},
		},
	}
	return w.WriteMessages(ctx, msg)
}

// Close closes both writers.
func (p *KafkaPublisher) Close() error {
	return errors.Join(p.corrections.Close(), p.outcomes.Close())
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

var _ service.EventPublisher = NoopPublisher{}

// PublishCorrection implements service.EventPublisher.
func (NoopPublisher) PublishCorrection(context.Context, model.Correction) error { return nil }

// PublishOutcome implements service.EventPublisher.
func (NoopPublisher) PublishOutcome(context.Context, model.OutcomeEvent, model.TrustScore) error {
	return nil
}

// Close implements service.EventPublisher.
func (NoopPublisher) Close() error { return nil }

// New returns a Kafka publisher when brokers are configured and a no-op
// publisher otherwise.
func New(cfg Config, logger *slog.Logger) (service.EventPublisher, error) {
	if !cfg.Enabled() {
		return NoopPublisher{}, nil
	}
	return NewKafkaPublisher(cfg, logger)
}
