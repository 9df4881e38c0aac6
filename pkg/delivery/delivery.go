// Package delivery pushes normalized event batches to the downstream system.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/models"
	"github.com/wildtrack/ornitela-ingest/pkg/mqtt"
)

// Sender is the downstream delivery boundary. A nil error means the whole
// batch is considered delivered; the caller must not re-derive those events
// from the same rows on retry.
type Sender interface {
	SendBatch(ctx context.Context, events []models.NormalizedEvent) error
}

// MQTTSender publishes each batch as one JSON message.
type MQTTSender struct {
	client mqtt.MQTTClient
	topic  string
	qos    byte
	logger zerolog.Logger
}

// NewMQTTSender wires a sender to an established MQTT connection.
func NewMQTTSender(client mqtt.MQTTClient, topic string, qos byte, logger zerolog.Logger) *MQTTSender {
	return &MQTTSender{
		client: client,
		topic:  topic,
		qos:    qos,
		logger: logger,
	}
}

// SendBatch publishes events and waits for broker acknowledgement or context
// cancellation.
func (s *MQTTSender) SendBatch(ctx context.Context, events []models.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to serialize event batch: %w", err)
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish event batch: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Debug().Int("events", len(events)).Str("topic", s.topic).Msg("Published event batch")
	return nil
}
