package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/constants"
	"github.com/wildtrack/ornitela-ingest/internal/models"
	"github.com/wildtrack/ornitela-ingest/pkg/identity"
	"github.com/wildtrack/ornitela-ingest/pkg/mqtt"
)

// HeartbeatService manages periodic heartbeat messages.
type HeartbeatService struct {
	PubTopic        string
	Interval        time.Duration
	IntegrationInfo identity.IntegrationInfoInterface
	QOS             int
	MqttClient      mqtt.MQTTClient
	Logger          zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHeartbeatService initializes a new HeartbeatService.
func NewHeartbeatService(pubTopic string, interval time.Duration, integrationInfo identity.IntegrationInfoInterface,
	qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *HeartbeatService {

	return &HeartbeatService{
		PubTopic:        pubTopic,
		Interval:        interval,
		IntegrationInfo: integrationInfo,
		QOS:             qos,
		MqttClient:      mqttClient,
		Logger:          logger,
	}
}

// Start launches the heartbeat loop in a separate goroutine.
func (h *HeartbeatService) Start() error {
	if h.ctx != nil {
		h.Logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runHeartbeatLoop()
	}()

	h.Logger.Info().Str("topic", h.PubTopic).Msg("HeartbeatService started successfully")
	return nil
}

// Stop gracefully stops the heartbeat service.
func (h *HeartbeatService) Stop() error {
	if h.ctx == nil {
		h.Logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.Logger.Info().Msg("HeartbeatService stopped successfully")
	return nil
}

// runHeartbeatLoop continuously sends heartbeat messages at the specified interval.
func (h *HeartbeatService) runHeartbeatLoop() {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			heartbeatMessage := models.Heartbeat{
				IntegrationID: h.IntegrationInfo.GetIntegrationID(),
				Timestamp:     time.Now(),
				Status:        constants.StatusAlive,
			}

			payload, err := json.Marshal(heartbeatMessage)
			if err != nil {
				h.Logger.Error().Err(err).Msg("Failed to serialize heartbeat message")
				continue
			}

			token := h.MqttClient.Publish(h.PubTopic, byte(h.QOS), false, payload)
			token.Wait()

			if err := token.Error(); err != nil {
				h.Logger.Error().Err(err).Msg("Failed to publish heartbeat message")
			} else {
				h.Logger.Debug().Msg("Heartbeat published successfully")
			}

		case <-h.ctx.Done():
			h.Logger.Info().Msg("HeartbeatService stopping gracefully")
			return
		}
	}
}
