package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wildtrack/ornitela-ingest/internal/pipeline"
	"github.com/wildtrack/ornitela-ingest/internal/service_registry"
	"github.com/wildtrack/ornitela-ingest/internal/services"
	"github.com/wildtrack/ornitela-ingest/internal/utils"
	"github.com/wildtrack/ornitela-ingest/pkg/delivery"
	"github.com/wildtrack/ornitela-ingest/pkg/file"
	"github.com/wildtrack/ornitela-ingest/pkg/filelock"
	"github.com/wildtrack/ornitela-ingest/pkg/identity"
	"github.com/wildtrack/ornitela-ingest/pkg/mqtt"
	"github.com/wildtrack/ornitela-ingest/pkg/statestore"
	"github.com/wildtrack/ornitela-ingest/pkg/storage"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Load the integration identity; its ID scopes locks and state
	integrationInfo := identity.NewIntegrationInfo(config.Identity.IntegrationFile, fileClient)
	if err := integrationInfo.LoadIntegrationInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load integration identity")
	}

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient, logger)
	if err := mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Connect to object storage
	store, err := storage.NewMinioStore(
		config.Storage.Endpoint,
		config.Storage.AccessKey,
		config.Storage.SecretKey,
		config.Storage.UseSSL,
		config.Storage.Bucket,
		config.Storage.Prefix,
		config.Storage.ChunkSizeBytes,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to object storage")
	}

	// Connect to Redis for file locks and processing state
	redisClient := redis.NewClient(&redis.Options{
		Addr: config.Redis.Address,
		DB:   config.Redis.DB,
	})
	locker := filelock.NewRedisLocker(redisClient, config.Redis.LockTTL, logger)
	states := statestore.NewRedisStore(redisClient)

	// Assemble the per-file pipeline and its delivery boundary
	sender := delivery.NewMQTTSender(mqttClient, config.MQTT.EventsTopic, byte(config.MQTT.QOS), logger)
	processor := pipeline.NewProcessor(sender, config.Processing.BatchSize, config.Processing.MaxAgeDays, logger)

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(logger)

	serviceRegistry.RegisterService("processing", services.NewProcessingService(
		store,
		locker,
		states,
		processor,
		integrationInfo,
		config.Processing.PollInterval,
		config.Processing.Workers,
		config.Processing.ArchiveAfterDays,
		config.Processing.DeleteAfterArchiveDays,
		logger,
	))

	if config.Processing.HeartbeatEnabled {
		serviceRegistry.RegisterService("heartbeat", services.NewHeartbeatService(
			config.MQTT.HeartbeatTopic,
			config.Processing.HeartbeatInterval,
			integrationInfo,
			config.MQTT.QOS,
			mqttClient,
			logger,
		))
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop services cleanly")
	}
	mqttClient.Disconnect(250)
}
