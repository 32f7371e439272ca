package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	bookingshandler "laundro/internal/bookings/handler"
	bookingsrepo "laundro/internal/bookings/repository"
	bookingsservice "laundro/internal/bookings/service"
	bookingsvalidator "laundro/internal/bookings/validator"
	"laundro/internal/hub"
	maintenancehandler "laundro/internal/maintenance/handler"
	maintenancerepo "laundro/internal/maintenance/repository"
	maintenanceservice "laundro/internal/maintenance/service"
	settingshandler "laundro/internal/settings/handler"
	settingsrepo "laundro/internal/settings/repository"
	settingsservice "laundro/internal/settings/service"
	"laundro/pkg/app"
	"laundro/pkg/config"
	"laundro/pkg/contracts"
	"laundro/pkg/kafka"
)

const ServiceName = "laundro"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)

	cfg.Log.Info("Starting laundry coordination service")

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event producer", "error", err)
	}

	broadcastHub := hub.NewHub(cfg.Log)
	go broadcastHub.Run()

	// Every instance needs the full change feed, so each joins its own
	// consumer group.
	groupID := ServiceName + "-hub-" + uuid.New().String()
	consumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaEventsTopic,
		groupID,
		hub.ChangeRelay(broadcastHub, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create change-feed consumer", "error", err)
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	consumer.Start(consumerCtx)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, hub.NewHandler(broadcastHub), initHandlers(cfg, producer)...)
	serverApp.Run()

	cancelConsumer()
	if err := consumer.Stop(); err != nil {
		cfg.Log.Error("Failed to stop change-feed consumer", "error", err)
	}
	broadcastHub.Stop()
	if err := producer.Close(); err != nil {
		cfg.Log.Error("Failed to close event producer", "error", err)
	}
}

func initHandlers(cfg *config.Config, events *kafka.Producer) []contracts.Handler {
	bookingValidator := bookingsvalidator.NewBookingValidator(cfg.Log)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	bookingService := bookingsservice.NewBookingService(bookingRepo, bookingValidator, events, cfg)

	maintenanceRepo := maintenancerepo.NewMongoMaintenanceRepository(cfg)
	maintenanceService := maintenanceservice.NewMaintenanceService(maintenanceRepo, events, cfg)

	settingsRepo := settingsrepo.NewMongoSettingsRepository(cfg)
	settingsService := settingsservice.NewSettingsService(settingsRepo, events, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		maintenancehandler.NewMaintenanceHandler(maintenanceService, cfg.Log),
		settingshandler.NewSettingsHandler(settingsService, cfg.Log),
	}
}
