package main

import (
	"context"

	"lodge/internal/bookings/handler"
	"lodge/internal/bookings/notifier"
	"lodge/internal/bookings/repository"
	"lodge/internal/bookings/service"
	"lodge/internal/bookings/validator"
	"lodge/internal/bookings/verifier"
	migrations "lodge/internal/migrations/mongo"
	"lodge/pkg/app"
	"lodge/pkg/config"
	"lodge/pkg/kafka"
	kafka_middleware "lodge/pkg/kafka/middleware"
)

const ServiceName = "booking-api"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Booking service")
	serverApp := app.NewApplication(cfg)

	bookingRepo := initRepository(cfg)
	bookingService := initServices(cfg, serverApp, bookingRepo)

	serverApp.SetApp(
		handler.NewHealthHandler(bookingRepo, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log, serverApp.BookingRouteMiddleware()...),
	)
	serverApp.Run()
}

func initRepository(cfg *config.Config) repository.BookingRepository {
	if cfg.BookingStore == config.StoreMongo {
		cfg.SetMongo()
		db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
		defer cancel()
		if err := migrations.RunMigration(ctx, db, cfg.Log); err != nil {
			cfg.Log.Fatal("Failed to run Mongo migrations", "error", err)
		}

		cfg.Log.Info("Booking store initialized", "store", cfg.BookingStore, "database", cfg.MongoDatabaseName)
		return repository.NewMongoBookingRepository(db, cfg.WriteTimeout)
	}

	cfg.Log.Info("Booking store initialized", "store", cfg.BookingStore, "path", cfg.BookingsFile)
	return repository.NewFileBookingRepository(cfg.BookingsFile, cfg.Log)
}

func initServices(cfg *config.Config, serverApp *app.Application, bookingRepo repository.BookingRepository) service.BookingService {
	bookingVerifier := verifier.New(verifier.Config{
		Secret:    cfg.RecaptchaSecret,
		MinScore:  cfg.RecaptchaMinScore,
		VerifyURL: cfg.RecaptchaVerifyURL,
		Timeout:   cfg.RecaptchaTimeout,
	}, cfg.Log)

	mailNotifier, err := notifier.NewSMTP(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.SMTPSecure,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.FromEmail,
		To:       cfg.NotifyEmail,
		Subject:  cfg.EmailSubject,
		Timeout:  cfg.SMTPTimeout,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to configure email notifications", "error", err)
	}

	var eventNotifier notifier.Notifier = notifier.Nop{}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.BookingsTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		serverApp.OnShutdown("kafka-producer", producer.Close)
		eventNotifier = notifier.NewKafka(producer)
		cfg.Log.Info("Booking events enabled", "topic", cfg.Kafka.BookingsTopic, "brokers", cfg.Kafka.Brokers)
	}

	bookingService := service.NewBookingService(
		bookingVerifier,
		validator.NewBookingValidator(cfg.Log),
		bookingRepo,
		notifier.Combine(mailNotifier, eventNotifier),
		cfg.Log,
	)

	cfg.Log.Info("Booking service initialized")
	return bookingService
}
