package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-busbooking/internal/api"
	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/catalog"
	"ms-busbooking/internal/config"
	"ms-busbooking/internal/database"
	"ms-busbooking/internal/database/migrations"
	"ms-busbooking/internal/kafka"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/order"
	"ms-busbooking/internal/order/db"
	rediswrap "ms-busbooking/internal/order/redis"
	"ms-busbooking/internal/session"
	"ms-busbooking/internal/sse"
	"ms-busbooking/internal/tickets/qr"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func main() {
	log := logger.NewLogger("bus-booking")
	defer log.Close()

	log.Info("APP", "Starting bus booking service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("APP", "Verifying database connections")
	bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	prepareSchema(ctx, bunDB, cfg.Database, log)

	redisClient, err := database.OpenRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer redisClient.Close()

	publisher := newPublisher(ctx, cfg.Kafka, log)
	defer publisher.Close()

	if cfg.Kafka.Enabled && cfg.Kafka.ConsumerEnabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.Topics, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		go consumer.Start(ctx, kafka.NotifyHandler(log))
		log.Info("KAFKA", "Booking notification consumer started")
	}

	catalogService := catalog.NewService(redisClient, cfg.Booking.SearchCacheTTL, log)
	seatLocks := rediswrap.NewRedis(redisClient, cfg.Booking.SeatLockTTL, log)

	var gateway order.PaymentGateway = order.MockGateway{}
	if cfg.Payment.StripeSecretKey != "" {
		gateway = order.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.Currency, nil)
	}
	log.Info("PAYMENT", fmt.Sprintf("Using %s payment gateway", gateway.Name()))

	orderService := order.NewOrderService(
		&db.DB{Bun: bunDB},
		seatLocks,
		publisher,
		catalogService,
		qr.NewQRGenerator(cfg.Booking.QRSecret),
		gateway,
		log,
	)
	orderService.WebhookSecret = cfg.Payment.StripeWebhookSecret
	seatEvents := sse.NewSeatEventEmitter()
	orderService.Seats = seatEvents

	log.Info("REDIS", "Starting seat unlock subscription")
	if err := seatLocks.SubscribeExpired(ctx, orderService.HandleSeatLockExpired); err != nil {
		log.Error("REDIS", fmt.Sprintf("Seat lock expiry handling disabled: %v", err))
	}

	sessions := session.NewRegistry(cfg.Booking.SessionTTL, log)
	sessions.StartSweeper(ctx, cfg.Booking.SweepInterval)

	tokens := auth.NewHMACTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	verifier := auth.Chain{tokens}
	if cfg.Auth.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			log.Error("AUTH", fmt.Sprintf("OIDC provider unavailable, continuing with local tokens: %v", err))
		} else {
			verifier = append(verifier, oidcVerifier)
			log.Info("AUTH", fmt.Sprintf("Accepting OIDC tokens from %s", cfg.Auth.OIDCIssuer))
		}
	}

	handler := &api.Handler{
		Catalog:  catalogService,
		Sessions: sessions,
		Orders:   orderService,
		Users:    auth.NewDirectory(),
		Tokens:   tokens,
		Auth: &auth.Authenticator{
			Verifier: verifier,
			Revoked:  auth.NewRevocationList(redisClient),
			Logger:   log,
		},
		SeatEvents: seatEvents,
		Logger:     log,
	}

	log.Info("HTTP", "Setting up router and middleware")
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Bus booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Bus booking service shutdown complete")
	}
}

// prepareSchema runs the SQL migrations, or creates tables from the models
// when migrations are switched off.
func prepareSchema(ctx context.Context, bunDB *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) {
	if !cfg.AutoMigrate {
		if err := (&db.DB{Bun: bunDB}).CreateSchema(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.MigrationsPath,
		AutoMigrate:   cfg.AutoMigrate,
		SeedData:      cfg.SeedData,
	}, log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
	log.Info("MIGRATION", "✅ Database migrations complete")
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) kafka.Publisher {
	if !cfg.Enabled {
		log.Warn("KAFKA", "Kafka disabled, booking events are only logged")
		return kafka.LogPublisher{Logger: log}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Brokers))
	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, kafka.Topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	return kafka.NewProducer(cfg.Brokers, log)
}
