package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/campportal/reservation-payments/internal/api"
	"github.com/campportal/reservation-payments/internal/catalog"
	"github.com/campportal/reservation-payments/internal/config"
	"github.com/campportal/reservation-payments/internal/engine"
	"github.com/campportal/reservation-payments/internal/repository"
	"github.com/campportal/reservation-payments/internal/service"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := telemetry.InitTelemetry(telemetry.Config{
		ServiceName:    cfg.ServiceName,
		LogLevel:       cfg.LogLevel,
		LogFormat:      cfg.LogFormat,
		JaegerEndpoint: cfg.JaegerEndpoint,
	}); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())
	logger := telemetry.Logger

	logger.Info("Starting Reservation Payments", zap.String("catalog_source", cfg.CatalogSource))

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.InitDB(context.Background(), db); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	var source catalog.Source = catalog.NewPostgresSource(db)
	if cfg.CatalogSource == config.CatalogSourceNATS {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()
		source = catalog.NewNATSSource(nc, cfg.CatalogRequestTimeout)
	}
	if cfg.CatalogCacheTTL > 0 {
		source = catalog.NewRedisCache(redisClient, source, cfg.CatalogCacheTTL, logger)
	}

	eng, err := engine.New(engine.Config{
		DepositBase:   cfg.DepositBase,
		OrderIDPrefix: cfg.OrderIDPrefix,
		Standard:      engine.StandardOrder,
		DepositPhase:  engine.DepositPhaseOrder,
	})
	if err != nil {
		logger.Fatal("Invalid engine configuration", zap.Error(err))
	}

	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers()...),
		Balancer: &kafka.Hash{},
	}
	defer kafkaWriter.Close()

	svc := service.NewReservationPayments(service.Deps{
		Reservations: repository.NewReservationRepository(db),
		Records:      repository.NewPaymentRecordRepository(db, cfg.OrderIDPrefix),
		States:       repository.NewComponentStateRepository(db),
		Catalog:      source,
		Engine:       eng,
		Locker:       service.NewRedisLocker(redisClient),
		Events:       kafkaWriter,
		Concurrency:  cfg.BatchConcurrency,
		Logger:       logger,
	})

	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	reader := service.NewPaymentEventReader(cfg.Brokers())
	defer reader.Close()
	go svc.ConsumePaymentEvents(consumeCtx, reader)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(svc),
	}

	go func() {
		logger.Info("Reservation Payments listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
