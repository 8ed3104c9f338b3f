package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/craftedby/marketplace/internal/auth"
	"github.com/craftedby/marketplace/internal/config"
	"github.com/craftedby/marketplace/internal/event"
	"github.com/craftedby/marketplace/internal/http"
	"github.com/craftedby/marketplace/internal/invoice"
	"github.com/craftedby/marketplace/internal/log"
	"github.com/craftedby/marketplace/internal/relay"
	"github.com/craftedby/marketplace/internal/repository"
	"github.com/craftedby/marketplace/internal/service"
	"github.com/craftedby/marketplace/internal/storage/cache"
	"github.com/craftedby/marketplace/internal/storage/db"
	"github.com/craftedby/marketplace/internal/storage/mq"
	"github.com/craftedby/marketplace/internal/telemetry"
	"github.com/craftedby/marketplace/pkg/cmdutil"
	"github.com/craftedby/marketplace/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
		Auth     config.Auth
		Redis    config.Redis
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("error creating redis cache: %w", err)
	}
	defer redisCache.Close()

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	userRepository := repository.NewUserRepository(dbClient)
	productRepository := repository.NewProductRepository(dbClient)
	orderRepository := repository.NewOrderRepository(dbClient)
	reportRepository := repository.NewReportRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	tokenManager := auth.NewTokenManager(cfg.Auth)
	passwordHasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(userRepository, tokenManager, passwordHasher)
	catalogService := service.NewCatalogService(dbClient, logger, productRepository, outboxMsgRepository, redisCache)
	orderService := service.NewOrderService(dbClient, productRepository, orderRepository, userRepository, outboxMsgRepository, invoice.NewPDFRenderer())
	reportService := service.NewReportService(reportRepository)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer, redisCache)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, tokenManager, v, authService, catalogService, orderService, reportService)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
