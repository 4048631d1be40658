package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homestead-rentals/service-booking/internal/application"
	"github.com/homestead-rentals/service-booking/internal/cache"
	"github.com/homestead-rentals/service-booking/internal/common/auth"
	"github.com/homestead-rentals/service-booking/internal/common/database"
	"github.com/homestead-rentals/service-booking/internal/common/health"
	"github.com/homestead-rentals/service-booking/internal/common/kafka"
	"github.com/homestead-rentals/service-booking/internal/common/logger"
	"github.com/homestead-rentals/service-booking/internal/config"
	bookingDomain "github.com/homestead-rentals/service-booking/internal/domain/booking"
	bookingEvents "github.com/homestead-rentals/service-booking/internal/events"
	"github.com/homestead-rentals/service-booking/internal/handler"
	"github.com/homestead-rentals/service-booking/internal/repository"
	"github.com/homestead-rentals/service-booking/migrations"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(&repository.PropertyModel{}, &repository.ProfileModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), migrations.FS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.Issuer)

	// Initialize booked dates cache
	var bookedDates application.BookedDatesCache
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		bookedDates = cache.NewBookedDatesCache(redisClient, cfg.RedisConfig.TTL)
	} else {
		log.Info("redis not configured, booked dates cache disabled")
	}

	// Initialize repositories
	txManager := repository.NewGormTxManager(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	propertyRepo := repository.NewGormPropertyRepository(db)
	profileRepo := repository.NewGormProfileRepository(db)

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize application services
	bookingService := application.NewBookingService(
		txManager,
		bookingRepo,
		propertyRepo,
		profileRepo,
		bookingDomain.NewNightlyPricingStrategy(),
		publisher,
		bookedDates,
		log,
	)
	catalogService := application.NewCatalogService(propertyRepo, profileRepo, bookedDates, log)

	// Start read-model consumers
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"

		propertyConsumer := bookingEvents.NewPropertyEventConsumer(cfg.KafkaConfig.Brokers, groupID, catalogService, log)
		defer func() { _ = propertyConsumer.Close() }()
		go func() {
			log.Info("starting property event consumer")
			if err := propertyConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("property event consumer error", zap.Error(err))
			}
		}()

		userConsumer := bookingEvents.NewUserEventConsumer(cfg.KafkaConfig.Brokers, groupID, catalogService, log)
		defer func() { _ = userConsumer.Close() }()
		go func() {
			log.Info("starting user event consumer")
			if err := userConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("user event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(log, jwtManager, bookingService, health.NewHandler(db, serviceName))

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
