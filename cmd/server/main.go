package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/application"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/health"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/logger"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/config"
	boardingEvents "github.com/Kilat-Pet-Delivery/service-boarding/internal/events"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-boarding/migrations"
)

const serviceName = "service-boarding"

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

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBConfig.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to prepare database", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	petRepo := repository.NewGormPetRepository(db)

	// Kafka is optional: without brokers the service runs standalone and publishes nothing.
	var publisher application.EventPublisher
	kafkaEnabled := len(cfg.KafkaConfig.Brokers) > 0
	if kafkaEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured, booking events are not published")
	}

	// Initialize application service
	bookingService := application.NewBookingService(
		bookingRepo,
		roomRepo,
		petRepo,
		publisher,
		log,
	)

	// Initialize and start payment event consumer in a goroutine
	if kafkaEnabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "boarding-service"
		paymentConsumer := boardingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

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

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// openDatabase connects to the configured store and brings its schema up to date.
// Postgres always runs the SQL migrations because the overlap exclusion constraint only
// exists there; sqlite is a development store and uses gorm auto-migration.
func openDatabase(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.DBConfig.Driver == "sqlite" {
		db, err := database.OpenSQLite(cfg.DBConfig.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed (sqlite auto-migrate)")
		return db, nil
	}

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, migrations.Dir, log); err != nil {
		return nil, err
	}
	return db, nil
}
