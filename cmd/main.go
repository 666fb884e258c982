package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/mangrove_watch/internal/config"
	v1 "github.com/shenikar/mangrove_watch/internal/handler/http/v1"
	"github.com/shenikar/mangrove_watch/internal/repository"
	"github.com/shenikar/mangrove_watch/internal/service"
	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/shenikar/mangrove_watch/pkg/logger"
	"github.com/shenikar/mangrove_watch/pkg/postgres"
	redisclient "github.com/shenikar/mangrove_watch/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/mangrove_watch/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Mangrove Watch API
// @version 1.0
// @description Community reporting of mangrove incidents with points, tiers and a leaderboard.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newPublisher собирает издателей событий: очередь Redis всегда, RabbitMQ при заданном AMQP_URL
func newPublisher(cfg *config.Config, redisPublisher webhook.WebhookPublisher, log *logrus.Logger) (webhook.WebhookPublisher, func()) {
	if cfg.AMQPURL == "" {
		return redisPublisher, func() {}
	}

	amqpPublisher, err := webhook.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, events go to Redis only")
		return redisPublisher, func() {}
	}
	log.WithField("exchange", cfg.AMQPExchange).Info("Successfully connected to RabbitMQ")

	return webhook.MultiPublisher{redisPublisher, amqpPublisher}, func() {
		if err := amqpPublisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close RabbitMQ connection")
		}
	}
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.WithError(err).Warn("Sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация издателей событий
	publisher, closePublisher := newPublisher(cfg, webhook.NewRedisWebhookPublisher(redisClient), log)
	defer closePublisher()

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	// Инициализация репозиториев
	txManager := postgres.NewTxManager(dbpool, cfg.StoreTimeout)
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient, cfg.StoreTimeout, cfg.IncidentCacheTTL)
	profileRepo := repository.NewProfileRepository(dbpool, cfg.StoreTimeout)

	// Инициализация сервисов
	points := service.NewPointsEngine(profileRepo, txManager, publisher, log)
	incidentService := service.NewIncidentService(incidentRepo, txManager, points, publisher, log)
	profileService := service.NewProfileService(profileRepo, points, publisher, log)
	leaderboardService := service.NewLeaderboardService(profileRepo, log)
	dashboardService := service.NewDashboardService(incidentRepo, profileRepo, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, profileService, leaderboardService, dashboardService, log, cfg)

	// Настройка Gin роутера
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	// неизвестные поля в JSON отклоняются
	binding.EnableDecoderDisallowUnknownFields = true
	router := gin.New()
	router.Use(gin.Logger(), v1.SentryRecovery(log))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()

	log.Info("Server gracefully stopped")
}
