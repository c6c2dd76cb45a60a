package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/config"
	"github.com/dealnest/dealnest-backend/internal/db"
	"github.com/dealnest/dealnest-backend/internal/goroutine"
	httpHandlers "github.com/dealnest/dealnest-backend/internal/http/handlers"
	httpRouter "github.com/dealnest/dealnest-backend/internal/http/router"
	"github.com/dealnest/dealnest-backend/internal/logger"
	"github.com/dealnest/dealnest-backend/internal/repository"
	"github.com/dealnest/dealnest-backend/internal/service"
	"github.com/dealnest/dealnest-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	dealRepo := repository.NewDealRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	submissionRepo := repository.NewSubmissionRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы. Настройки читаются через кэш: фандинг и планировщик
	// обращаются к ним постоянно, меняются они редко.
	settingsCache := service.NewSettingsCache(settingsRepo, 30*time.Second)
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	dealService := service.NewDealService(dealRepo, settingsCache, submissionRepo)
	disputeService := service.NewDisputeService(disputeRepo, dealRepo)
	walletService := service.NewWalletService(walletRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	settingsService.SetCache(settingsCache)
	seedService := service.NewSeedService(userRepo, walletService, dealService)
	scheduler := service.NewEscrowScheduler(dealRepo, walletRepo, settingsCache, logger.Log, cfg.SchedulerInterval)

	// Вебсокеты: события сделок уходят участникам и дублируются в БД.
	hub := ws.NewHub(ctx, logger.Log)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo(hub.Run)

	dealService.SetHub(hub)
	disputeService.SetHub(hub)
	scheduler.SetHub(hub)

	// Планировщик автовыплат: сверка после рестарта и периодические проходы.
	goroutine.SafeGoWithContext(ctx, scheduler.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	dealHandler := httpHandlers.NewDealHandler(dealService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	adminHandler := httpHandlers.NewAdminHandler(dealService, disputeService, settingsService, scheduler)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, logger.Log)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	engine := httpRouter.SetupRouter(cfg, authHandler, dealHandler, disputeHandler,
		walletHandler, adminHandler, notificationHandler, wsHandler, healthHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
