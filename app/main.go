package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"vitrina-crm/internal/bot"
	"vitrina-crm/internal/listeners"
	"vitrina-crm/internal/rbd"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/internal/routes"
	"vitrina-crm/internal/scheduler"
	"vitrina-crm/internal/services"
	"vitrina-crm/migrations"
	"vitrina-crm/pkg/config"
	"vitrina-crm/pkg/customvalidator"
	"vitrina-crm/pkg/database/postgresql"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/eventbus"
	applogger "vitrina-crm/pkg/logger"
	"vitrina-crm/pkg/service"
	"vitrina-crm/pkg/utils"
)

func main() {
	logger := applogger.NewLogger()
	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Миграции ---
	// goose работает через database/sql, пул pgx живёт отдельно.
	migrateDB, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось открыть соединение для миграций", zap.Error(err))
	}
	if err := migrations.Run(migrateDB); err != nil {
		logger.Fatal("миграции не применились", zap.Error(err))
	}
	migrateDB.Close()

	// --- Хранилища ---
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis",
			zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("паника в обработчике запроса",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{"Content-Disposition"},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("не удалось зарегистрировать правила валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	// --- Репозитории ---
	txManager := repositories.NewTxManager(dbConn)
	propertyRepo := repositories.NewPropertyRepository(dbConn, logger)
	parsedRepo := repositories.NewParsedPropertyRepository(dbConn, logger)
	agentRepo := repositories.NewAgentRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- Сервисы ---
	bus := eventbus.New(logger)
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger)

	rbdClient, err := rbd.NewClient(cfg.RBD, logger)
	if err != nil {
		logger.Fatal("не удалось создать клиент rbd.kz", zap.Error(err))
	}

	authService := services.NewAuthService(jwtSvc, cfg.AdminLogin, cfg.AdminPasswordHash, logger)
	propertyService := services.NewPropertyService(propertyRepo, bus, logger)
	listingService := services.NewListingService(parsedRepo, agentRepo, cacheRepo, bus, logger)
	agentService := services.NewAgentService(agentRepo, logger)
	sheetSyncService := services.NewSheetSyncService(txManager, propertyRepo, logger)
	rbdSyncService := services.NewRBDSyncService(rbdClient, parsedRepo, cacheRepo, bus, cfg.RBD, logger)
	archiveService := services.NewArchiveService(parsedRepo, cfg.Archive, logger)
	recallService := services.NewRecallService(parsedRepo, cacheRepo, bus, logger)
	reportService := services.NewReportService(parsedRepo, agentRepo, logger)

	// --- Бот ---
	sessions := bot.NewSessionStore(cacheRepo)
	tgBot, err := bot.New(cfg.Bot, sessions, agentService, propertyService, listingService, logger)
	if err != nil {
		logger.Fatal("не удалось создать telegram-бота", zap.Error(err))
	}

	listeners.NewNotificationListener(tgBot, agentRepo, logger).Register(bus)
	listeners.NewAuditListener(logger).Register(bus)

	if cfg.Bot.UseWebhook {
		if err := tgBot.SetupWebhook(cfg.Bot.WebhookURL); err != nil {
			logger.Fatal("не удалось зарегистрировать webhook", zap.Error(err))
		}
	} else {
		go tgBot.Run(ctx)
	}

	// --- Планировщик ---
	sched := scheduler.New(recallService, rbdSyncService, archiveService, cfg.Cron, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("планировщик не запустился", zap.Error(err))
	}
	defer sched.Stop()

	// --- Маршруты и серверы ---
	routes.InitRouter(e, routes.Deps{
		JWTService: jwtSvc,
		Auth:       authService,
		Properties: propertyService,
		Listings:   listingService,
		Agents:     agentService,
		SheetSync:  sheetSyncService,
		RBDSync:    rbdSyncService,
		Archive:    archiveService,
		Recall:     recallService,
		Reports:    reportService,
		Bot:        tgBot,
		Logger:     logger,
	})

	// Отдельный health-порт: liveness-пробы не ходят через основной API.
	healthSrv := &http.Server{
		Addr: ":" + cfg.Server.HealthPort,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := dbConn.Ping(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		}),
	}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health-сервер упал", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("останавливаемся...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки сервера", zap.Error(err))
	}
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки health-сервера", zap.Error(err))
	}
}
