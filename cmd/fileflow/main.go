// Точка входа FileFlow — сервиса загрузки и обмена файлами.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL
// и MinIO, создаёт bucket, инициализирует валидатор токенов, сервисный
// слой и API handlers, запускает topologymetrics и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/fileflow/internal/api/handlers"
	"github.com/bigkaa/fileflow/internal/api/middleware"
	"github.com/bigkaa/fileflow/internal/authclient"
	"github.com/bigkaa/fileflow/internal/config"
	"github.com/bigkaa/fileflow/internal/database"
	"github.com/bigkaa/fileflow/internal/objectstore"
	"github.com/bigkaa/fileflow/internal/repository"
	"github.com/bigkaa/fileflow/internal/server"
	"github.com/bigkaa/fileflow/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("FileFlow запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("auth_mode", cfg.AuthMode),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Объектное хранилище (MinIO) + bucket при старте
	store, err := objectstore.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL, cfg.S3Bucket, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента MinIO", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("Ошибка создания bucket", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Объектное хранилище готово",
		slog.String("endpoint", cfg.S3Endpoint),
		slog.String("bucket", cfg.S3Bucket),
	)

	// 6. Валидатор токенов (remote или jwks)
	var validator authclient.Validator
	if cfg.AuthMode == config.AuthModeJWKS {
		validator, err = authclient.NewJWKSValidator(
			cfg.AuthJWKSURL,
			cfg.AuthIssuer,
			cfg.AuthTimeout,
			cfg.AuthJWKSRefreshInterval,
			cfg.AuthJWTLeeway,
			logger,
		)
	} else {
		validator, err = authclient.New(cfg.AuthURL, cfg.AuthCACertPath, cfg.AuthTimeout, logger)
	}
	if err != nil {
		logger.Error("Ошибка создания валидатора токенов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	fileRepo := repository.NewFileRepository(pool)
	shareRepo := repository.NewShareRepository(pool)

	// 8. Кэш метаданных и сервисный слой
	cache := service.NewRecordCache(cfg.CacheSize, cfg.CacheTTL)
	uploadSvc := service.NewUploadService(fileRepo, store, cfg.MaxUploadSize, logger)
	downloadSvc := service.NewDownloadService(fileRepo, shareRepo, cache, store, logger)
	deleteSvc := service.NewDeleteService(fileRepo, cache, store, logger)
	shareSvc := service.NewShareService(fileRepo, shareRepo, logger)
	browseSvc := service.NewBrowseService(fileRepo, logger)

	// 9. Readiness checkers (PostgreSQL + MinIO + Auth Service)
	pgChecker := database.NewReadinessChecker(pool)
	minioChecker := store.NewReadinessChecker()
	authChecker, err := authclient.NewReadinessChecker(cfg.AuthURL, cfg.AuthCACertPath, cfg.AuthTimeout)
	if err != nil {
		logger.Error("Ошибка создания auth readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, minioChecker, authChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		uploadSvc,
		downloadSvc,
		deleteSvc,
		shareSvc,
		browseSvc,
		logger,
	)

	// 11. topologymetrics — мониторинг зависимостей
	if cfg.DephealthEnabled {
		dephealthSvc, dephealthErr := service.NewDephealthService(
			"fileflow",
			cfg.DephealthGroup,
			pgDB,
			cfg.DatabaseURL(),
			cfg.AuthURL,
			objectstore.HealthURL(cfg.S3Endpoint, cfg.S3UseSSL),
			cfg.DephealthCheckInterval,
			cfg.DephealthIsEntry,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Middleware: метрики → логирование → аутентификация.
	// Health endpoints и /metrics доступны без токена.
	authMiddleware := middleware.NewAuth(validator, logger)
	middlewares := []func(http.Handler) http.Handler{
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		server.WithExclusions(authMiddleware.Middleware(), "/health/", "/metrics"),
	}

	// 13. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler, healthHandler, middlewares...)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("FileFlow остановлен")
}
