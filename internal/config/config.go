// Пакет config — загрузка и валидация конфигурации fileflow
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Режимы валидации токенов.
const (
	// AuthModeRemote — валидация через endpoint auth-сервиса (per-request).
	AuthModeRemote = "remote"
	// AuthModeJWKS — локальная валидация подписи RS256 через JWKS auth-сервиса.
	AuthModeJWKS = "jwks"
)

// Config содержит все параметры конфигурации fileflow.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- PostgreSQL (реестр метаданных) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- Identity Provider ---

	// AuthMode — режим валидации токенов (remote, jwks)
	AuthMode string
	// AuthURL — базовый URL auth-сервиса (validate endpoint, health)
	AuthURL string
	// AuthJWKSURL — URL JWKS endpoint auth-сервиса (для режима jwks)
	AuthJWKSURL string
	// AuthIssuer — ожидаемый issuer JWT (пусто — не проверяется)
	AuthIssuer string
	// AuthTimeout — таймаут HTTP-запросов к auth-сервису
	AuthTimeout time.Duration
	// AuthJWTLeeway — допустимое отклонение времени при проверке JWT
	AuthJWTLeeway time.Duration
	// AuthJWKSRefreshInterval — интервал фонового обновления JWKS-ключей
	AuthJWKSRefreshInterval time.Duration
	// AuthCACertPath — опциональный CA-сертификат для TLS к auth-сервису
	AuthCACertPath string

	// --- Объектное хранилище (MinIO) ---

	// S3Endpoint — адрес MinIO (host:port, без схемы)
	S3Endpoint string
	// S3AccessKey, S3SecretKey — учётные данные
	S3AccessKey string
	S3SecretKey string
	// S3UseSSL — использовать TLS при подключении к MinIO
	S3UseSSL bool
	// S3Bucket — имя bucket для блобов (по умолчанию fileflow)
	S3Bucket string

	// --- Загрузка ---

	// MaxUploadSize — максимальный размер одного файла (байт)
	MaxUploadSize int64

	// --- Кэш метаданных ---

	// CacheSize — максимальное количество записей в LRU-кэше
	CacheSize int
	// CacheTTL — время жизни записи кэша
	CacheTTL time.Duration

	// --- Dephealth (topologymetrics) ---

	// DephealthEnabled — включает мониторинг зависимостей
	DephealthEnabled bool
	// DephealthGroup — имя группы в метриках
	DephealthGroup string
	// DephealthCheckInterval — интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// DephealthIsEntry — лейбл isentry=yes для всех зависимостей
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
//
//nolint:cyclop // последовательная загрузка параметров
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("FF_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FF_PORT: %w", err)
	}

	logLevel := getEnvDefault("FF_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("FF_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("FF_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FF_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.HTTPReadTimeout, err = getEnvDuration("FF_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("FF_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("FF_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_HTTP_IDLE_TIMEOUT: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("FF_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("FF_DB_HOST", "localhost")
	cfg.DBPort, err = getEnvInt("FF_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FF_DB_PORT: %w", err)
	}
	cfg.DBName = getEnvDefault("FF_DB_NAME", "fileflow")
	cfg.DBUser, err = getEnvRequired("FF_DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword, err = getEnvRequired("FF_DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.DBSSLMode = getEnvDefault("FF_DB_SSLMODE", "disable")

	// --- Identity Provider ---

	cfg.AuthMode = getEnvDefault("FF_AUTH_MODE", AuthModeRemote)
	if cfg.AuthMode != AuthModeRemote && cfg.AuthMode != AuthModeJWKS {
		return nil, fmt.Errorf("FF_AUTH_MODE: недопустимый режим %q, допустимые: remote, jwks", cfg.AuthMode)
	}

	cfg.AuthURL, err = getEnvRequired("FF_AUTH_URL")
	if err != nil {
		return nil, err
	}

	cfg.AuthJWKSURL = getEnvDefault("FF_AUTH_JWKS_URL", "")
	if cfg.AuthMode == AuthModeJWKS && cfg.AuthJWKSURL == "" {
		return nil, fmt.Errorf("FF_AUTH_JWKS_URL: обязательна в режиме jwks")
	}

	cfg.AuthIssuer = getEnvDefault("FF_AUTH_ISSUER", "")

	cfg.AuthTimeout, err = getEnvDuration("FF_AUTH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_AUTH_TIMEOUT: %w", err)
	}

	cfg.AuthJWTLeeway, err = getEnvDuration("FF_AUTH_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_AUTH_JWT_LEEWAY: %w", err)
	}

	cfg.AuthJWKSRefreshInterval, err = getEnvDuration("FF_AUTH_JWKS_REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FF_AUTH_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.AuthCACertPath = getEnvDefault("FF_AUTH_CA_CERT_PATH", "")

	// --- MinIO ---

	cfg.S3Endpoint, err = getEnvRequired("FF_S3_ENDPOINT")
	if err != nil {
		return nil, err
	}
	cfg.S3AccessKey, err = getEnvRequired("FF_S3_ACCESS_KEY")
	if err != nil {
		return nil, err
	}
	cfg.S3SecretKey, err = getEnvRequired("FF_S3_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	cfg.S3UseSSL, err = getEnvBool("FF_S3_USE_SSL", false)
	if err != nil {
		return nil, fmt.Errorf("FF_S3_USE_SSL: %w", err)
	}
	cfg.S3Bucket = getEnvDefault("FF_S3_BUCKET", "fileflow")

	// --- Загрузка ---

	maxUpload, err := getEnvInt("FF_MAX_UPLOAD_SIZE_MB", 1024)
	if err != nil {
		return nil, fmt.Errorf("FF_MAX_UPLOAD_SIZE_MB: %w", err)
	}
	cfg.MaxUploadSize = int64(maxUpload) << 20

	// --- Кэш ---

	cfg.CacheSize, err = getEnvInt("FF_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("FF_CACHE_SIZE: %w", err)
	}
	cfg.CacheTTL, err = getEnvDuration("FF_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FF_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	cfg.DephealthEnabled, err = getEnvBool("FF_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("FF_DEPHEALTH_ENABLED: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("FF_DEPHEALTH_GROUP", "fileflow")
	cfg.DephealthCheckInterval, err = getEnvDuration("FF_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FF_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает DSN для pgxpool.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения (для golang-migrate и dephealth).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
