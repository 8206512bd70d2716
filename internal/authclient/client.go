// Пакет authclient — Identity Provider для fileflow.
// Validator — общий контракт валидации bearer-токена; Client — HTTP-клиент
// к validate endpoint auth-сервиса, JWKSValidator (jwks.go) — локальная
// валидация подписи через JWKS того же сервиса.
package authclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Ошибки Identity Provider.
// Невалидный токен и транспортная ошибка различимы для логов, но обе
// означают отказ аутентификации для вызывающей операции.
var (
	// ErrInvalidToken — токен отклонён провайдером (невалиден, просрочен, пуст).
	ErrInvalidToken = errors.New("токен невалиден")
	// ErrUnavailable — auth-сервис недоступен (транспорт/таймаут).
	ErrUnavailable = errors.New("auth-сервис недоступен")
)

// Identity — результат успешной валидации токена.
type Identity struct {
	// Subject — идентификатор пользователя (username)
	Subject string
	// Roles — роли субъекта (может быть пустым)
	Roles []string
}

// Validator — контракт валидации bearer-токена.
// Реализуется Client (remote) и JWKSValidator (локальная).
type Validator interface {
	// Validate валидирует токен и возвращает Identity.
	// ErrInvalidToken — токен отклонён; ErrUnavailable — провайдер недоступен.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// validationResponse — ответ validate endpoint auth-сервиса.
type validationResponse struct {
	Valid    bool     `json:"valid"`
	Username string   `json:"username"`
	Message  string   `json:"message"`
	Roles    []string `json:"roles,omitempty"`
}

// Client — HTTP-клиент валидации токенов через auth-сервис.
type Client struct {
	httpClient *http.Client
	authURL    string
	logger     *slog.Logger
}

// New создаёт клиент auth-сервиса.
// authURL — базовый URL auth-сервиса (например, http://auth-service:9000).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (из конфигурации FF_AUTH_TIMEOUT).
func New(authURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата auth: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат auth добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		authURL:    strings.TrimRight(authURL, "/"),
		logger:     logger.With(slog.String("component", "auth_client")),
	}, nil
}

// Validate валидирует токен через POST {authURL}/auth/validate-token.
// Токен передаётся в заголовке Authorization: Bearer <token>.
func (c *Client) Validate(ctx context.Context, token string) (*Identity, error) {
	reqURL := c.authURL + "/auth/validate-token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса validate: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// 401 от auth-сервиса — токен отклонён, не транспортная ошибка
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: validate endpoint вернул статус %d", ErrUnavailable, resp.StatusCode)
	}

	var vr validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: декодирование ответа validate: %v", ErrUnavailable, err)
	}

	if !vr.Valid {
		c.logger.Debug("Токен отклонён auth-сервисом",
			slog.String("message", vr.Message),
		)
		return nil, ErrInvalidToken
	}

	if vr.Username == "" {
		return nil, fmt.Errorf("%w: пустой username в ответе validate", ErrInvalidToken)
	}

	return &Identity{
		Subject: vr.Username,
		Roles:   vr.Roles,
	}, nil
}

// ReadinessChecker — проверка доступности auth-сервиса для health endpoint.
type ReadinessChecker struct {
	authURL string
	client  *http.Client
}

// NewReadinessChecker создаёт checker доступности auth-сервиса.
func NewReadinessChecker(authURL, caCertPath string, timeout time.Duration) (*ReadinessChecker, error) {
	client := &http.Client{Timeout: timeout}
	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA для readiness checker: %w", err)
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return &ReadinessChecker{
		authURL: strings.TrimRight(authURL, "/"),
		client:  client,
	}, nil
}

// CheckReady проверяет доступность health endpoint auth-сервиса.
func (r *ReadinessChecker) CheckReady() (status, message string) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		r.authURL+"/health/live", http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}
	resp, err := r.client.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return "fail", fmt.Sprintf("auth-сервис недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("auth-сервис вернул статус %d", resp.StatusCode)
	}
	return "ok", "auth-сервис доступен"
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}
