// auth.go — middleware аутентификации входящих запросов.
// Извлекает Bearer token и валидирует его через authclient.Validator
// (remote-режим — вызов Auth Service, jwks-режим — локальная проверка
// подписи JWT). Аутентифицированный субъект помещается в контекст.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/fileflow/internal/api/errors"
	"github.com/bigkaa/fileflow/internal/authclient"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyIdentity — аутентифицированный субъект в контексте запроса.
	ContextKeyIdentity contextKey = "identity"
)

// Auth — middleware аутентификации.
type Auth struct {
	validator authclient.Validator
	logger    *slog.Logger
}

// NewAuth создаёт middleware аутентификации.
func NewAuth(validator authclient.Validator, logger *slog.Logger) *Auth {
	return &Auth{
		validator: validator,
		logger:    logger.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Запрос без валидного токена отклоняется с 401. Недоступность
// сервиса аутентификации тоже 401: без подтверждённого субъекта
// запрос не аутентифицирован, причина клиенту не раскрывается.
func (a *Auth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				apierrors.Unauthorized(w, "Требуется заголовок Authorization: Bearer <token>")
				return
			}

			identity, err := a.validator.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, authclient.ErrUnavailable) {
					// Отказ транспорта и невалидный токен для клиента
					// неразличимы, но недоступность логируем как ошибку.
					a.logger.Error("Сервис аутентификации недоступен",
						slog.String("error", err.Error()),
					)
					apierrors.Unauthorized(w, "Невалидный или просроченный токен")
					return
				}
				a.logger.Debug("Токен не прошёл валидацию",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken извлекает токен из заголовка Authorization.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// --- Context helpers ---

// IdentityFromContext извлекает аутентифицированный субъект из контекста.
// Возвращает nil, если запрос не прошёл аутентификацию.
func IdentityFromContext(ctx context.Context) *authclient.Identity {
	identity, _ := ctx.Value(ContextKeyIdentity).(*authclient.Identity)
	return identity
}

// SubjectFromContext извлекает имя пользователя из контекста.
// Возвращает пустую строку, если субъект не найден.
func SubjectFromContext(ctx context.Context) string {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return ""
	}
	return identity.Subject
}
