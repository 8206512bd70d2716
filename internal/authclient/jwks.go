// jwks.go — локальная валидация токенов через JWKS auth-сервиса.
// Режим FF_AUTH_MODE=jwks: подпись RS256 проверяется локально,
// без сетевого вызова на каждый запрос. Ключи обновляются в фоне.
package authclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims — raw claims токена auth-сервиса.
type tokenClaims struct {
	jwt.RegisteredClaims
	// PreferredUsername — имя пользователя (если auth-сервис его выдаёт).
	PreferredUsername string `json:"preferred_username,omitempty"`
	// Roles — роли субъекта.
	Roles []string `json:"roles,omitempty"`
}

// JWKSValidator — локальная валидация JWT через JWKS.
type JWKSValidator struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
	logger *slog.Logger
}

// NewJWKSValidator создаёт валидатор с JWKS из auth-сервиса.
// jwksURL — URL к JWKS endpoint.
// issuer — ожидаемый issuer JWT (пусто — issuer не проверяется).
// clientTimeout — таймаут HTTP-клиента JWKS.
// refreshInterval — интервал обновления JWKS-ключей.
// leeway — допустимое отклонение времени при проверке JWT.
func NewJWKSValidator(
	jwksURL string,
	issuer string,
	clientTimeout time.Duration,
	refreshInterval time.Duration,
	leeway time.Duration,
	logger *slog.Logger,
) (*JWKSValidator, error) {
	// JWKS Storage с фоновым обновлением.
	// NoErrorReturnFirstHTTPReq — стартуем даже если auth-сервис ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: clientTimeout},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &JWKSValidator{
		jwks:   k,
		issuer: issuer,
		leeway: leeway,
		logger: logger.With(slog.String("component", "jwks_validator")),
	}, nil
}

// Validate проверяет подпись и claims токена локально.
// Subject — preferred_username, при его отсутствии sub.
func (v *JWKSValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	rawClaims := &tokenClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, rawClaims, v.jwks.KeyfuncCtx(ctx), parserOpts...)
	if err != nil {
		v.logger.Debug("JWT валидация не пройдена",
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject := rawClaims.PreferredUsername
	if subject == "" {
		subject, err = rawClaims.GetSubject()
		if err != nil || subject == "" {
			return nil, fmt.Errorf("%w: отсутствует sub в токене", ErrInvalidToken)
		}
	}

	return &Identity{
		Subject: subject,
		Roles:   rawClaims.Roles,
	}, nil
}
