package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/fileflow/internal/authclient"
)

// mockValidator — мок authclient.Validator для unit-тестов.
type mockValidator struct {
	validateFn func(ctx context.Context, token string) (*authclient.Identity, error)
}

func (m *mockValidator) Validate(ctx context.Context, token string) (*authclient.Identity, error) {
	return m.validateFn(ctx, token)
}

// newAuthTestHandler создаёт цепочку auth middleware + handler,
// записывающий subject из контекста.
func newAuthTestHandler(validator authclient.Validator, gotSubject *string) http.Handler {
	auth := NewAuth(validator, slog.Default())
	return auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

// TestAuth_ValidToken проверяет пропуск валидного токена и
// передачу субъекта в контекст запроса.
func TestAuth_ValidToken(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*authclient.Identity, error) {
			if token != "good-token" {
				t.Errorf("токен = %q, ожидался good-token", token)
			}
			return &authclient.Identity{Subject: "alice"}, nil
		},
	}

	var gotSubject string
	handler := newAuthTestHandler(validator, &gotSubject)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидался 200", rec.Code)
	}
	if gotSubject != "alice" {
		t.Errorf("subject = %q, ожидался alice", gotSubject)
	}
}

// TestAuth_MissingHeader проверяет 401 без заголовка Authorization.
func TestAuth_MissingHeader(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*authclient.Identity, error) {
			t.Error("валидатор не должен вызываться без токена")
			return nil, nil
		},
	}

	var gotSubject string
	handler := newAuthTestHandler(validator, &gotSubject)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

// TestAuth_BadFormat проверяет 401 при неверном формате заголовка.
func TestAuth_BadFormat(t *testing.T) {
	var gotSubject string
	handler := newAuthTestHandler(&mockValidator{
		validateFn: func(ctx context.Context, token string) (*authclient.Identity, error) {
			t.Error("валидатор не должен вызываться при неверном формате")
			return nil, nil
		},
	}, &gotSubject)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("заголовок %q: статус = %d, ожидался 401", header, rec.Code)
		}
	}
}

// TestAuth_InvalidToken проверяет 401 с кодом UNAUTHORIZED в теле.
func TestAuth_InvalidToken(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*authclient.Identity, error) {
			return nil, authclient.ErrInvalidToken
		},
	}

	var gotSubject string
	handler := newAuthTestHandler(validator, &gotSubject)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("статус = %d, ожидался 401", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("код = %q, ожидался UNAUTHORIZED", body.Error.Code)
	}
}

// TestAuth_ServiceUnavailable проверяет, что недоступность сервиса
// аутентификации для клиента неотличима от невалидного токена: 401
// с кодом UNAUTHORIZED, запрос до handler не доходит.
func TestAuth_ServiceUnavailable(t *testing.T) {
	validator := &mockValidator{
		validateFn: func(ctx context.Context, token string) (*authclient.Identity, error) {
			return nil, authclient.ErrUnavailable
		},
	}

	var gotSubject string
	handler := newAuthTestHandler(validator, &gotSubject)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("статус = %d, ожидался 401", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("декодирование ответа: %v", err)
	}
	if body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("код = %q, ожидался UNAUTHORIZED", body.Error.Code)
	}
	if gotSubject != "" {
		t.Errorf("handler не должен вызываться, subject = %q", gotSubject)
	}
}

// TestNormalizePath проверяет нормализацию путей для метрик.
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/ready", "/health/ready"},
		{"/api/v1/files", "/api/v1/files"},
		{"/api/v1/files/upload", "/api/v1/files/upload"},
		{"/api/v1/files/42", "/api/v1/files/{id}"},
		{"/api/v1/files/42/download", "/api/v1/files/{id}/download"},
		{"/api/v1/files/42/share", "/api/v1/files/{id}/share"},
		{"/api/v1/files/42/share/bob", "/api/v1/files/{id}/share/{user}"},
		{"/api/v1/shares/with-me", "/api/v1/shares/with-me"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидался %q", tt.path, got, tt.want)
		}
	}
}
