// Пакет objectstore — клиент объектного хранилища блобов (MinIO).
// Блобы адресуются ключом "{owner}/{id}_{fileName}" внутри одного bucket.
// Delete идемпотентен: удаление отсутствующего ключа — успех.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Ошибки объектного хранилища.
var (
	// ErrNotFound — блоб с указанным ключом отсутствует.
	ErrNotFound = errors.New("объект не найден")
)

// Store — клиент объектного хранилища.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New создаёт клиент MinIO.
// endpoint — адрес хранилища (host:port, без схемы).
func New(endpoint, accessKey, secretKey string, useSSL bool, bucket string, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("создание клиента MinIO: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucket,
		logger: logger.With(slog.String("component", "object_store")),
	}, nil
}

// EnsureBucket создаёт bucket, если он отсутствует. Идемпотентна,
// вызывается один раз при старте. Гонка "bucket уже существует"
// (например, при параллельном старте нескольких инстансов) — успех.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("проверка bucket %s: %w", s.bucket, err)
	}
	if exists {
		s.logger.Debug("Bucket уже существует", slog.String("bucket", s.bucket))
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		if isBucketExistsErr(err) {
			s.logger.Debug("Bucket создан параллельно", slog.String("bucket", s.bucket))
			return nil
		}
		return fmt.Errorf("создание bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Bucket создан", slog.String("bucket", s.bucket))
	return nil
}

// Put записывает блоб под указанным ключом.
func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("запись объекта %s: %w", key, err)
	}
	return nil
}

// Get открывает streaming-чтение блоба. Вызывающий код ОБЯЗАН закрыть reader.
// Отсутствие ключа возвращается как ErrNotFound сразу (StatObject перед
// GetObject: minio откладывает NoSuchKey до первого Read).
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKeyErr(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("проверка объекта %s: %w", key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("чтение объекта %s: %w", key, err)
	}
	return obj, nil
}

// Delete удаляет блоб. Идемпотентна: отсутствие ключа — успех, не ошибка.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKeyErr(err) {
		return fmt.Errorf("удаление объекта %s: %w", key, err)
	}
	return nil
}

// isNoSuchKeyErr проверяет, является ли ошибка отсутствием ключа.
func isNoSuchKeyErr(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.StatusCode == http.StatusNotFound
}

// isBucketExistsErr проверяет ошибки "bucket уже существует" от MakeBucket.
func isBucketExistsErr(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
}

// ReadinessChecker — проверка доступности MinIO для health endpoint.
type ReadinessChecker struct {
	client *minio.Client
	bucket string
}

// NewReadinessChecker создаёт checker доступности MinIO.
func (s *Store) NewReadinessChecker() *ReadinessChecker {
	return &ReadinessChecker{client: s.client, bucket: s.bucket}
}

// CheckReady проверяет доступность MinIO: bucket должен существовать.
func (r *ReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return "fail", fmt.Sprintf("MinIO недоступен: %v", err)
	}
	if !exists {
		return "degraded", fmt.Sprintf("bucket %s отсутствует", r.bucket)
	}
	return "ok", "bucket доступен"
}

// HealthURL возвращает URL liveness endpoint MinIO (для dephealth).
func HealthURL(endpoint string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, endpoint)
}
