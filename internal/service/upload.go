// upload.go — сервис загрузки файлов.
//
// Загрузка выполняется как saga из двух шагов:
//  1. Создание записи в реестре метаданных (выдаёт id файла).
//  2. Запись блоба в объектное хранилище под ключом "{owner}/{id}_{fileName}".
//
// Ключ блоба зависит от id, поэтому запись метаданных создаётся первой.
// Если запись блоба не удалась — компенсация: удаление созданной записи.
// Если компенсация тоже не удалась, в реестре остаётся запись-сирота
// без блоба — возвращается ErrInconsistent.
//
// Повторов (retry) на уровне оркестратора нет: все ошибки возвращаются
// вызывающему, повтор — решение клиента.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/repository"
)

// Prometheus-метрики upload.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ff_uploads_total",
		Help: "Общее количество загрузок файлов (по статусу).",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_upload_bytes_total",
		Help: "Общее количество загруженных байт.",
	})

	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ff_upload_duration_seconds",
		Help:    "Длительность загрузки файла (запись метаданных + блоба).",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	uploadOrphansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_upload_orphans_total",
		Help: "Количество записей-сирот в реестре после неудавшейся компенсации.",
	})
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// FileName — оригинальное имя файла
	FileName string
	// ContentType — MIME-тип файла (из multipart part)
	ContentType string
	// Size — размер файла в байтах
	Size int64
	// Owner — владелец файла (subject аутентифицированного запроса)
	Owner string
	// Tags — теги файла (опционально)
	Tags []string
}

// UploadService — сервис загрузки файлов.
type UploadService struct {
	fileRepo repository.FileRepository
	store    BlobStore
	maxSize  int64
	logger   *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
// maxSize — максимальный размер одного файла в байтах.
func NewUploadService(fileRepo repository.FileRepository, store BlobStore, maxSize int64, logger *slog.Logger) *UploadService {
	return &UploadService{
		fileRepo: fileRepo,
		store:    store,
		maxSize:  maxSize,
		logger:   logger.With(slog.String("component", "upload_service")),
	}
}

// Upload загружает файл: создаёт запись в реестре, затем пишет блоб.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (*model.FileRecord, error) {
	start := time.Now()

	if s.maxSize > 0 && params.Size > s.maxSize {
		uploadsTotal.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w: %d байт при максимуме %d", ErrFileTooLarge, params.Size, s.maxSize)
	}

	// 1. Создаём запись метаданных — реестр выдаёт id.
	record := &model.FileRecord{
		FileName: params.FileName,
		FileSize: params.Size,
		Owner:    params.Owner,
		Tags:     params.Tags,
	}
	if err := s.fileRepo.Create(ctx, record); err != nil {
		uploadsTotal.WithLabelValues("metadata_error").Inc()
		s.logger.Error("Ошибка создания записи метаданных",
			slog.String("file_name", params.FileName),
			slog.String("owner", params.Owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}

	// 2. Пишем блоб под детерминированным ключом.
	key := record.Key()
	if err := s.store.Put(ctx, key, params.Reader, params.Size, params.ContentType); err != nil {
		s.logger.Error("Ошибка записи блоба, запускается компенсация",
			slog.Int64("file_id", record.ID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, s.compensate(ctx, record, err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(params.Size))
	uploadDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("Файл загружен",
		slog.Int64("file_id", record.ID),
		slog.String("file_name", record.FileName),
		slog.Int64("size", record.FileSize),
		slog.String("owner", record.Owner),
		slog.String("key", key),
	)

	return record, nil
}

// compensate удаляет запись метаданных после неудавшейся записи блоба.
// Если компенсация не удалась — в реестре остаётся сирота, ErrInconsistent.
func (s *UploadService) compensate(ctx context.Context, record *model.FileRecord, putErr error) error {
	if err := s.fileRepo.Delete(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		uploadsTotal.WithLabelValues("inconsistent").Inc()
		uploadOrphansTotal.Inc()
		s.logger.Error("Компенсация не выполнена: запись-сирота в реестре",
			slog.Int64("file_id", record.ID),
			slog.String("put_error", putErr.Error()),
			slog.String("compensation_error", err.Error()),
		)
		return fmt.Errorf("%w: запись %d осталась без блоба", ErrInconsistent, record.ID)
	}

	uploadsTotal.WithLabelValues("store_error").Inc()
	s.logger.Info("Компенсация выполнена: запись метаданных удалена",
		slog.Int64("file_id", record.ID),
	)
	return fmt.Errorf("%w: %s", ErrObjectStoreUnavailable, putErr.Error())
}
