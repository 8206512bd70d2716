// download.go — сервис скачивания файлов.
// Pipeline: запись метаданных (кэш/БД) → проверка доступа → streaming
// из объектного хранилища. Доступ: владелец либо пользователь с грантом.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/objectstore"
	"github.com/bigkaa/fileflow/internal/repository"
)

// Prometheus-метрики download.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ff_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_download_bytes_total",
		Help: "Суммарный объём отданных данных в байтах.",
	})

	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ff_active_downloads",
		Help: "Количество скачиваний, выполняемых в данный момент.",
	})
)

// DownloadResult — результат скачивания: запись метаданных и поток данных.
// Вызывающий код ОБЯЗАН закрыть Reader.
type DownloadResult struct {
	Record *model.FileRecord
	Reader io.ReadCloser
}

// DownloadService — сервис скачивания файлов.
type DownloadService struct {
	fileRepo  repository.FileRepository
	shareRepo repository.ShareRepository
	cache     *RecordCache
	store     BlobStore
	logger    *slog.Logger
}

// NewDownloadService создаёт сервис скачивания.
func NewDownloadService(
	fileRepo repository.FileRepository,
	shareRepo repository.ShareRepository,
	cache *RecordCache,
	store BlobStore,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		cache:     cache,
		store:     store,
		logger:    logger.With(slog.String("component", "download_service")),
	}
}

// Download возвращает поток данных файла для requester.
//
// Порядок проверок фиксирован: сначала существование файла (ErrFileNotFound),
// затем доступ (ErrForbidden), затем наличие блоба (ErrObjectNotFound).
func (s *DownloadService) Download(ctx context.Context, id int64, requester string) (*DownloadResult, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
		} else {
			downloadsTotal.WithLabelValues("metadata_error").Inc()
		}
		return nil, err
	}

	allowed, err := s.canAccess(ctx, record, requester)
	if err != nil {
		downloadsTotal.WithLabelValues("metadata_error").Inc()
		return nil, err
	}
	if !allowed {
		downloadsTotal.WithLabelValues("forbidden").Inc()
		s.logger.Warn("Отказ в доступе к файлу",
			slog.Int64("file_id", id),
			slog.String("requester", requester),
			slog.String("owner", record.Owner),
		)
		return nil, ErrForbidden
	}

	reader, err := s.store.Get(ctx, record.Key())
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			// Метаданные есть, блоба нет — рассинхронизация.
			downloadsTotal.WithLabelValues("object_not_found").Inc()
			s.logger.Error("Блоб отсутствует при существующей записи метаданных",
				slog.Int64("file_id", id),
				slog.String("key", record.Key()),
			)
			return nil, ErrObjectNotFound
		}
		downloadsTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrObjectStoreUnavailable, err.Error())
	}

	downloadsTotal.WithLabelValues("success").Inc()
	activeDownloads.Inc()
	s.logger.Debug("Скачивание начато",
		slog.Int64("file_id", id),
		slog.String("requester", requester),
	)

	return &DownloadResult{Record: record, Reader: &meteredReader{rc: reader}}, nil
}

// meteredReader учитывает отданные байты и активные скачивания.
// Gauge уменьшается один раз, при первом Close.
type meteredReader struct {
	rc     io.ReadCloser
	closed bool
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.rc.Read(p)
	if n > 0 {
		downloadBytesTotal.Add(float64(n))
	}
	return n, err
}

func (m *meteredReader) Close() error {
	if !m.closed {
		m.closed = true
		activeDownloads.Dec()
	}
	return m.rc.Close()
}

// getRecord получает FileRecord из кэша или БД.
func (s *DownloadService) getRecord(ctx context.Context, id int64) (*model.FileRecord, error) {
	if record, ok := s.cache.Get(id); ok {
		return record, nil
	}

	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}

	s.cache.Set(id, record)
	return record, nil
}

// canAccess проверяет право requester на чтение файла:
// владелец либо действующий грант.
func (s *DownloadService) canAccess(ctx context.Context, record *model.FileRecord, requester string) (bool, error) {
	if record.Owner == requester {
		return true, nil
	}

	_, err := s.shareRepo.FindGrant(ctx, record.ID, requester)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return true, nil
}
