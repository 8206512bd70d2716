// delete.go — сервис удаления файлов.
//
// Удаление разрешено только владельцу. Порядок: сначала блоб (удаление
// идемпотентно, отсутствие блоба — успех), затем запись метаданных.
// Гранты удаляются каскадно на уровне БД (FK ON DELETE CASCADE).
// Если блоб удалён, а запись метаданных удалить не удалось — в реестре
// остаётся запись без блоба, возвращается ErrInconsistent.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/fileflow/internal/repository"
)

// Prometheus-метрики delete.
var (
	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ff_deletes_total",
		Help: "Общее количество удалений файлов (по статусу).",
	}, []string{"status"})

	deleteInconsistenciesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ff_delete_inconsistencies_total",
		Help: "Количество записей метаданных, оставшихся после удаления блоба.",
	})
)

// DeleteService — сервис удаления файлов.
type DeleteService struct {
	fileRepo repository.FileRepository
	cache    *RecordCache
	store    BlobStore
	logger   *slog.Logger
}

// NewDeleteService создаёт сервис удаления.
func NewDeleteService(fileRepo repository.FileRepository, cache *RecordCache, store BlobStore, logger *slog.Logger) *DeleteService {
	return &DeleteService{
		fileRepo: fileRepo,
		cache:    cache,
		store:    store,
		logger:   logger.With(slog.String("component", "delete_service")),
	}
}

// Delete удаляет файл: блоб из объектного хранилища, затем запись
// метаданных вместе с грантами.
func (s *DeleteService) Delete(ctx context.Context, id int64, requester string) error {
	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			deletesTotal.WithLabelValues("not_found").Inc()
			return ErrFileNotFound
		}
		deletesTotal.WithLabelValues("metadata_error").Inc()
		return fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}

	if record.Owner != requester {
		deletesTotal.WithLabelValues("forbidden").Inc()
		s.logger.Warn("Попытка удаления чужого файла",
			slog.Int64("file_id", id),
			slog.String("requester", requester),
			slog.String("owner", record.Owner),
		)
		return ErrForbidden
	}

	// 1. Удаляем блоб. Отсутствие блоба — успех, операция идемпотентна.
	// При ошибке хранилища запись метаданных сохраняется: клиент может
	// повторить удаление.
	if err := s.store.Delete(ctx, record.Key()); err != nil {
		deletesTotal.WithLabelValues("store_error").Inc()
		s.logger.Error("Ошибка удаления блоба",
			slog.Int64("file_id", id),
			slog.String("key", record.Key()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s", ErrObjectStoreUnavailable, err.Error())
	}

	// 2. Удаляем запись метаданных (гранты — каскадно).
	if err := s.fileRepo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		deletesTotal.WithLabelValues("inconsistent").Inc()
		deleteInconsistenciesTotal.Inc()
		s.logger.Error("Блоб удалён, но запись метаданных осталась",
			slog.Int64("file_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: запись %d осталась без блоба", ErrInconsistent, id)
	}

	s.cache.Delete(id)

	deletesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Файл удалён",
		slog.Int64("file_id", id),
		slog.String("file_name", record.FileName),
		slog.String("owner", record.Owner),
	)

	return nil
}
