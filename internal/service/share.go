// share.go — сервис предоставления и отзыва доступа к файлам.
//
// Грант выдаёт и отзывает только владелец файла. Порядок проверок
// при выдаче: существование файла → self-share → владелец → дубликат.
// Уникальность пары (file_id, shared_with) дополнительно гарантируется
// ограничением БД, поэтому гонка двух параллельных Share даёт Conflict,
// а не дубликат.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/repository"
)

// Prometheus-метрики share.
var (
	sharesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ff_shares_total",
		Help: "Общее количество операций с грантами (по операции и статусу).",
	}, []string{"operation", "status"})
)

// ShareService — сервис управления грантами доступа.
type ShareService struct {
	fileRepo  repository.FileRepository
	shareRepo repository.ShareRepository
	logger    *slog.Logger
}

// NewShareService создаёт сервис управления грантами.
func NewShareService(fileRepo repository.FileRepository, shareRepo repository.ShareRepository, logger *slog.Logger) *ShareService {
	return &ShareService{
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		logger:    logger.With(slog.String("component", "share_service")),
	}
}

// Share выдаёт пользователю sharedWith доступ на чтение файла.
func (s *ShareService) Share(ctx context.Context, id int64, requester, sharedWith string) (*model.ShareGrant, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		sharesTotal.WithLabelValues("share", "error").Inc()
		return nil, err
	}

	if sharedWith == requester {
		sharesTotal.WithLabelValues("share", "self_share").Inc()
		return nil, ErrSelfShare
	}

	if record.Owner != requester {
		sharesTotal.WithLabelValues("share", "forbidden").Inc()
		return nil, ErrForbidden
	}

	grant := &model.ShareGrant{
		FileID:     id,
		SharedWith: sharedWith,
		SharedBy:   requester,
	}
	if err := s.shareRepo.CreateGrant(ctx, grant); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			sharesTotal.WithLabelValues("share", "conflict").Inc()
			return nil, ErrAlreadyShared
		}
		sharesTotal.WithLabelValues("share", "error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}

	sharesTotal.WithLabelValues("share", "success").Inc()
	s.logger.Info("Доступ предоставлен",
		slog.Int64("file_id", id),
		slog.String("shared_by", requester),
		slog.String("shared_with", sharedWith),
	)

	return grant, nil
}

// Revoke отзывает грант пользователя sharedWith на файл.
func (s *ShareService) Revoke(ctx context.Context, id int64, requester, sharedWith string) error {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		sharesTotal.WithLabelValues("revoke", "error").Inc()
		return err
	}

	if record.Owner != requester {
		sharesTotal.WithLabelValues("revoke", "forbidden").Inc()
		return ErrForbidden
	}

	if err := s.shareRepo.DeleteGrant(ctx, id, sharedWith); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sharesTotal.WithLabelValues("revoke", "not_found").Inc()
			return ErrGrantNotFound
		}
		sharesTotal.WithLabelValues("revoke", "error").Inc()
		return fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}

	sharesTotal.WithLabelValues("revoke", "success").Inc()
	s.logger.Info("Доступ отозван",
		slog.Int64("file_id", id),
		slog.String("owner", requester),
		slog.String("shared_with", sharedWith),
	)

	return nil
}

// SharedWithMe возвращает файлы, расшаренные пользователю requester.
// Гранты на уже удалённые записи пропускаются.
func (s *ShareService) SharedWithMe(ctx context.Context, requester string) ([]*model.FileRecord, error) {
	grants, err := s.shareRepo.ListSharedWith(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return s.resolveRecords(ctx, grants)
}

// SharedByMe возвращает файлы, которые requester расшарил другим.
func (s *ShareService) SharedByMe(ctx context.Context, requester string) ([]*model.FileRecord, error) {
	grants, err := s.shareRepo.ListSharedBy(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return s.resolveRecords(ctx, grants)
}

// getRecord получает запись файла, транслируя ошибки репозитория в доменные.
func (s *ShareService) getRecord(ctx context.Context, id int64) (*model.FileRecord, error) {
	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return record, nil
}

// resolveRecords подгружает записи файлов для списка грантов.
// Один файл, расшаренный нескольким пользователям, возвращается один раз.
func (s *ShareService) resolveRecords(ctx context.Context, grants []*model.ShareGrant) ([]*model.FileRecord, error) {
	records := make([]*model.FileRecord, 0, len(grants))
	seen := make(map[int64]bool, len(grants))
	for _, grant := range grants {
		if seen[grant.FileID] {
			continue
		}
		seen[grant.FileID] = true

		record, err := s.fileRepo.GetByID(ctx, grant.FileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
		}
		records = append(records, record)
	}
	return records, nil
}
