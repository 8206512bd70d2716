// browse.go — сервис просмотра каталога файлов.
// Листинги не фильтруются по правам доступа: видимость метаданных
// каталога открыта для всех аутентифицированных пользователей,
// права проверяются при скачивании.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/repository"
)

// BrowseService — сервис листингов каталога файлов.
type BrowseService struct {
	fileRepo repository.FileRepository
	logger   *slog.Logger
}

// NewBrowseService создаёт сервис листингов.
func NewBrowseService(fileRepo repository.FileRepository, logger *slog.Logger) *BrowseService {
	return &BrowseService{
		fileRepo: fileRepo,
		logger:   logger.With(slog.String("component", "browse_service")),
	}
}

// ByOwner возвращает файлы указанного владельца.
func (s *BrowseService) ByOwner(ctx context.Context, owner string) ([]*model.FileRecord, error) {
	records, err := s.fileRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return records, nil
}

// ByTag возвращает файлы, содержащие указанный тег.
func (s *BrowseService) ByTag(ctx context.Context, tag string) ([]*model.FileRecord, error) {
	records, err := s.fileRepo.ListByTag(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return records, nil
}

// SearchByName возвращает файлы, имя которых содержит подстроку query
// (без учёта регистра).
func (s *BrowseService) SearchByName(ctx context.Context, query string) ([]*model.FileRecord, error) {
	records, err := s.fileRepo.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataUnavailable, err.Error())
	}
	return records, nil
}
