package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bigkaa/fileflow/internal/domain/model"
)

// TestBrowseService_ByOwner проверяет листинг по владельцу.
func TestBrowseService_ByOwner(t *testing.T) {
	fileRepo := &mockFileRepo{
		listByOwnerFn: func(ctx context.Context, owner string) ([]*model.FileRecord, error) {
			if owner != "alice" {
				t.Errorf("owner = %q, ожидался alice", owner)
			}
			return []*model.FileRecord{testRecord()}, nil
		},
	}

	svc := NewBrowseService(fileRepo, slog.Default())
	records, err := svc.ByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ByOwner() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("записей = %d, ожидалась 1", len(records))
	}
}

// TestBrowseService_ByTag проверяет листинг по тегу.
func TestBrowseService_ByTag(t *testing.T) {
	fileRepo := &mockFileRepo{
		listByTagFn: func(ctx context.Context, tag string) ([]*model.FileRecord, error) {
			if tag != "work" {
				t.Errorf("tag = %q, ожидался work", tag)
			}
			return []*model.FileRecord{testRecord()}, nil
		},
	}

	svc := NewBrowseService(fileRepo, slog.Default())
	records, err := svc.ByTag(context.Background(), "work")
	if err != nil {
		t.Fatalf("ByTag() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("записей = %d, ожидалась 1", len(records))
	}
}

// TestBrowseService_SearchByName проверяет поиск по подстроке имени.
func TestBrowseService_SearchByName(t *testing.T) {
	fileRepo := &mockFileRepo{
		searchByNameFn: func(ctx context.Context, query string) ([]*model.FileRecord, error) {
			return []*model.FileRecord{testRecord()}, nil
		},
	}

	svc := NewBrowseService(fileRepo, slog.Default())
	records, err := svc.SearchByName(context.Background(), "rep")
	if err != nil {
		t.Fatalf("SearchByName() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("записей = %d, ожидалась 1", len(records))
	}
}

// TestBrowseService_MetadataUnavailable проверяет ошибку реестра.
func TestBrowseService_MetadataUnavailable(t *testing.T) {
	fileRepo := &mockFileRepo{
		listByOwnerFn: func(ctx context.Context, owner string) ([]*model.FileRecord, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewBrowseService(fileRepo, slog.Default())
	_, err := svc.ByOwner(context.Background(), "alice")

	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Errorf("ошибка = %v, ожидалась ErrMetadataUnavailable", err)
	}
}
