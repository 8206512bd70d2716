package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/repository"
)

func newTestDeleteService(fileRepo *mockFileRepo, store *mockBlobStore) (*DeleteService, *RecordCache) {
	cache := NewRecordCache(16, time.Minute)
	return NewDeleteService(fileRepo, cache, store, slog.Default()), cache
}

// TestDeleteService_Success проверяет удаление владельцем:
// сначала блоб, затем запись метаданных, затем инвалидация кэша.
func TestDeleteService_Success(t *testing.T) {
	var deletedKey string
	var deletedID int64
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			if deletedKey == "" {
				t.Error("запись метаданных удалена до удаления блоба")
			}
			deletedID = id
			return nil
		},
	}
	store := &mockBlobStore{
		deleteFn: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		},
	}

	svc, cache := newTestDeleteService(fileRepo, store)
	cache.Set(42, testRecord())

	if err := svc.Delete(context.Background(), 42, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if deletedKey != "alice/42_report.pdf" {
		t.Errorf("ключ блоба = %q, ожидался alice/42_report.pdf", deletedKey)
	}
	if deletedID != 42 {
		t.Errorf("удалена запись %d, ожидалась 42", deletedID)
	}
	if _, ok := cache.Get(42); ok {
		t.Error("кэш не инвалидирован после удаления")
	}
}

// TestDeleteService_Forbidden проверяет отказ не-владельцу.
func TestDeleteService_Forbidden(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}
	storeCalled := false
	store := &mockBlobStore{
		deleteFn: func(ctx context.Context, key string) error {
			storeCalled = true
			return nil
		},
	}

	svc, _ := newTestDeleteService(fileRepo, store)
	err := svc.Delete(context.Background(), 42, "bob")

	if !errors.Is(err, ErrForbidden) {
		t.Errorf("ошибка = %v, ожидалась ErrForbidden", err)
	}
	if storeCalled {
		t.Error("блоб не должен удаляться при отказе в доступе")
	}
}

// TestDeleteService_NotFound проверяет ErrFileNotFound.
func TestDeleteService_NotFound(t *testing.T) {
	svc, _ := newTestDeleteService(&mockFileRepo{}, &mockBlobStore{})
	err := svc.Delete(context.Background(), 99, "alice")

	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrFileNotFound", err)
	}
}

// TestDeleteService_StoreError проверяет: при отказе хранилища запись
// метаданных сохраняется, удаление можно повторить.
func TestDeleteService_StoreError(t *testing.T) {
	metadataDeleted := false
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			metadataDeleted = true
			return nil
		},
	}
	store := &mockBlobStore{
		deleteFn: func(ctx context.Context, key string) error {
			return errors.New("minio down")
		},
	}

	svc, _ := newTestDeleteService(fileRepo, store)
	err := svc.Delete(context.Background(), 42, "alice")

	if !errors.Is(err, ErrObjectStoreUnavailable) {
		t.Errorf("ошибка = %v, ожидалась ErrObjectStoreUnavailable", err)
	}
	if metadataDeleted {
		t.Error("запись метаданных не должна удаляться при отказе хранилища")
	}
}

// TestDeleteService_Inconsistent проверяет ErrInconsistent:
// блоб удалён, запись метаданных удалить не удалось.
func TestDeleteService_Inconsistent(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			return errors.New("connection refused")
		},
	}

	svc, _ := newTestDeleteService(fileRepo, &mockBlobStore{})
	err := svc.Delete(context.Background(), 42, "alice")

	if !errors.Is(err, ErrInconsistent) {
		t.Errorf("ошибка = %v, ожидалась ErrInconsistent", err)
	}
}

// TestDeleteService_IdempotentMetadata проверяет, что исчезновение записи
// между чтением и удалением (гонка) не считается ошибкой.
func TestDeleteService_IdempotentMetadata(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			return repository.ErrNotFound
		},
	}

	svc, _ := newTestDeleteService(fileRepo, &mockBlobStore{})
	if err := svc.Delete(context.Background(), 42, "alice"); err != nil {
		t.Errorf("Delete() error = %v, гонка удалений не должна быть ошибкой", err)
	}
}
