package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/objectstore"
)

// testRecord возвращает запись файла для тестов.
func testRecord() *model.FileRecord {
	return &model.FileRecord{
		ID:       42,
		FileName: "report.pdf",
		FileSize: 7,
		Owner:    "alice",
	}
}

// newTestDownloadService создаёт DownloadService со свежим кэшем.
func newTestDownloadService(fileRepo *mockFileRepo, shareRepo *mockShareRepo, store *mockBlobStore) *DownloadService {
	cache := NewRecordCache(16, time.Minute)
	return NewDownloadService(fileRepo, shareRepo, cache, store, slog.Default())
}

// TestDownloadService_Owner проверяет скачивание владельцем.
func TestDownloadService_Owner(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}
	store := &mockBlobStore{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			if key != "alice/42_report.pdf" {
				t.Errorf("ключ = %q, ожидался alice/42_report.pdf", key)
			}
			return io.NopCloser(strings.NewReader("content")), nil
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, store)
	result, err := svc.Download(context.Background(), 42, "alice")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer result.Reader.Close()

	data, _ := io.ReadAll(result.Reader)
	if string(data) != "content" {
		t.Errorf("содержимое = %q", data)
	}
	if result.Record.FileName != "report.pdf" {
		t.Errorf("FileName = %q", result.Record.FileName)
	}
}

// TestDownloadService_Grantee проверяет скачивание пользователем с грантом.
func TestDownloadService_Grantee(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}
	shareRepo := &mockShareRepo{
		findGrantFn: func(ctx context.Context, fileID int64, username string) (*model.ShareGrant, error) {
			if username != "bob" || fileID != 42 {
				t.Errorf("FindGrant(%d, %q), ожидался (42, bob)", fileID, username)
			}
			return &model.ShareGrant{FileID: 42, SharedWith: "bob", SharedBy: "alice"}, nil
		},
	}
	store := &mockBlobStore{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("content")), nil
		},
	}

	svc := newTestDownloadService(fileRepo, shareRepo, store)
	result, err := svc.Download(context.Background(), 42, "bob")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	result.Reader.Close()
}

// TestDownloadService_Forbidden проверяет отказ без гранта.
func TestDownloadService_Forbidden(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, &mockBlobStore{})
	_, err := svc.Download(context.Background(), 42, "mallory")

	if !errors.Is(err, ErrForbidden) {
		t.Errorf("ошибка = %v, ожидалась ErrForbidden", err)
	}
}

// TestDownloadService_FileNotFound проверяет ErrFileNotFound при
// отсутствии записи в реестре.
func TestDownloadService_FileNotFound(t *testing.T) {
	svc := newTestDownloadService(&mockFileRepo{}, &mockShareRepo{}, &mockBlobStore{})
	_, err := svc.Download(context.Background(), 99, "alice")

	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrFileNotFound", err)
	}
}

// TestDownloadService_ObjectNotFound проверяет рассинхронизацию:
// запись метаданных есть, блоба нет.
func TestDownloadService_ObjectNotFound(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}
	store := &mockBlobStore{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return nil, objectstore.ErrNotFound
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, store)
	_, err := svc.Download(context.Background(), 42, "alice")

	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrObjectNotFound", err)
	}
}

// TestDownloadService_StoreUnavailable проверяет ошибку хранилища.
func TestDownloadService_StoreUnavailable(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return testRecord(), nil
		},
	}
	store := &mockBlobStore{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, store)
	_, err := svc.Download(context.Background(), 42, "alice")

	if !errors.Is(err, ErrObjectStoreUnavailable) {
		t.Errorf("ошибка = %v, ожидалась ErrObjectStoreUnavailable", err)
	}
}

// TestDownloadService_CacheHit проверяет, что повторное скачивание
// не обращается к БД.
func TestDownloadService_CacheHit(t *testing.T) {
	dbCalls := 0
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			dbCalls++
			return testRecord(), nil
		},
	}
	store := &mockBlobStore{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("content")), nil
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, store)
	for i := 0; i < 3; i++ {
		result, err := svc.Download(context.Background(), 42, "alice")
		if err != nil {
			t.Fatalf("Download() #%d error = %v", i, err)
		}
		result.Reader.Close()
	}

	if dbCalls != 1 {
		t.Errorf("обращений к БД = %d, ожидалось 1 (остальные из кэша)", dbCalls)
	}
}

// TestDownloadService_MetadataUnavailable проверяет ошибку реестра.
func TestDownloadService_MetadataUnavailable(t *testing.T) {
	fileRepo := &mockFileRepo{
		getByIDFn: func(ctx context.Context, id int64) (*model.FileRecord, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := newTestDownloadService(fileRepo, &mockShareRepo{}, &mockBlobStore{})
	_, err := svc.Download(context.Background(), 42, "alice")

	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Errorf("ошибка = %v, ожидалась ErrMetadataUnavailable", err)
	}
}
