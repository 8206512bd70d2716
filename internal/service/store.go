// store.go — интерфейс объектного хранилища блобов для сервисов.
// Реализация — internal/objectstore (MinIO). Интерфейс позволяет
// подменять хранилище моком в unit-тестах.
package service

import (
	"context"
	"io"
)

// BlobStore — операции объектного хранилища, используемые оркестратором.
type BlobStore interface {
	// Put записывает блоб под указанным ключом.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Get открывает streaming-чтение блоба.
	// Возвращает objectstore.ErrNotFound, если ключ отсутствует.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет блоб. Идемпотентна.
	Delete(ctx context.Context, key string) error
}
