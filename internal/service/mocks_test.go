package service

import (
	"context"
	"io"

	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/repository"
)

// mockFileRepo — мок FileRepository для unit-тестов.
type mockFileRepo struct {
	createFn       func(ctx context.Context, f *model.FileRecord) error
	getByIDFn      func(ctx context.Context, id int64) (*model.FileRecord, error)
	deleteFn       func(ctx context.Context, id int64) error
	listByOwnerFn  func(ctx context.Context, owner string) ([]*model.FileRecord, error)
	listByTagFn    func(ctx context.Context, tag string) ([]*model.FileRecord, error)
	searchByNameFn func(ctx context.Context, query string) ([]*model.FileRecord, error)
}

func (m *mockFileRepo) Create(ctx context.Context, f *model.FileRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	f.ID = 1
	return nil
}

func (m *mockFileRepo) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockFileRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockFileRepo) ListByOwner(ctx context.Context, owner string) ([]*model.FileRecord, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, owner)
	}
	return nil, nil
}

func (m *mockFileRepo) ListByTag(ctx context.Context, tag string) ([]*model.FileRecord, error) {
	if m.listByTagFn != nil {
		return m.listByTagFn(ctx, tag)
	}
	return nil, nil
}

func (m *mockFileRepo) SearchByName(ctx context.Context, query string) ([]*model.FileRecord, error) {
	if m.searchByNameFn != nil {
		return m.searchByNameFn(ctx, query)
	}
	return nil, nil
}

// mockShareRepo — мок ShareRepository для unit-тестов.
type mockShareRepo struct {
	createGrantFn    func(ctx context.Context, g *model.ShareGrant) error
	deleteGrantFn    func(ctx context.Context, fileID int64, sharedWith string) error
	findGrantFn      func(ctx context.Context, fileID int64, username string) (*model.ShareGrant, error)
	listSharedWithFn func(ctx context.Context, username string) ([]*model.ShareGrant, error)
	listSharedByFn   func(ctx context.Context, username string) ([]*model.ShareGrant, error)
}

func (m *mockShareRepo) CreateGrant(ctx context.Context, g *model.ShareGrant) error {
	if m.createGrantFn != nil {
		return m.createGrantFn(ctx, g)
	}
	return nil
}

func (m *mockShareRepo) DeleteGrant(ctx context.Context, fileID int64, sharedWith string) error {
	if m.deleteGrantFn != nil {
		return m.deleteGrantFn(ctx, fileID, sharedWith)
	}
	return nil
}

func (m *mockShareRepo) FindGrant(ctx context.Context, fileID int64, username string) (*model.ShareGrant, error) {
	if m.findGrantFn != nil {
		return m.findGrantFn(ctx, fileID, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockShareRepo) ListSharedWith(ctx context.Context, username string) ([]*model.ShareGrant, error) {
	if m.listSharedWithFn != nil {
		return m.listSharedWithFn(ctx, username)
	}
	return nil, nil
}

func (m *mockShareRepo) ListSharedBy(ctx context.Context, username string) ([]*model.ShareGrant, error) {
	if m.listSharedByFn != nil {
		return m.listSharedByFn(ctx, username)
	}
	return nil, nil
}

// mockBlobStore — мок BlobStore для unit-тестов.
type mockBlobStore struct {
	putFn    func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	getFn    func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockBlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.putFn != nil {
		return m.putFn(ctx, key, reader, size, contentType)
	}
	return nil
}

func (m *mockBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return io.NopCloser(nil), nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}
