package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/fileflow/internal/domain/model"
)

// fileColumns — список столбцов таблицы file_metadata для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const fileColumns = `id, file_name, file_size, owner, upload_date, tags`

// FileRepository — интерфейс реестра метаданных файлов.
// Create присваивает id (BIGSERIAL) — реестр является единственным
// источником идентификаторов. Delete каскадно удаляет grants (FK).
type FileRepository interface {
	// Create регистрирует файл и заполняет f.ID и f.UploadDate.
	Create(ctx context.Context, f *model.FileRecord) error
	// GetByID возвращает файл по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.FileRecord, error)
	// Delete удаляет запись файла (grants удаляются каскадно).
	// Возвращает ErrNotFound, если записи нет.
	Delete(ctx context.Context, id int64) error
	// ListByOwner возвращает файлы владельца (по убыванию даты загрузки).
	ListByOwner(ctx context.Context, owner string) ([]*model.FileRecord, error)
	// ListByTag возвращает файлы, содержащие указанный тег.
	ListByTag(ctx context.Context, tag string) ([]*model.FileRecord, error)
	// SearchByName возвращает файлы, имя которых содержит подстроку (ILIKE).
	SearchByName(ctx context.Context, query string) ([]*model.FileRecord, error)
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

// Create регистрирует файл. id и upload_date генерирует база —
// RETURNING возвращает их в запись.
func (r *fileRepo) Create(ctx context.Context, f *model.FileRecord) error {
	query := `
		INSERT INTO file_metadata (file_name, file_size, owner, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING id, upload_date`

	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.db.QueryRow(ctx, query, f.FileName, f.FileSize, f.Owner, tags).
		Scan(&f.ID, &f.UploadDate)
	if err != nil {
		return fmt.Errorf("ошибка регистрации файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM file_metadata WHERE id = $1`, fileColumns)

	f := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.FileName, &f.FileSize, &f.Owner, &f.UploadDate, &f.Tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) Delete(ctx context.Context, id int64) error {
	// Grants удаляются каскадно (FK ON DELETE CASCADE)
	tag, err := r.db.Exec(ctx, `DELETE FROM file_metadata WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) ListByOwner(ctx context.Context, owner string) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM file_metadata WHERE owner = $1 ORDER BY upload_date DESC`,
		fileColumns,
	)
	return r.queryFiles(ctx, query, owner)
}

func (r *fileRepo) ListByTag(ctx context.Context, tag string) ([]*model.FileRecord, error) {
	// Оператор @> — файл должен содержать указанный тег
	query := fmt.Sprintf(
		`SELECT %s FROM file_metadata WHERE tags @> $1 ORDER BY upload_date DESC`,
		fileColumns,
	)
	return r.queryFiles(ctx, query, []string{tag})
}

func (r *fileRepo) SearchByName(ctx context.Context, q string) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM file_metadata WHERE file_name ILIKE $1 ORDER BY upload_date DESC`,
		fileColumns,
	)
	return r.queryFiles(ctx, query, "%"+q+"%")
}

// queryFiles выполняет SELECT-запрос и сканирует результаты в записи.
func (r *fileRepo) queryFiles(ctx context.Context, query string, args ...any) ([]*model.FileRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(
			&f.ID, &f.FileName, &f.FileSize, &f.Owner, &f.UploadDate, &f.Tags,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
