package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/fileflow/internal/domain/model"
)

// shareColumns — список столбцов таблицы file_shares для SELECT-запросов.
const shareColumns = `file_id, shared_with, shared_by, shared_date`

// ShareRepository — интерфейс реестра grants (предоставленных доступов).
// Уникальность (file_id, shared_with) обеспечивает база: нарушение
// маппится в ErrConflict. Self-share отбрасывается CHECK-ограничением
// как backstop (основная проверка — в сервисном слое).
type ShareRepository interface {
	// CreateGrant создаёт grant и заполняет g.SharedDate.
	// Возвращает ErrConflict при дубликате или self-share.
	CreateGrant(ctx context.Context, g *model.ShareGrant) error
	// DeleteGrant удаляет grant. Возвращает ErrNotFound, если grant отсутствует —
	// вызывающий различает «уже отозван» и «отозван сейчас».
	DeleteGrant(ctx context.Context, fileID int64, sharedWith string) error
	// FindGrant возвращает grant или ErrNotFound.
	FindGrant(ctx context.Context, fileID int64, username string) (*model.ShareGrant, error)
	// ListSharedWith возвращает grants, выданные указанному пользователю.
	ListSharedWith(ctx context.Context, username string) ([]*model.ShareGrant, error)
	// ListSharedBy возвращает grants, выданные указанным пользователем.
	ListSharedBy(ctx context.Context, username string) ([]*model.ShareGrant, error)
}

// shareRepo — реализация ShareRepository через pgx.
type shareRepo struct {
	db DBTX
}

// NewShareRepository создаёт репозиторий grants.
func NewShareRepository(db DBTX) ShareRepository {
	return &shareRepo{db: db}
}

func (r *shareRepo) CreateGrant(ctx context.Context, g *model.ShareGrant) error {
	query := `
		INSERT INTO file_shares (file_id, shared_with, shared_by)
		VALUES ($1, $2, $3)
		RETURNING shared_date`

	err := r.db.QueryRow(ctx, query, g.FileID, g.SharedWith, g.SharedBy).
		Scan(&g.SharedDate)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл уже расшарен этому пользователю", ErrConflict)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: нельзя расшарить файл самому себе", ErrConflict)
		}
		return fmt.Errorf("ошибка создания grant: %w", err)
	}
	return nil
}

func (r *shareRepo) DeleteGrant(ctx context.Context, fileID int64, sharedWith string) error {
	query := `DELETE FROM file_shares WHERE file_id = $1 AND shared_with = $2`

	tag, err := r.db.Exec(ctx, query, fileID, sharedWith)
	if err != nil {
		return fmt.Errorf("ошибка удаления grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *shareRepo) FindGrant(ctx context.Context, fileID int64, username string) (*model.ShareGrant, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM file_shares WHERE file_id = $1 AND shared_with = $2`,
		shareColumns,
	)

	g := &model.ShareGrant{}
	err := r.db.QueryRow(ctx, query, fileID, username).Scan(
		&g.FileID, &g.SharedWith, &g.SharedBy, &g.SharedDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска grant: %w", err)
	}
	return g, nil
}

func (r *shareRepo) ListSharedWith(ctx context.Context, username string) ([]*model.ShareGrant, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM file_shares WHERE shared_with = $1 ORDER BY shared_date DESC`,
		shareColumns,
	)
	return r.queryGrants(ctx, query, username)
}

func (r *shareRepo) ListSharedBy(ctx context.Context, username string) ([]*model.ShareGrant, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM file_shares WHERE shared_by = $1 ORDER BY shared_date DESC`,
		shareColumns,
	)
	return r.queryGrants(ctx, query, username)
}

// queryGrants выполняет SELECT-запрос и сканирует результаты в grants.
func (r *shareRepo) queryGrants(ctx context.Context, query string, args ...any) ([]*model.ShareGrant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка grants: %w", err)
	}
	defer rows.Close()

	var result []*model.ShareGrant
	for rows.Next() {
		g := &model.ShareGrant{}
		if err := rows.Scan(&g.FileID, &g.SharedWith, &g.SharedBy, &g.SharedDate); err != nil {
			return nil, fmt.Errorf("ошибка сканирования grant: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}
