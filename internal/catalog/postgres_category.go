// internal/catalog/postgres_category.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresCategoryRepository implements CategoryRepository.
type PostgresCategoryRepository struct {
	db *sqlx.DB
}

func NewPostgresCategoryRepository(db *sqlx.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) Create(ctx context.Context, name string) (*Category, error) {
	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO categories (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, category.ID, category.Name, category.CreatedAt, category.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	return category, nil
}

func (r *PostgresCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	var category Category
	query := `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) FindByName(ctx context.Context, name string) (*Category, error) {
	var category Category
	query := `SELECT id, name, created_at, updated_at FROM categories WHERE name = $1`
	if err := r.db.GetContext(ctx, &category, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &category, nil
}

func (r *PostgresCategoryRepository) FindAll(ctx context.Context) ([]Category, error) {
	var categories []Category
	query := `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Referencing books are left untouched; the reference is weak.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (r *PostgresCategoryRepository) FindNamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query, args, err := goqu.Dialect(dialectPostgres).
		From("categories").
		Select("id", "name").
		Where(goqu.C("id").In(ids)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build category lookup: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
