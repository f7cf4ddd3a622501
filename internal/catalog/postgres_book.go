// internal/catalog/postgres_book.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const dialectPostgres = "postgres"

const bookColumns = `id, title, author, isbn, publisher, published_year, category_id,
	legacy_category, description, cover_image, total_copies, available_copies,
	status, created_at, updated_at`

// PostgresBookRepository implements BookRepository against the books collection.
type PostgresBookRepository struct {
	db *sqlx.DB
}

func NewPostgresBookRepository(db *sqlx.DB) *PostgresBookRepository {
	return &PostgresBookRepository{db: db}
}

func (r *PostgresBookRepository) Create(ctx context.Context, input CreateBookInput) (*Book, error) {
	now := time.Now().UTC()
	book := &Book{
		ID:              uuid.New(),
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Publisher:       input.Publisher,
		PublishedYear:   input.PublishedYear,
		CategoryID:      input.CategoryID,
		Description:     input.Description,
		CoverImage:      input.CoverImage,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		Status:          StatusAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO books (id, title, author, isbn, publisher, published_year, category_id,
			description, cover_image, total_copies, available_copies, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.ISBN, book.Publisher, book.PublishedYear,
		book.CategoryID, book.Description, book.CoverImage, book.TotalCopies,
		book.AvailableCopies, book.Status, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert book: %w", err)
	}

	return book, nil
}

func (r *PostgresBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	var book Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (r *PostgresBookRepository) FindAll(ctx context.Context) ([]Book, error) {
	var books []Book
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &books, query); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (r *PostgresBookRepository) FindAllPaginated(ctx context.Context, limit, offset int) ([]Book, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM books`); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	var books []Book
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &books, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	return books, total, nil
}

func (r *PostgresBookRepository) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*Book, error) {
	record := goqu.Record{"updated_at": time.Now().UTC()}
	if input.Title != nil {
		record["title"] = *input.Title
	}
	if input.Author != nil {
		record["author"] = *input.Author
	}
	if input.ISBN != nil {
		record["isbn"] = *input.ISBN
	}
	if input.Publisher != nil {
		record["publisher"] = *input.Publisher
	}
	if input.PublishedYear != nil {
		record["published_year"] = *input.PublishedYear
	}
	if input.CategoryID != nil {
		record["category_id"] = *input.CategoryID
	}
	if input.Description != nil {
		record["description"] = *input.Description
	}
	if input.CoverImage != nil {
		record["cover_image"] = *input.CoverImage
	}
	if input.TotalCopies != nil {
		record["total_copies"] = *input.TotalCopies
	}

	query, args, err := goqu.Dialect(dialectPostgres).
		Update("books").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *PostgresBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// No cascade: existing loans keep their book_id and may orphan.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

func (r *PostgresBookRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, availableCopies int) error {
	query := `UPDATE books SET available_copies = $1, status = $2, updated_at = NOW() WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, availableCopies, StatusForAvailable(availableCopies), id); err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	return nil
}

func (r *PostgresBookRepository) DecrementAvailable(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1,
			status = CASE WHEN available_copies - 1 > 0 THEN $1 ELSE $2 END,
			updated_at = NOW()
		WHERE id = $3 AND available_copies > 0
	`
	res, err := r.db.ExecContext(ctx, query, StatusAvailable, StatusBorrowed, id)
	if err != nil {
		return fmt.Errorf("failed to decrement availability: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoCopiesAvailable
	}
	return nil
}

func (r *PostgresBookRepository) IncrementAvailable(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + 1, status = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, StatusAvailable, id); err != nil {
		return fmt.Errorf("failed to increment availability: %w", err)
	}
	return nil
}

func (r *PostgresBookRepository) Search(ctx context.Context, searchQuery string) ([]Book, error) {
	pattern := "%" + searchQuery + "%"
	query, args, err := goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("b.category_id").Eq(goqu.I("c.id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
			goqu.I("b.publisher"), goqu.I("b.published_year"), goqu.I("b.category_id"),
			goqu.I("b.legacy_category"), goqu.I("b.description"), goqu.I("b.cover_image"),
			goqu.I("b.total_copies"), goqu.I("b.available_copies"), goqu.I("b.status"),
			goqu.I("b.created_at"), goqu.I("b.updated_at"),
		).
		Where(goqu.Or(
			goqu.I("b.title").ILike(pattern),
			goqu.I("b.author").ILike(pattern),
			goqu.I("b.isbn").ILike(pattern),
			goqu.I("c.name").ILike(pattern),
			goqu.I("b.legacy_category").ILike(pattern),
		)).
		Order(goqu.I("b.created_at").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	var books []Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}
