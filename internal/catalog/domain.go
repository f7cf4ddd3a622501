// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Book statuses. Status is derived from the available count, never an
// independent state machine: AVAILABLE iff availableCopies > 0, else BORROWED.
// RESERVED exists for display only and is never set by the update path.
const (
	StatusAvailable = "AVAILABLE"
	StatusBorrowed  = "BORROWED"
	StatusReserved  = "RESERVED"
)

var (
	ErrBookNotFound      = errors.New("Book not found")
	ErrCategoryNotFound  = errors.New("Category not found")
	ErrCategoryExists    = errors.New("Category already exists")
	ErrNoCopiesAvailable = errors.New("No copies available for loan")
)

// Book is a catalog entry. CategoryName is read-side only, resolved in batch
// from the categories collection; the write side stores only CategoryID.
// LegacyCategory is a free-text fallback for records created before categories
// were normalized.
type Book struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	ISBN            string     `json:"isbn" db:"isbn"`
	Publisher       string     `json:"publisher,omitempty" db:"publisher"`
	PublishedYear   int        `json:"published_year,omitempty" db:"published_year"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	CategoryName    string     `json:"category_name,omitempty" db:"-"`
	LegacyCategory  string     `json:"-" db:"legacy_category"`
	Description     string     `json:"description,omitempty" db:"description"`
	CoverImage      string     `json:"cover_image,omitempty" db:"cover_image"`
	TotalCopies     int        `json:"total_copies" db:"total_copies"`
	AvailableCopies int        `json:"available_copies" db:"available_copies"`
	Status          string     `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Category is weakly referenced by books; deleting one does not touch
// referencing records.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateBookInput carries the fields a librarian supplies when adding a book.
type CreateBookInput struct {
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	ISBN          string     `json:"isbn"`
	Publisher     string     `json:"publisher"`
	PublishedYear int        `json:"published_year"`
	CategoryID    *uuid.UUID `json:"category_id"`
	Description   string     `json:"description"`
	CoverImage    string     `json:"cover_image"`
	TotalCopies   int        `json:"total_copies"`
}

// UpdateBookInput is a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title         *string    `json:"title"`
	Author        *string    `json:"author"`
	ISBN          *string    `json:"isbn"`
	Publisher     *string    `json:"publisher"`
	PublishedYear *int       `json:"published_year"`
	CategoryID    *uuid.UUID `json:"category_id"`
	Description   *string    `json:"description"`
	CoverImage    *string    `json:"cover_image"`
	TotalCopies   *int       `json:"total_copies"`
}

// StatusForAvailable derives the book status from an available count.
func StatusForAvailable(available int) string {
	if available > 0 {
		return StatusAvailable
	}
	return StatusBorrowed
}
