// internal/circulation/domain.go
package circulation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Loan statuses. ACTIVE→RETURNED and ACTIVE→OVERDUE are both terminal; OVERDUE
// is only ever set through an explicit status update, never computed from the
// due date.
const (
	LoanActive   = "ACTIVE"
	LoanReturned = "RETURNED"
	LoanOverdue  = "OVERDUE"
)

// Reservation statuses. PENDING→CANCELLED and PENDING→FULFILLED are terminal.
const (
	ReservationPending   = "PENDING"
	ReservationFulfilled = "FULFILLED"
	ReservationCancelled = "CANCELLED"
)

// ReservationWindow is how long a reservation holds before it expires.
const ReservationWindow = 7 * 24 * time.Hour

var (
	ErrLoanNotFound          = errors.New("Loan not found")
	ErrLoanAlreadyReturned   = errors.New("Loan already returned")
	ErrReservationNotFound   = errors.New("Reservation not found")
	ErrDuplicateReservation  = errors.New("You already have a pending reservation for this book")
	ErrInvalidLoanStatus     = errors.New("invalid loan status")
	ErrReservationNotPending = errors.New("reservation is no longer pending")
)

// Loan records a book lent to a user with an expected due date. ReturnDate is
// set iff the loan is RETURNED.
type Loan struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookID     uuid.UUID  `json:"book_id" db:"book_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	LoanDate   time.Time  `json:"loan_date" db:"loan_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`
	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Reservation is a hold a user places on a book.
type Reservation struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BookID          uuid.UUID `json:"book_id" db:"book_id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	ReservationDate time.Time `json:"reservation_date" db:"reservation_date"`
	ExpiryDate      time.Time `json:"expiry_date" db:"expiry_date"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// CreateLoanInput carries the caller-supplied loan fields. The due date is
// taken as-is; it is not validated against the clock.
type CreateLoanInput struct {
	BookID  uuid.UUID `json:"book_id"`
	UserID  uuid.UUID `json:"user_id"`
	DueDate time.Time `json:"due_date"`
}

// CreateReservationInput identifies the book a user wants to hold.
type CreateReservationInput struct {
	BookID uuid.UUID `json:"book_id"`
	UserID uuid.UUID `json:"user_id"`
}
