// internal/circulation/repository.go
package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoanRepository is the sole boundary between loan use-cases and storage.
type LoanRepository interface {
	Create(ctx context.Context, input CreateLoanInput, loanDate time.Time) (*Loan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]Loan, error)
	FindByBookID(ctx context.Context, bookID uuid.UUID) ([]Loan, error)
	FindAll(ctx context.Context) ([]Loan, error)

	// MarkReturned sets the loan RETURNED with the given return date. The
	// update is conditional on the loan not already being RETURNED and returns
	// ErrLoanAlreadyReturned when that guard fails.
	MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (*Loan, error)

	// UpdateStatus moves a loan to an explicit status (the OVERDUE transition).
	// Nothing calls this on a schedule; overdue detection is an explicit call.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// ReservationRepository owns writes to the reservations collection.
type ReservationRepository interface {
	Create(ctx context.Context, input CreateReservationInput, reservationDate time.Time) (*Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]Reservation, error)
	FindByBookID(ctx context.Context, bookID uuid.UUID) ([]Reservation, error)
	FindAll(ctx context.Context) ([]Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Fulfill(ctx context.Context, id uuid.UUID) error
}
