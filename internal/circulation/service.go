// internal/circulation/service.go
package circulation

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the circulation service.
type Service interface {
	CreateLoan(ctx context.Context, input CreateLoanInput) (*Loan, error)
	ReturnLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error)
	ListLoans(ctx context.Context) ([]Loan, error)
	ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error)
	UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, status string) error

	CreateReservation(ctx context.Context, input CreateReservationInput) (*Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]Reservation, error)
	CancelReservation(ctx context.Context, id uuid.UUID) error
	FulfillReservation(ctx context.Context, id uuid.UUID) error
}
