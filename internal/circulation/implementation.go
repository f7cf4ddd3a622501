// internal/circulation/implementation.go
package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"librarium/internal/catalog"
)

var tracer = otel.Tracer("librarium/circulation")

// service implements the Service interface. It composes the loan and
// reservation repositories with the catalog's book repository; all
// cross-collection coordination happens here, without transactions.
type service struct {
	loans        LoanRepository
	reservations ReservationRepository
	books        catalog.BookRepository
	logger       zerolog.Logger
}

// NewService creates a new circulation service instance.
func NewService(loans LoanRepository, reservations ReservationRepository, books catalog.BookRepository, logger zerolog.Logger) Service {
	return &service{
		loans:        loans,
		reservations: reservations,
		books:        books,
		logger:       logger,
	}
}

// CreateLoan lends a book to a user. The availability check and decrement are
// a single atomic conditional update at the storage layer, so two concurrent
// loans on the last copy cannot both succeed. On success exactly one new
// ACTIVE loan exists and the book's available count has decreased by one.
func (s *service) CreateLoan(ctx context.Context, input CreateLoanInput) (*Loan, error) {
	ctx, span := tracer.Start(ctx, "circulation.CreateLoan", trace.WithAttributes(
		attribute.String("book_id", input.BookID.String()),
		attribute.String("user_id", input.UserID.String()),
	))
	defer span.End()

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, catalog.ErrNoCopiesAvailable
	}

	if err := s.books.DecrementAvailable(ctx, input.BookID); err != nil {
		return nil, err
	}

	loan, err := s.loans.Create(ctx, input, time.Now().UTC())
	if err != nil {
		// Compensate the decrement so the copy is not lost.
		if compErr := s.books.IncrementAvailable(ctx, input.BookID); compErr != nil {
			s.logger.Error().Err(compErr).
				Str("book_id", input.BookID.String()).
				Msg("failed to compensate availability after loan create failure")
		}
		return nil, err
	}

	return loan, nil
}

// ReturnLoan closes an ACTIVE or OVERDUE loan. Returning an already-returned
// loan is rejected, not silently accepted. The availability increment is
// deliberately uncapped at total_copies.
func (s *service) ReturnLoan(ctx context.Context, loanID uuid.UUID) (*Loan, error) {
	ctx, span := tracer.Start(ctx, "circulation.ReturnLoan", trace.WithAttributes(
		attribute.String("loan_id", loanID.String()),
	))
	defer span.End()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == LoanReturned {
		return nil, ErrLoanAlreadyReturned
	}

	// The book may have been deleted since the loan was created.
	if _, err := s.books.FindByID(ctx, loan.BookID); err != nil {
		return nil, err
	}

	returned, err := s.loans.MarkReturned(ctx, loanID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.books.IncrementAvailable(ctx, loan.BookID); err != nil {
		return nil, err
	}

	return returned, nil
}

func (s *service) ListLoans(ctx context.Context) ([]Loan, error) {
	return s.loans.FindAll(ctx)
}

func (s *service) ListLoansByUser(ctx context.Context, userID uuid.UUID) ([]Loan, error) {
	return s.loans.FindByUserID(ctx, userID)
}

// UpdateLoanStatus moves a loan to an explicit status, typically OVERDUE.
// There is no scheduled transition; a librarian calls this.
func (s *service) UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, status string) error {
	switch status {
	case LoanActive, LoanReturned, LoanOverdue:
	default:
		return ErrInvalidLoanStatus
	}
	return s.loans.UpdateStatus(ctx, loanID, status)
}

// CreateReservation places a hold on a book. A user may hold at most one
// PENDING reservation per book. Availability is deliberately not checked: a
// reservation may be placed even while copies sit on the shelf.
func (s *service) CreateReservation(ctx context.Context, input CreateReservationInput) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "circulation.CreateReservation", trace.WithAttributes(
		attribute.String("book_id", input.BookID.String()),
		attribute.String("user_id", input.UserID.String()),
	))
	defer span.End()

	if _, err := s.books.FindByID(ctx, input.BookID); err != nil {
		return nil, err
	}

	existing, err := s.reservations.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.BookID == input.BookID && r.Status == ReservationPending {
			return nil, ErrDuplicateReservation
		}
	}

	return s.reservations.Create(ctx, input, time.Now().UTC())
}

func (s *service) ListReservations(ctx context.Context) ([]Reservation, error) {
	return s.reservations.FindAll(ctx)
}

func (s *service) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]Reservation, error) {
	return s.reservations.FindByUserID(ctx, userID)
}

func (s *service) CancelReservation(ctx context.Context, id uuid.UUID) error {
	return s.reservations.Cancel(ctx, id)
}

func (s *service) FulfillReservation(ctx context.Context, id uuid.UUID) error {
	return s.reservations.Fulfill(ctx, id)
}
