// internal/circulation/postgres.go
package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const loanColumns = `id, book_id, user_id, loan_date, due_date, return_date, status, created_at, updated_at`

// PostgresLoanRepository implements LoanRepository against the loans collection.
type PostgresLoanRepository struct {
	db *sqlx.DB
}

func NewPostgresLoanRepository(db *sqlx.DB) *PostgresLoanRepository {
	return &PostgresLoanRepository{db: db}
}

func (r *PostgresLoanRepository) Create(ctx context.Context, input CreateLoanInput, loanDate time.Time) (*Loan, error) {
	loan := &Loan{
		ID:        uuid.New(),
		BookID:    input.BookID,
		UserID:    input.UserID,
		LoanDate:  loanDate,
		DueDate:   input.DueDate,
		Status:    LoanActive,
		CreatedAt: loanDate,
		UpdatedAt: loanDate,
	}

	query := `
		INSERT INTO loans (id, book_id, user_id, loan_date, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		loan.ID, loan.BookID, loan.UserID, loan.LoanDate, loan.DueDate,
		loan.Status, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert loan: %w", err)
	}
	return loan, nil
}

func (r *PostgresLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*Loan, error) {
	var loan Loan
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return &loan, nil
}

func (r *PostgresLoanRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]Loan, error) {
	var loans []Loan
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY loan_date DESC`
	if err := r.db.SelectContext(ctx, &loans, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list loans by user: %w", err)
	}
	return loans, nil
}

func (r *PostgresLoanRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) ([]Loan, error) {
	var loans []Loan
	query := `SELECT ` + loanColumns + ` FROM loans WHERE book_id = $1 ORDER BY loan_date DESC`
	if err := r.db.SelectContext(ctx, &loans, query, bookID); err != nil {
		return nil, fmt.Errorf("failed to list loans by book: %w", err)
	}
	return loans, nil
}

func (r *PostgresLoanRepository) FindAll(ctx context.Context) ([]Loan, error) {
	var loans []Loan
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY loan_date DESC`
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

func (r *PostgresLoanRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (*Loan, error) {
	// Conditional update: a loan that is already RETURNED is left untouched,
	// so a concurrent double return cannot inflate availability.
	query := `
		UPDATE loans
		SET status = $1, return_date = $2, updated_at = NOW()
		WHERE id = $3 AND status <> $1
	`
	res, err := r.db.ExecContext(ctx, query, LoanReturned, returnDate, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark loan returned: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrLoanAlreadyReturned
	}

	return r.FindByID(ctx, id)
}

func (r *PostgresLoanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *PostgresLoanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return nil
}

const reservationColumns = `id, book_id, user_id, reservation_date, expiry_date, status, created_at, updated_at`

// PostgresReservationRepository implements ReservationRepository.
type PostgresReservationRepository struct {
	db *sqlx.DB
}

func NewPostgresReservationRepository(db *sqlx.DB) *PostgresReservationRepository {
	return &PostgresReservationRepository{db: db}
}

func (r *PostgresReservationRepository) Create(ctx context.Context, input CreateReservationInput, reservationDate time.Time) (*Reservation, error) {
	reservation := &Reservation{
		ID:              uuid.New(),
		BookID:          input.BookID,
		UserID:          input.UserID,
		ReservationDate: reservationDate,
		ExpiryDate:      reservationDate.Add(ReservationWindow),
		Status:          ReservationPending,
		CreatedAt:       reservationDate,
		UpdatedAt:       reservationDate,
	}

	query := `
		INSERT INTO reservations (id, book_id, user_id, reservation_date, expiry_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		reservation.ID, reservation.BookID, reservation.UserID, reservation.ReservationDate,
		reservation.ExpiryDate, reservation.Status, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}
	return reservation, nil
}

func (r *PostgresReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}

func (r *PostgresReservationRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]Reservation, error) {
	var reservations []Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY reservation_date DESC`
	if err := r.db.SelectContext(ctx, &reservations, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list reservations by user: %w", err)
	}
	return reservations, nil
}

func (r *PostgresReservationRepository) FindByBookID(ctx context.Context, bookID uuid.UUID) ([]Reservation, error) {
	var reservations []Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE book_id = $1 ORDER BY reservation_date DESC`
	if err := r.db.SelectContext(ctx, &reservations, query, bookID); err != nil {
		return nil, fmt.Errorf("failed to list reservations by book: %w", err)
	}
	return reservations, nil
}

func (r *PostgresReservationRepository) FindAll(ctx context.Context) ([]Reservation, error) {
	var reservations []Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY reservation_date DESC`
	if err := r.db.SelectContext(ctx, &reservations, query); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (r *PostgresReservationRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, ReservationCancelled)
}

func (r *PostgresReservationRepository) Fulfill(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, ReservationFulfilled)
}

func (r *PostgresReservationRepository) transition(ctx context.Context, id uuid.UUID, status string) error {
	// Both transitions leave PENDING; anything else is terminal already.
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, status, id, ReservationPending)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return ErrReservationNotPending
	}
	return nil
}
