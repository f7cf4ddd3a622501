// internal/circulation/implementation_test.go
package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"librarium/internal/catalog"
)

// memBooks is an in-memory catalog.BookRepository with the same conditional
// update semantics as the Postgres implementation.
type memBooks struct {
	books map[uuid.UUID]*catalog.Book
}

func newMemBooks() *memBooks {
	return &memBooks{books: make(map[uuid.UUID]*catalog.Book)}
}

func (m *memBooks) add(totalCopies int) uuid.UUID {
	id := uuid.New()
	m.books[id] = &catalog.Book{
		ID:              id,
		Title:           "A Book",
		Author:          "An Author",
		ISBN:            "9780000000000",
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		Status:          catalog.StatusAvailable,
	}
	return id
}

func (m *memBooks) Create(_ context.Context, input catalog.CreateBookInput) (*catalog.Book, error) {
	id := m.add(input.TotalCopies)
	return m.books[id], nil
}

func (m *memBooks) FindByID(_ context.Context, id uuid.UUID) (*catalog.Book, error) {
	book, ok := m.books[id]
	if !ok {
		return nil, catalog.ErrBookNotFound
	}
	copied := *book
	return &copied, nil
}

func (m *memBooks) FindAll(context.Context) ([]catalog.Book, error) {
	var out []catalog.Book
	for _, b := range m.books {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBooks) FindAllPaginated(ctx context.Context, _, _ int) ([]catalog.Book, int, error) {
	books, err := m.FindAll(ctx)
	return books, len(books), err
}

func (m *memBooks) Update(_ context.Context, id uuid.UUID, _ catalog.UpdateBookInput) (*catalog.Book, error) {
	return m.FindByID(context.Background(), id)
}

func (m *memBooks) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.books, id)
	return nil
}

func (m *memBooks) UpdateAvailability(_ context.Context, id uuid.UUID, availableCopies int) error {
	book, ok := m.books[id]
	if !ok {
		return catalog.ErrBookNotFound
	}
	book.AvailableCopies = availableCopies
	book.Status = catalog.StatusForAvailable(availableCopies)
	return nil
}

func (m *memBooks) DecrementAvailable(_ context.Context, id uuid.UUID) error {
	book, ok := m.books[id]
	if !ok || book.AvailableCopies <= 0 {
		return catalog.ErrNoCopiesAvailable
	}
	book.AvailableCopies--
	book.Status = catalog.StatusForAvailable(book.AvailableCopies)
	return nil
}

func (m *memBooks) IncrementAvailable(_ context.Context, id uuid.UUID) error {
	book, ok := m.books[id]
	if !ok {
		return catalog.ErrBookNotFound
	}
	book.AvailableCopies++
	book.Status = catalog.StatusAvailable
	return nil
}

func (m *memBooks) Search(context.Context, string) ([]catalog.Book, error) {
	return nil, nil
}

type memLoans struct {
	loans map[uuid.UUID]*Loan
	// createErr lets tests force a write failure after the decrement.
	createErr error
}

func newMemLoans() *memLoans {
	return &memLoans{loans: make(map[uuid.UUID]*Loan)}
}

func (m *memLoans) Create(_ context.Context, input CreateLoanInput, loanDate time.Time) (*Loan, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	loan := &Loan{
		ID:       uuid.New(),
		BookID:   input.BookID,
		UserID:   input.UserID,
		LoanDate: loanDate,
		DueDate:  input.DueDate,
		Status:   LoanActive,
	}
	m.loans[loan.ID] = loan
	return loan, nil
}

func (m *memLoans) FindByID(_ context.Context, id uuid.UUID) (*Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (m *memLoans) FindByUserID(_ context.Context, userID uuid.UUID) ([]Loan, error) {
	var out []Loan
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLoans) FindByBookID(_ context.Context, bookID uuid.UUID) ([]Loan, error) {
	var out []Loan
	for _, l := range m.loans {
		if l.BookID == bookID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memLoans) FindAll(context.Context) ([]Loan, error) {
	var out []Loan
	for _, l := range m.loans {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memLoans) MarkReturned(_ context.Context, id uuid.UUID, returnDate time.Time) (*Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	if loan.Status == LoanReturned {
		return nil, ErrLoanAlreadyReturned
	}
	loan.Status = LoanReturned
	loan.ReturnDate = &returnDate
	copied := *loan
	return &copied, nil
}

func (m *memLoans) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	loan, ok := m.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	loan.Status = status
	return nil
}

func (m *memLoans) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.loans, id)
	return nil
}

type memReservations struct {
	reservations map[uuid.UUID]*Reservation
}

func newMemReservations() *memReservations {
	return &memReservations{reservations: make(map[uuid.UUID]*Reservation)}
}

func (m *memReservations) Create(_ context.Context, input CreateReservationInput, reservationDate time.Time) (*Reservation, error) {
	r := &Reservation{
		ID:              uuid.New(),
		BookID:          input.BookID,
		UserID:          input.UserID,
		ReservationDate: reservationDate,
		ExpiryDate:      reservationDate.Add(ReservationWindow),
		Status:          ReservationPending,
	}
	m.reservations[r.ID] = r
	return r, nil
}

func (m *memReservations) FindByID(_ context.Context, id uuid.UUID) (*Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memReservations) FindByUserID(_ context.Context, userID uuid.UUID) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReservations) FindByBookID(_ context.Context, bookID uuid.UUID) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		if r.BookID == bookID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReservations) FindAll(context.Context) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memReservations) Cancel(_ context.Context, id uuid.UUID) error {
	return m.transition(id, ReservationCancelled)
}

func (m *memReservations) Fulfill(_ context.Context, id uuid.UUID) error {
	return m.transition(id, ReservationFulfilled)
}

func (m *memReservations) transition(id uuid.UUID, status string) error {
	r, ok := m.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != ReservationPending {
		return ErrReservationNotPending
	}
	r.Status = status
	return nil
}

type fixture struct {
	books        *memBooks
	loans        *memLoans
	reservations *memReservations
	service      Service
}

func newFixture() *fixture {
	books := newMemBooks()
	loans := newMemLoans()
	reservations := newMemReservations()
	return &fixture{
		books:        books,
		loans:        loans,
		reservations: reservations,
		service:      NewService(loans, reservations, books, zerolog.Nop()),
	}
}

func dueDate() time.Time {
	return time.Now().Add(14 * 24 * time.Hour)
}

func TestCreateLoanAndReturnFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(3)
	user1, user2 := uuid.New(), uuid.New()

	loan1, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: user1, DueDate: dueDate()})
	require.NoError(t, err)
	assert.Equal(t, LoanActive, loan1.Status)
	assert.Equal(t, 2, f.books.books[bookID].AvailableCopies)

	_, err = f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: user2, DueDate: dueDate()})
	require.NoError(t, err)
	assert.Equal(t, 1, f.books.books[bookID].AvailableCopies)

	returned, err := f.service.ReturnLoan(ctx, loan1.ID)
	require.NoError(t, err)
	assert.Equal(t, LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, 2, f.books.books[bookID].AvailableCopies)
}

func TestCreateLoanExhaustsCopies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)

	_, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.NoError(t, err)
	assert.Equal(t, 0, f.books.books[bookID].AvailableCopies)
	assert.Equal(t, catalog.StatusBorrowed, f.books.books[bookID].Status)

	_, err = f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.ErrorIs(t, err, catalog.ErrNoCopiesAvailable)
	assert.EqualError(t, err, "No copies available for loan")

	// The rejected loan performed no writes.
	assert.Len(t, f.loans.loans, 1)
	assert.Equal(t, 0, f.books.books[bookID].AvailableCopies)
}

func TestCreateLoanUnknownBook(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateLoan(context.Background(), CreateLoanInput{BookID: uuid.New(), UserID: uuid.New(), DueDate: dueDate()})
	require.ErrorIs(t, err, catalog.ErrBookNotFound)
	assert.Empty(t, f.loans.loans)
}

func TestCreateLoanCompensatesFailedWrite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(2)
	f.loans.createErr = errors.New("insert failed")

	_, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.Error(t, err)

	// The decrement was rolled back.
	assert.Equal(t, 2, f.books.books[bookID].AvailableCopies)
}

func TestReturnLoanTwiceRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)

	loan, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.NoError(t, err)

	_, err = f.service.ReturnLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.books.books[bookID].AvailableCopies)

	_, err = f.service.ReturnLoan(ctx, loan.ID)
	require.ErrorIs(t, err, ErrLoanAlreadyReturned)
	assert.EqualError(t, err, "Loan already returned")

	// No second increment.
	assert.Equal(t, 1, f.books.books[bookID].AvailableCopies)
}

func TestReturnLoanUnknown(t *testing.T) {
	f := newFixture()

	_, err := f.service.ReturnLoan(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrLoanNotFound)
}

func TestReturnLoanOrphanedBook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)

	loan, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.NoError(t, err)

	// Deleting the book does not cascade to the loan.
	require.NoError(t, f.books.Delete(ctx, bookID))

	_, err = f.service.ReturnLoan(ctx, loan.ID)
	require.ErrorIs(t, err, catalog.ErrBookNotFound)
}

func TestUpdateLoanStatusOverdue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)

	loan, err := f.service.CreateLoan(ctx, CreateLoanInput{BookID: bookID, UserID: uuid.New(), DueDate: dueDate()})
	require.NoError(t, err)

	require.NoError(t, f.service.UpdateLoanStatus(ctx, loan.ID, LoanOverdue))
	assert.Equal(t, LoanOverdue, f.loans.loans[loan.ID].Status)

	err = f.service.UpdateLoanStatus(ctx, loan.ID, "LOST")
	require.ErrorIs(t, err, ErrInvalidLoanStatus)
}

func TestCreateReservation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(0) // availability is deliberately not checked
	userID := uuid.New()

	reservation, err := f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, ReservationPending, reservation.Status)
	assert.Equal(t, reservation.ReservationDate.Add(7*24*time.Hour), reservation.ExpiryDate)
}

func TestCreateReservationDuplicatePending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)
	userID := uuid.New()

	first, err := f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: userID})
	require.NoError(t, err)

	_, err = f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: userID})
	require.ErrorIs(t, err, ErrDuplicateReservation)
	assert.EqualError(t, err, "You already have a pending reservation for this book")

	// A different user may still reserve the same book.
	_, err = f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: uuid.New()})
	require.NoError(t, err)

	// Once cancelled, the user may reserve again.
	require.NoError(t, f.service.CancelReservation(ctx, first.ID))
	_, err = f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: userID})
	require.NoError(t, err)
}

func TestCreateReservationUnknownBook(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateReservation(context.Background(), CreateReservationInput{BookID: uuid.New(), UserID: uuid.New()})
	require.ErrorIs(t, err, catalog.ErrBookNotFound)
}

func TestReservationTerminalTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bookID := f.books.add(1)

	reservation, err := f.service.CreateReservation(ctx, CreateReservationInput{BookID: bookID, UserID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, f.service.FulfillReservation(ctx, reservation.ID))
	err = f.service.CancelReservation(ctx, reservation.ID)
	require.ErrorIs(t, err, ErrReservationNotPending)
}

// TestAvailabilityInvariant drives random serial loan/return sequences and
// checks that the available count never leaves [0, totalCopies].
func TestAvailabilityInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture()
		ctx := context.Background()
		totalCopies := rapid.IntRange(1, 5).Draw(t, "total_copies")
		bookID := f.books.add(totalCopies)

		var active []uuid.UUID
		steps := rapid.IntRange(1, 40).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "lend") || len(active) == 0 {
				loan, err := f.service.CreateLoan(ctx, CreateLoanInput{
					BookID:  bookID,
					UserID:  uuid.New(),
					DueDate: dueDate(),
				})
				if err == nil {
					active = append(active, loan.ID)
				} else if !errors.Is(err, catalog.ErrNoCopiesAvailable) {
					t.Fatalf("unexpected error: %v", err)
				}
			} else {
				idx := rapid.IntRange(0, len(active)-1).Draw(t, "loan_idx")
				_, err := f.service.ReturnLoan(ctx, active[idx])
				if err != nil {
					t.Fatalf("return failed: %v", err)
				}
				active = append(active[:idx], active[idx+1:]...)
			}

			book := f.books.books[bookID]
			if book.AvailableCopies < 0 || book.AvailableCopies > book.TotalCopies {
				t.Fatalf("availability invariant violated: %d not in [0, %d]",
					book.AvailableCopies, book.TotalCopies)
			}
			if book.AvailableCopies != book.TotalCopies-len(active) {
				t.Fatalf("availability %d does not match %d active loans of %d copies",
					book.AvailableCopies, len(active), book.TotalCopies)
			}
		}
	})
}
