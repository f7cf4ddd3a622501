// internal/circulation/handler.go
package circulation

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarium/internal/auth"
	"librarium/internal/catalog"
	"librarium/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// LoanRoutes exposes the loan endpoints. Listing all loans and mutating them
// is librarian work; members can only see their own.
func (h *Handler) LoanRoutes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/mine", h.handleListMyLoans)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLibrarian)
		r.Get("/", h.handleListLoans)
		r.Post("/", h.handleCreateLoan)
		r.Post("/{id}/return", h.handleReturnLoan)
		r.Patch("/{id}/status", h.handleUpdateLoanStatus)
	})
	return r
}

// ReservationRoutes exposes the reservation endpoints.
func (h *Handler) ReservationRoutes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/mine", h.handleListMyReservations)
		r.Post("/", h.handleCreateReservation)
		r.Post("/{id}/cancel", h.handleCancelReservation)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLibrarian)
		r.Get("/", h.handleListReservations)
		r.Post("/{id}/fulfill", h.handleFulfillReservation)
	})
	return r
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, loans)
}

func (h *Handler) handleListMyLoans(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	loans, err := h.service.ListLoansByUser(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, loans)
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BookID  uuid.UUID `json:"book_id"`
		UserID  uuid.UUID `json:"user_id"`
		DueDate time.Time `json:"due_date"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.BookID == uuid.Nil || input.UserID == uuid.Nil || input.DueDate.IsZero() {
		httpx.Error(w, http.StatusBadRequest, "book_id, user_id and due_date are required")
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), CreateLoanInput(input))
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	loan, err := h.service.ReturnLoan(r.Context(), id)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *Handler) handleUpdateLoanStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateLoanStatus(r.Context(), id, input.Status); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.service.ListReservations(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, reservations)
}

func (h *Handler) handleListMyReservations(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	reservations, err := h.service.ListReservationsByUser(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, reservations)
}

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var input struct {
		BookID uuid.UUID `json:"book_id"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.BookID == uuid.Nil {
		httpx.Error(w, http.StatusBadRequest, "book_id is required")
		return
	}

	// Reservations are always placed for the signed-in user.
	reservation, err := h.service.CreateReservation(r.Context(), CreateReservationInput{
		BookID: input.BookID,
		UserID: identity.UserID,
	})
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, reservation)
}

func (h *Handler) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid reservation ID")
		return
	}

	if err := h.service.CancelReservation(r.Context(), id); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleFulfillReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid reservation ID")
		return
	}

	if err := h.service.FulfillReservation(r.Context(), id); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrLoanNotFound),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, catalog.ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLoanAlreadyReturned),
		errors.Is(err, ErrDuplicateReservation),
		errors.Is(err, ErrReservationNotPending),
		errors.Is(err, catalog.ErrNoCopiesAvailable):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidLoanStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
