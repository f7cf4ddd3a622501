// internal/catalog/handler.go
package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarium/internal/auth"
	"librarium/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// BookRoutes exposes the book endpoints: listing and search are public,
// mutations require the librarian role.
func (h *Handler) BookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleListBooks)
	r.Get("/search", h.handleSearch)
	r.Get("/{id}", h.handleGetBook)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLibrarian)
		r.Post("/", h.handleCreateBook)
		r.Patch("/{id}", h.handleUpdateBook)
		r.Delete("/{id}", h.handleDeleteBook)
	})
	return r
}

// CategoryRoutes exposes the category endpoints.
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleListCategories)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLibrarian)
		r.Post("/", h.handleCreateCategory)
		r.Delete("/{id}", h.handleDeleteCategory)
	})
	return r
}

type paginatedBooks struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("limit") != "" {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			httpx.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		books, total, err := h.service.ListBooksPaginated(r.Context(), limit, offset)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, paginatedBooks{Books: books, Total: total})
		return
	}

	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.Error(w, http.StatusBadRequest, "missing search query")
		return
	}

	books, err := h.service.Search(r.Context(), query)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var input CreateBookInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Title == "" || input.Author == "" || input.ISBN == "" || input.TotalCopies < 1 {
		httpx.Error(w, http.StatusBadRequest, "title, author, isbn and a positive total_copies are required")
		return
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	var input UpdateBookInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, input)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == "" {
		httpx.Error(w, http.StatusBadRequest, "category name is required")
		return
	}

	category, err := h.service.CreateCategory(r.Context(), input.Name)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCategoryExists), errors.Is(err, ErrNoCopiesAvailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
