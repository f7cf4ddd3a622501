// internal/membership/handler.go
package membership

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarium/internal/auth"
	"librarium/internal/httpx"
)

type Handler struct {
	service Service
	tokens  *auth.Tokens
}

func NewHandler(service Service, tokens *auth.Tokens) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// AuthRoutes exposes the unauthenticated sign-in/sign-up endpoints.
func (h *Handler) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signin", h.handleSignIn)
	r.Post("/signup", h.handleSignUp)
	return r
}

// UserRoutes exposes account management. Self-service endpoints are open to
// any signed-in user; account administration requires the librarian role.
func (h *Handler) UserRoutes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/me", h.handleGetMe)
		r.Patch("/me", h.handleUpdateMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLibrarian)
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Delete("/{id}", h.handleDeleteUser)
	})
	return r
}

type signInResponse struct {
	Token    string `json:"token"`
	Redirect string `json:"redirect"`
	User     *User  `json:"user"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Email == "" || input.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, signInResponse{
		Token:    token,
		Redirect: RedirectFor(user.Role),
		User:     user,
	})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == "" || input.Email == "" || len(input.Password) < 6 {
		httpx.Error(w, http.StatusBadRequest, "name, email and a password of at least 6 characters are required")
		return
	}

	user, err := h.service.SignUp(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	user, err := h.service.GetUser(r.Context(), identity.UserID)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var input UpdateProfileInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, input)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input CreateUserInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == "" || input.Email == "" || len(input.Password) < 6 {
		httpx.Error(w, http.StatusBadRequest, "name, email and a password of at least 6 characters are required")
		return
	}

	user, err := h.service.CreateUser(r.Context(), input)
	if err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httpx.Error(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
