package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tilakkndl/Nature-app/internal/domain"
	"github.com/tilakkndl/Nature-app/internal/repository"
	"github.com/tilakkndl/Nature-app/internal/service"
	"github.com/tilakkndl/Nature-app/pkg/auth"
	"github.com/tilakkndl/Nature-app/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "user"

type Handlers struct {
	authService service.AuthService
	tokens      *auth.TokenManager
	userRepo    repository.UserRepository
}

func New(authService service.AuthService, tokens *auth.TokenManager, userRepo repository.UserRepository) *Handlers {
	return &Handlers{
		authService: authService,
		tokens:      tokens,
		userRepo:    userRepo,
	}
}

func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Patch("/reset-password/{token}", h.ResetPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/me", h.Me)

			// Admin-only user management, including the privileged role
			// assignment path.
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRole(domain.RoleAdmin))
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.Patch("/{id}/role", h.UpdateUserRole)
				r.Delete("/{id}", h.DeleteUser)
			})
		})
	})

	return r
}

// RequireAuth is the request authentication gate: extract the bearer token,
// verify it, re-resolve the subject, and reject tokens issued before the
// subject's last password change. Every check fails through the same 401
// path; a stale token is never allowed through.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access", "MISSING_TOKEN")
			return
		}

		claims, err := h.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN")
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), claims.Sub)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to resolve token subject", "error", err, "user_id", claims.Sub)
			writeError(w, http.StatusInternalServerError, "Failed to authenticate request", "INTERNAL_ERROR")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "The user belonging to this token no longer exists", "USER_NOT_FOUND")
			return
		}

		if user.PasswordChangedAfter(claims.IssuedAt.Time) {
			writeError(w, http.StatusUnauthorized, "User recently changed password. Please log in again", "STALE_TOKEN")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole authorizes an already-authenticated request against an
// allow-list of roles. It must be registered after RequireAuth; a missing
// subject here is a route-wiring bug, not a client error.
func (h *Handlers) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				logger.ErrorContext(r.Context(), "RequireRole used without RequireAuth", "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "Failed to authorize request", "INTERNAL_ERROR")
				return
			}

			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "You do not have permission to perform this action", "FORBIDDEN")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the subject resolved by RequireAuth, or nil.
func CurrentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(ctxUser).(*domain.User); ok {
		return user
	}
	return nil
}

// Helper functions
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}

// writeServiceError maps service sentinel errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusBadRequest, err.Error(), "EMAIL_EXISTS")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, service.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_OR_EXPIRED_TOKEN")
	case errors.Is(err, service.ErrEmailDelivery):
		writeError(w, http.StatusInternalServerError, err.Error(), "EMAIL_SEND_FAILED")
	default:
		logger.ErrorContext(r.Context(), "Unhandled service error", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Something went wrong", "INTERNAL_ERROR")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
