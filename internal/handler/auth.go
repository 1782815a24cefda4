package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/avensio/avensio-web/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"username":"...","email":"...","password":"..."}
// Response: 201 {"id":..., "username":..., "email":..., "createdAt":...}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var violation *domain.PolicyViolation
		switch {
		case errors.As(err, &violation):
			writeError(w, http.StatusBadRequest, "PASSWORD_POLICY", violation.Error(),
				map[string]any{"rule": string(violation.Rule)})
		case errors.Is(err, domain.ErrIdentityExists):
			writeError(w, http.StatusBadRequest, "IDENTITY_EXISTS", "An account with that email or username already exists.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		default:
			slog.Error("register user", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: 200 {"id":..., "username":..., "email":..., "role":..., "token":..., "expiresIn":...}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body.")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var invalid *domain.InvalidCredentialsError
		var locked *domain.AccountLockedError
		switch {
		case errors.As(err, &invalid):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.",
				map[string]any{"remainingAttempts": invalid.RemainingAttempts})
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", strconv.FormatInt(locked.RetryAfterSeconds(), 10))
			writeError(w, http.StatusTooManyRequests, "ACCOUNT_LOCKED", "Account temporarily locked due to repeated failed logins.",
				map[string]any{"retryAfterSeconds": locked.RetryAfterSeconds()})
		default:
			slog.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponseDTO{
		ID:        result.User.ID,
		Username:  result.User.Username,
		Email:     result.User.Email,
		Role:      result.User.Role,
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
	})
}

// HandleCheckAuth returns the identity carried in the verified token.
// GET /auth/check-auth
// Response: 200 {"id":..., "username":..., "email":..., "role":...} or 401
func (h *AuthHandler) HandleCheckAuth(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       claims.Subject,
		"username": claims.Username,
		"email":    claims.Email,
		"role":     claims.Role,
	})
}

// HandleLogout acknowledges a logout. Tokens are stateless, so there is no
// server-side session to invalidate; clients discard the token.
// POST /auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
