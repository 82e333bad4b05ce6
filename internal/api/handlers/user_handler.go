package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avelez/clipvault-be/internal/auth"
	"github.com/avelez/clipvault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login, and the dashboard.
type UserHandler struct {
	service     services.UserServiceProvider
	events      services.EventServiceProvider
	tokens      *auth.Manager
	roleEnabled bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, tokens *auth.Manager, roleEnabled bool) *UserHandler {
	return &UserHandler{service: service, events: events, tokens: tokens, roleEnabled: roleEnabled}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := ""
	if h.roleEnabled {
		role = payload.Role
	}

	user, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Name, email and password are required")
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already exists")
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
			writeError(w, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	if err := h.events.CreateEvent(r.Context(), "user.register", "info", "User registered: "+user.Email, nil); err != nil {
		log.Warn().Err(err).Msg("Failed to record registration event")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Best effort: a failed last-login update must not fail the login itself.
	ip := clientIP(r)
	go func(userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.service.RecordLogin(ctx, userID, ip); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to record last login")
		}
		if err := h.events.CreateEvent(ctx, "user.login", "info", "User logged in: "+userID, nil); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to record login event")
		}
	}(user.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
	})
}

// Dashboard returns the authenticated user's record. The auth gate has already
// verified the token; a user deleted since issuance is a 404, not a 403.
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load user for dashboard")
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to your dashboard",
		"user":    user,
	})
}

// clientIP extracts the peer address without its port. RealIP middleware has
// already substituted forwarded headers where present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
