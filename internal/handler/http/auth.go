package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/plantstore/internal/service"
	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/httputil"
	"github.com/utafrali/plantstore/pkg/middleware"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// ActivateRequest is the JSON request body for account activation.
type ActivateRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// ResendActivationRequest is the JSON request body for a new activation email.
type ResendActivationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		var regErr *service.RegistrationError
		if errors.As(err, &regErr) {
			httputil.WriteJSON(w, http.StatusBadGateway, httputil.Response{Error: &httputil.ErrorResponse{
				Code:    "ACTIVATION_EMAIL_FAILED",
				Message: "your account was created but the activation email could not be sent, please request a new one",
				Details: map[string]string{"user_id": regErr.UserID},
			}})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// Activate handles POST /api/v1/auth/activate
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := h.service.Activate(r.Context(), req.UserID, req.Token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// ResendActivation handles POST /api/v1/auth/resend-activation
func (h *AuthHandler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	var req ResendActivationRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := h.service.ResendActivation(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusAccepted, map[string]string{"message": "activation email sent"})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, res)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		sessionID = claims.SessionID
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(session.FromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// EmailExists handles GET /api/v1/auth/email-exists?email=
func (h *AuthHandler) EmailExists(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("email is required"), h.logger)
		return
	}

	exists, err := h.service.CheckEmailExists(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]bool{"exists": exists})
}
