package authhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	platformauth "appraisal/internal/auth"
	"appraisal/internal/domain/auth"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
)

type Handler struct {
	Service   *auth.Service
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(service *auth.Service, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Service: service, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/change-password", h.handleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	user, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := platformauth.GenerateToken(h.JWTSecret, platformauth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Role:       user.Role,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":         user.ID,
			"email":      user.Email,
			"employeeId": user.EmployeeID,
			"role":       user.Role,
		},
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{
		"id":         user.UserID,
		"employeeId": user.EmployeeID,
		"role":       user.Role,
	}, requestctx.GetRequestID(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	if len(req.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "new password must be at least 8 characters", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "password_changed"}, requestctx.GetRequestID(r.Context()))
}
