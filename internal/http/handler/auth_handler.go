package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/photoshare/photoshare-api/internal/http/response"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/service"
)

type AuthHandler struct {
	svc service.AuthServiceInterface
}

func NewAuthHandler(svc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		response.Error(w, r, http.StatusBadRequest, "INVALID_REQUEST", "email and password are required")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		slog.ErrorContext(r.Context(), "login failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}

	observability.Audit(r, "user.login", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, result)
}
