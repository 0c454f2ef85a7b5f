package handler

import (
	"log/slog"
	"net/http"

	"github.com/photoshare/photoshare-api/internal/http/middleware"
	"github.com/photoshare/photoshare-api/internal/http/response"
	"github.com/photoshare/photoshare-api/internal/service"
)

type UserHandler struct {
	svc service.AuthServiceInterface
}

func NewUserHandler(svc service.AuthServiceInterface) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me handles GET /api/users/me and returns the authenticated user's
// profile with photos.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
		return
	}
	user, err := h.svc.CurrentUser(r.Context(), claims)
	if err != nil {
		slog.ErrorContext(r.Context(), "load current user", "error", err)
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}
