package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/http/middleware"
	"github.com/photoshare/photoshare-api/internal/security"
	servicegomock "github.com/photoshare/photoshare-api/internal/service/gomock"
)

func claimsRequest(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	claims := &security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
		Email:            "ana@example.com",
	}
	ctx := context.WithValue(req.Context(), middleware.ClaimsContextKey, claims)
	return req.WithContext(ctx)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockAuthServiceInterface(ctrl)
	svc.EXPECT().CurrentUser(gomock.Any(), gomock.Any()).Return(&domain.User{
		ID:       7,
		FullName: "Ana Lee",
		Email:    "ana@example.com",
		Photos:   []domain.Photo{{Name: "a.jpg", URL: "/uploads/photos/a.jpg"}},
	}, nil)
	h := NewUserHandler(svc)

	rec := httptest.NewRecorder()
	h.Me(rec, claimsRequest(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var user struct {
		ID       uint   `json:"id"`
		FullName string `json:"fullName"`
		Photos   []struct {
			URL string `json:"url"`
		} `json:"photos"`
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.ID != 7 || user.FullName != "Ana Lee" {
		t.Fatalf("unexpected user payload: %s", env.Data)
	}
	if len(user.Photos) != 1 {
		t.Fatalf("expected photos in payload, got %s", env.Data)
	}
}

func TestMeWithoutClaims(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No CurrentUser expectation: missing claims short-circuit the handler.
	h := NewUserHandler(servicegomock.NewMockAuthServiceInterface(ctrl))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMeUnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockAuthServiceInterface(ctrl)
	svc.EXPECT().CurrentUser(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
	h := NewUserHandler(svc)

	rec := httptest.NewRecorder()
	h.Me(rec, claimsRequest(t))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
