package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/photoshare/photoshare-api/internal/domain"
	"github.com/photoshare/photoshare-api/internal/service"
	servicegomock "github.com/photoshare/photoshare-api/internal/service/gomock"
)

func TestLoginReturnsToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockAuthServiceInterface(ctrl)
	svc.EXPECT().Login(gomock.Any(), "ana@example.com", "secret1").Return(&service.LoginResult{
		User:      &domain.User{ID: 7, Email: "ana@example.com"},
		Token:     "token-value",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login",
		strings.NewReader(`{"email":"ana@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Token != "token-value" || data.User.ID != 7 {
		t.Fatalf("unexpected payload: %s", env.Data)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockAuthServiceInterface(ctrl)
	svc.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, service.ErrInvalidCredentials)
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login",
		strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error payload: %s", rec.Body.String())
	}
}

func TestLoginRejectsBadJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No Login expectation: the service must not see a malformed body.
	h := NewAuthHandler(servicegomock.NewMockAuthServiceInterface(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(servicegomock.NewMockAuthServiceInterface(ctrl))

	for _, body := range []string{`{}`, `{"email":"a@b.com"}`, `{"password":"secret1"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}
