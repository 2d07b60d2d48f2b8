package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

type stubAuthService struct {
	pair         *domain.TokenPair
	validVerdict bool
	err          error
	lastSignUp   ports.SignUpInput
}

func (s *stubAuthService) SignUp(_ context.Context, in ports.SignUpInput) (*domain.TokenPair, error) {
	s.lastSignUp = in
	return s.pair, s.err
}

func (s *stubAuthService) SignIn(context.Context, string, string) (*domain.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) LogOut(context.Context, string, string) error {
	return s.err
}

func (s *stubAuthService) Refresh(context.Context, string) (*domain.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) ValidateAccessToken(context.Context, string) (bool, error) {
	return s.validVerdict, s.err
}

func (s *stubAuthService) PartialUpdate(context.Context, string, ports.UserPatch) (*ports.AuthUpdateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.pair != nil {
		return &ports.AuthUpdateResult{Pair: s.pair}, nil
	}
	return &ports.AuthUpdateResult{Message: "user updated successfully"}, nil
}

func newHandlerContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_SignUp(t *testing.T) {
	svc := &stubAuthService{pair: &domain.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}
	h := NewAuthHandler(svc)

	body := `{"fullName":"Alice Smith","email":"alice@example.com","password":"password123","phone":"5550001111","roles":["USER"]}`
	c, rec := newHandlerContext(http.MethodPost, "/auth-service/sign-up", body)

	if err := h.SignUp(c); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.AccessToken != "acc" || resp.RefreshToken != "ref" {
		t.Fatalf("unexpected pair: %+v", resp)
	}
	if svc.lastSignUp.Email != "alice@example.com" {
		t.Fatalf("input not passed through: %+v", svc.lastSignUp)
	}
}

func TestAuthHandler_SignUp_InvalidPayload(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	// Missing email and short password.
	body := `{"fullName":"Alice","password":"short","phone":"5550001111","roles":["USER"]}`
	c, _ := newHandlerContext(http.MethodPost, "/auth-service/sign-up", body)

	err := h.SignUp(c)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected Validation error, got %v", err)
	}
	msg := domain.MessageOf(err)
	if !strings.Contains(msg, "email is required") || !strings.Contains(msg, "password must be at least 8") {
		t.Fatalf("field messages missing: %q", msg)
	}
}

func TestAuthHandler_ValidateAccessToken_BareBoolean(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{validVerdict: true})

	c, rec := newHandlerContext(http.MethodPost, "/auth-service/validate-access-token/some-token", "")
	c.SetParamNames("token")
	c.SetParamValues("some-token")

	if err := h.ValidateAccessToken(c); err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "true" {
		t.Fatalf("body must be the bare verdict, got %q", rec.Body.String())
	}
}

func TestAuthHandler_PartialUpdate_MessageWhenNoRotation(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, rec := newHandlerContext(http.MethodPatch, "/auth-service/partial-update/alice@example.com", `{"fullName":"Alice A. Smith"}`)
	c.SetParamNames("email")
	c.SetParamValues("alice@example.com")

	if err := h.PartialUpdate(c); err != nil {
		t.Fatalf("PartialUpdate returned error: %v", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Message != "user updated successfully" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}
