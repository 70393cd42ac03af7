package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type stubAuthService struct {
	authURLErr error
	token      string
	signInErr  error
	lastCode   string
	lastState  string
	user       *models.User
	userErr    error
	lastUserID int64
}

func (s *stubAuthService) AuthCodeURL(state string) (string, error) {
	s.lastState = state
	if s.authURLErr != nil {
		return "", s.authURLErr
	}
	return "https://accounts.google.test/auth?state=" + url.QueryEscape(state), nil
}

func (s *stubAuthService) CompleteSignIn(_ context.Context, code string) (string, *models.User, error) {
	s.lastCode = code
	if s.signInErr != nil {
		return "", nil, s.signInErr
	}
	return s.token, &models.User{ID: 42}, nil
}

func (s *stubAuthService) CurrentUser(_ context.Context, userID int64) (*models.User, error) {
	s.lastUserID = userID
	return s.user, s.userErr
}

func newAuthTestApp(handler *AuthHandler) *fiber.App {
	app := fiber.New()
	app.Get("/auth/google", handler.GoogleLogin)
	app.Get("/auth/google/callback", handler.GoogleCallback)
	app.Get("/api/auth/me", func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		return c.Next()
	}, handler.Me)
	return app
}

func TestGoogleLoginSetsStateCookie(t *testing.T) {
	service := &stubAuthService{}
	app := newAuthTestApp(&AuthHandler{service: service, frontendURL: "https://app.test"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "state="+service.lastState) {
		t.Fatalf("expected redirect to carry state, got %q", resp.Header.Get("Location"))
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), oauthStateCookie+"="+service.lastState) {
		t.Fatalf("expected state cookie, got %q", resp.Header.Get("Set-Cookie"))
	}
}

func TestGoogleLoginDisabled(t *testing.T) {
	service := &stubAuthService{authURLErr: services.ErrOAuthDisabled}
	app := newAuthTestApp(&AuthHandler{service: service})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGoogleCallbackRedirectsWithToken(t *testing.T) {
	service := &stubAuthService{token: "jwt.token.value"}
	app := newAuthTestApp(&AuthHandler{service: service, frontendURL: "https://app.test"})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=good", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "abc"})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "https://app.test/auth/success?token=jwt.token.value" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if service.lastCode != "good" {
		t.Fatalf("expected code good, got %q", service.lastCode)
	}
}

func TestGoogleCallbackRejectsStateMismatch(t *testing.T) {
	service := &stubAuthService{token: "t"}
	app := newAuthTestApp(&AuthHandler{service: service, frontendURL: "https://app.test"})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=forged&code=good", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "abc"})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastCode != "" {
		t.Fatalf("expected no code exchange")
	}
}

func TestMeReturnsNotFound(t *testing.T) {
	service := &stubAuthService{userErr: pgx.ErrNoRows}
	app := newAuthTestApp(&AuthHandler{service: service})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 {
		t.Fatalf("expected user 42, got %d", service.lastUserID)
	}
}
