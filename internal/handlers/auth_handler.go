package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	service     authApplicationService
	frontendURL string
	secure      bool
}

type authApplicationService interface {
	AuthCodeURL(state string) (string, error)
	CompleteSignIn(ctx context.Context, code string) (string, *models.User, error)
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

func NewAuthHandler(service *services.OAuthService, frontendURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, frontendURL: frontendURL, secure: secureCookies}
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state, err := services.NewOAuthState()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start sign-in"})
	}

	redirect, err := h.service.AuthCodeURL(state)
	if err != nil {
		return mapAuthError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(redirect, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	expected := c.Cookies(oauthStateCookie)
	c.ClearCookie(oauthStateCookie)

	state := strings.TrimSpace(c.Query("state"))
	if expected == "" || state != expected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid sign-in state"})
	}
	if reason := c.Query("error"); reason != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Sign-in was cancelled"})
	}

	token, _, err := h.service.CompleteSignIn(c.Context(), c.Query("code"))
	if err != nil {
		return mapAuthError(c, err)
	}

	return c.Redirect(h.frontendURL+"/auth/success?token="+url.QueryEscape(token), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.service.CurrentUser(c.Context(), userID)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func mapAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOAuthDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Google sign-in is not available"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	case errors.Is(err, services.ErrOAuthExchange):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Google sign-in failed"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process sign-in"})
	}
}
