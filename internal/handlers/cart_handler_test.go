package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubCartService struct {
	items       []models.LineItem
	addErr      error
	lastUserID  string
	lastAdded   models.LineItem
	lastRemoved string
	cleared     bool
}

func (s *stubCartService) List(_ context.Context, userID string) ([]models.LineItem, error) {
	s.lastUserID = userID
	return s.items, nil
}

func (s *stubCartService) Add(_ context.Context, userID string, item models.LineItem) error {
	s.lastUserID = userID
	s.lastAdded = item
	if s.addErr != nil {
		return s.addErr
	}
	s.items = append(s.items, item)
	return nil
}

func (s *stubCartService) Remove(_ context.Context, userID string, itemID string) error {
	s.lastUserID = userID
	s.lastRemoved = itemID
	return nil
}

func (s *stubCartService) Clear(_ context.Context, userID string) error {
	s.lastUserID = userID
	s.cleared = true
	return nil
}

func newCartTestApp(handler *CartHandler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "user")
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/user/cart", handler.List)
	app.Post("/api/user/cart", handler.Add)
	app.Delete("/api/user/cart/:itemId", handler.Remove)
	app.Delete("/api/user/cart", handler.Clear)
	return app
}

func TestAddCartItemReturnsCart(t *testing.T) {
	service := &stubCartService{}
	app := newCartTestApp(&CartHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/user/cart", strings.NewReader(`{"id":"p1","name":"Whey","quantity":2,"price":2999}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Items []models.LineItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", body.Items)
	}
	if service.lastUserID != "42" {
		t.Fatalf("expected user 42, got %q", service.lastUserID)
	}
}

func TestAddCartItemRejectsInvalidItem(t *testing.T) {
	service := &stubCartService{addErr: services.ErrInvalidInput}
	app := newCartTestApp(&CartHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/user/cart", strings.NewReader(`{"id":"p1","quantity":0}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	service := &stubCartService{}
	app := newCartTestApp(&CartHandler{service: service})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/user/cart/p1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRemoved != "p1" {
		t.Fatalf("expected p1 removed, got %q", service.lastRemoved)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/user/cart", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if !service.cleared {
		t.Fatalf("expected cart cleared")
	}
}

func TestCartRequiresUser(t *testing.T) {
	app := fiber.New()
	handler := &CartHandler{service: &stubCartService{}}
	app.Get("/api/user/cart", handler.List)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/user/cart", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
