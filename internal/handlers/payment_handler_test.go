package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type stubPaymentService struct {
	createResult   *models.PaymentOrder
	createErr      error
	checkoutResult *models.CheckoutConfig
	checkoutErr    error
	verifyResult   *services.VerificationResult
	verifyErr      error
	getResult      *models.PaymentOrder
	getErr         error
	lastCreate     services.CreateOrderInput
	lastVerify     models.PaymentVerification
	lastVerifyUser string
	lastPrefill    models.CheckoutPrefill
	lastOrderID    string
}

func (s *stubPaymentService) CreateOrder(_ context.Context, input services.CreateOrderInput) (*models.PaymentOrder, error) {
	s.lastCreate = input
	return s.createResult, s.createErr
}

func (s *stubPaymentService) OpenCheckout(_ context.Context, orderID string, prefill models.CheckoutPrefill) (*models.CheckoutConfig, error) {
	s.lastOrderID = orderID
	s.lastPrefill = prefill
	return s.checkoutResult, s.checkoutErr
}

func (s *stubPaymentService) VerifyPayment(_ context.Context, userID string, input models.PaymentVerification) (*services.VerificationResult, error) {
	s.lastVerifyUser = userID
	s.lastVerify = input
	return s.verifyResult, s.verifyErr
}

func (s *stubPaymentService) GetOrder(_ context.Context, _ string, orderID string) (*models.PaymentOrder, error) {
	s.lastOrderID = orderID
	return s.getResult, s.getErr
}

func newPaymentTestApp(handler *PaymentHandler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "user")
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Post("/api/createOrder", handler.CreateOrder)
	app.Post("/api/verifyOrder", handler.VerifyOrder)
	app.Get("/api/orders/:orderId", handler.GetOrder)
	app.Post("/api/orders/:orderId/checkout", handler.OpenCheckout)
	return app
}

func TestCreateOrderReturnsOrderID(t *testing.T) {
	service := &stubPaymentService{createResult: &models.PaymentOrder{ID: "order_1"}}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/createOrder", strings.NewReader(`{
		"amount": 1000,
		"userId": "42",
		"orderedItems": [{"id": "p1", "name": "Whey", "quantity": 1, "price": 1000}]
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "click-1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.OrderID != "order_1" {
		t.Fatalf("expected order_1, got %q", body.OrderID)
	}
	if service.lastCreate.Amount != 1000 || service.lastCreate.UserID != "42" {
		t.Fatalf("unexpected create input %+v", service.lastCreate)
	}
	if len(service.lastCreate.Items) != 1 || service.lastCreate.Items[0].ID != "p1" {
		t.Fatalf("expected ordered items to pass through, got %+v", service.lastCreate.Items)
	}
	if service.lastCreate.IdempotencyKey != "click-1" {
		t.Fatalf("expected idempotency key, got %q", service.lastCreate.IdempotencyKey)
	}
}

func TestCreateOrderRejectsOtherUser(t *testing.T) {
	service := &stubPaymentService{}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/createOrder", strings.NewReader(`{"amount": 1000, "userId": "7"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastCreate.UserID != "" {
		t.Fatalf("expected service not to be called")
	}
}

func TestCreateOrderGatewayFailureReturnsNotice(t *testing.T) {
	service := &stubPaymentService{createErr: services.ErrGatewayUnavailable}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/createOrder", strings.NewReader(`{"amount": 1000}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body["notice"] != noticeOrderFailed {
		t.Fatalf("expected failure notice, got %q", body["notice"])
	}
}

func TestVerifyOrderReturnsFalseForBadSignature(t *testing.T) {
	service := &stubPaymentService{verifyResult: &services.VerificationResult{IsOK: false}}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/verifyOrder", strings.NewReader(`{
		"orderCreationId": "order_1",
		"razorpayPaymentId": "pay_1",
		"razorpaySignature": "bad"
	}`))
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
		IsOK   bool   `json:"isOk"`
		Notice string `json:"notice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.IsOK {
		t.Fatalf("expected isOk false")
	}
	if body.Notice != noticePaymentNotVerified {
		t.Fatalf("unexpected notice %q", body.Notice)
	}
	if service.lastVerify.OrderCreationID != "order_1" || service.lastVerify.PaymentID != "pay_1" || service.lastVerify.Signature != "bad" {
		t.Fatalf("unexpected verify input %+v", service.lastVerify)
	}
	if service.lastVerifyUser != "42" {
		t.Fatalf("expected verification by user 42, got %q", service.lastVerifyUser)
	}
}

func TestVerifyOrderOtherUsersOrderReturnsForbidden(t *testing.T) {
	service := &stubPaymentService{verifyErr: services.ErrForbidden}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/verifyOrder", strings.NewReader(`{
		"orderCreationId": "order_1",
		"razorpayPaymentId": "pay_1",
		"razorpaySignature": "junk"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestVerifyOrderReturnsUnprocessableWhenAlreadyVerified(t *testing.T) {
	service := &stubPaymentService{verifyErr: services.ErrInvalidStateTransition}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/verifyOrder", strings.NewReader(`{
		"orderCreationId": "order_1",
		"razorpayPaymentId": "pay_1",
		"razorpaySignature": "sig"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestOpenCheckoutReturnsConfig(t *testing.T) {
	service := &stubPaymentService{
		getResult:      &models.PaymentOrder{ID: "order_1", UserID: "42"},
		checkoutResult: &models.CheckoutConfig{Key: "rzp_test", OrderID: "order_1", Amount: 1000},
	}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodPost, "/api/orders/order_1/checkout", strings.NewReader(`{
		"prefill": {"name": "Asha", "email": "asha@example.com"}
	}`))
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
		Checkout models.CheckoutConfig `json:"checkout"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Checkout.OrderID != "order_1" || body.Checkout.Key != "rzp_test" {
		t.Fatalf("unexpected checkout %+v", body.Checkout)
	}
	if service.lastPrefill.Name != "Asha" {
		t.Fatalf("expected prefill to pass through, got %+v", service.lastPrefill)
	}
}

func TestGetOrderReturnsNotFound(t *testing.T) {
	service := &stubPaymentService{getErr: pgx.ErrNoRows}
	app := newPaymentTestApp(&PaymentHandler{service: service})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/order_x", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMapPaymentErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrOrderInProgress, http.StatusConflict},
		{services.ErrIdempotencyKeyReused, http.StatusConflict},
		{services.ErrInvalidStateTransition, http.StatusUnprocessableEntity},
		{services.ErrGatewayUnavailable, http.StatusBadGateway},
		{pgx.ErrNoRows, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			return mapPaymentError(c, tt.err)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, resp.StatusCode)
		}
	}
}
