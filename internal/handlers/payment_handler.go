package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const (
	noticeOrderFailed        = "Could not start the payment. Please try again."
	noticeOrderInProgress    = "This order is already being placed."
	noticePaymentSucceeded   = "Payment successful! Your order is confirmed."
	noticePaymentNotVerified = "Payment could not be verified."
)

type PaymentHandler struct {
	service paymentApplicationService
}

type paymentApplicationService interface {
	CreateOrder(ctx context.Context, input services.CreateOrderInput) (*models.PaymentOrder, error)
	OpenCheckout(ctx context.Context, orderID string, prefill models.CheckoutPrefill) (*models.CheckoutConfig, error)
	VerifyPayment(ctx context.Context, userID string, input models.PaymentVerification) (*services.VerificationResult, error)
	GetOrder(ctx context.Context, userID string, orderID string) (*models.PaymentOrder, error)
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createOrderRequest struct {
	Amount       int64             `json:"amount"`
	UserID       string            `json:"userId"`
	OrderedItems []models.LineItem `json:"orderedItems"`
}

type openCheckoutRequest struct {
	Prefill models.CheckoutPrefill `json:"prefill"`
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body := strings.TrimSpace(req.UserID); body != "" && body != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	order, err := h.service.CreateOrder(c.Context(), services.CreateOrderInput{
		Amount:         req.Amount,
		UserID:         userID,
		Items:          req.OrderedItems,
		IdempotencyKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		return mapPaymentError(c, err)
	}

	return c.JSON(fiber.Map{"orderId": order.ID})
}

func (h *PaymentHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	order, err := h.service.GetOrder(c.Context(), userID, c.Params("orderId"))
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"order": order})
}

func (h *PaymentHandler) OpenCheckout(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req openCheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	orderID := c.Params("orderId")
	if _, err := h.service.GetOrder(c.Context(), userID, orderID); err != nil {
		return mapPaymentError(c, err)
	}

	checkout, err := h.service.OpenCheckout(c.Context(), orderID, req.Prefill)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"checkout": checkout})
}

// VerifyOrder answers 200 for both outcomes; isOk carries the result.
func (h *PaymentHandler) VerifyOrder(c *fiber.Ctx) error {
	userID, ok := userIDString(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req models.PaymentVerification
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.VerifyPayment(c.Context(), userID, req)
	if err != nil {
		return mapPaymentError(c, err)
	}

	notice := noticePaymentNotVerified
	if result.IsOK {
		notice = noticePaymentSucceeded
	}
	return c.JSON(fiber.Map{"isOk": result.IsOK, "notice": notice})
}

func mapPaymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrOrderInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "notice": noticeOrderInProgress})
	case errors.Is(err, services.ErrIdempotencyKeyReused):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrGatewayUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway unavailable", "notice": noticeOrderFailed})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payment request", "notice": noticeOrderFailed})
	}
}
