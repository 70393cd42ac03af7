package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freakyfit/freakyfit-api/internal/models"
	"github.com/freakyfit/freakyfit-api/internal/repository"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrOrderInProgress        = errors.New("order creation already in progress")
	ErrIdempotencyKeyReused   = errors.New("idempotency key was used for a different order")
)

type paymentOrderStore interface {
	Create(ctx context.Context, input repository.CreateOrderInput) (*models.PaymentOrder, error)
	GetByID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	UpdateStatusIfCurrent(ctx context.Context, orderID string, currentStatus, nextStatus models.OrderStatus) (*models.PaymentOrder, error)
	BeginVerification(ctx context.Context, orderID, userID, paymentID string) (*models.PaymentOrder, error)
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type PaymentSettings struct {
	Currency     string
	MerchantName string
	ThemeColor   string
}

type PaymentService struct {
	orders      paymentOrderStore
	gateway     PaymentGateway
	cart        cartClearer
	idempotency IdempotencyStore
	events      EventPublisher
	settings    PaymentSettings
	logger      *zap.Logger
}

func NewPaymentService(
	orders paymentOrderStore,
	gateway PaymentGateway,
	cart cartClearer,
	idempotency IdempotencyStore,
	events EventPublisher,
	settings PaymentSettings,
	logger *zap.Logger,
) *PaymentService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		orders:      orders,
		gateway:     gateway,
		cart:        cart,
		idempotency: idempotency,
		events:      events,
		settings:    settings,
		logger:      logger,
	}
}

type CreateOrderInput struct {
	Amount         int64
	UserID         string
	Items          []models.LineItem
	IdempotencyKey string
}

type VerificationResult struct {
	IsOK  bool
	Order *models.PaymentOrder
}

// CreateOrder asks the gateway for an order id and records the order. A
// failure leaves nothing behind and is not retried.
func (s *PaymentService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.PaymentOrder, error) {
	userID := strings.TrimSpace(input.UserID)
	if input.Amount <= 0 || userID == "" {
		return nil, ErrInvalidInput
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, ErrInvalidInput
		}
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		existing, reserved, err := s.idempotency.Reserve(ctx, userID, key)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return s.replayOrder(ctx, userID, input.Amount, existing)
		}
	}

	order, err := s.createOrder(ctx, userID, input)
	if err != nil {
		if key != "" && s.idempotency != nil {
			s.releaseKey(ctx, userID, key)
		}
		return nil, err
	}

	if key != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, userID, key, order.ID); err != nil {
			// The key must not stay pending.
			s.logger.Warn("store idempotency key", zap.String("key", key), zap.Error(err))
			s.releaseKey(ctx, userID, key)
		}
	}

	s.publish(ctx, NewOrderEvent(EventOrderCreated, order.ID, order.UserID, order.Amount, order.Currency))
	return order, nil
}

// replayOrder answers a repeated request with the order its key created. The
// key must have been used for the same amount.
func (s *PaymentService) replayOrder(ctx context.Context, userID string, amount int64, orderID string) (*models.PaymentOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID || order.Amount != amount {
		return nil, ErrIdempotencyKeyReused
	}
	return order, nil
}

func (s *PaymentService) releaseKey(ctx context.Context, userID, key string) {
	if err := s.idempotency.Release(ctx, userID, key); err != nil {
		s.logger.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *PaymentService) createOrder(ctx context.Context, userID string, input CreateOrderInput) (*models.PaymentOrder, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderInput{
		Amount:   input.Amount,
		Currency: s.settings.Currency,
		Receipt:  fmt.Sprintf("rcpt-%s-%d", userID, time.Now().UnixNano()),
		Notes:    map[string]string{"user_id": userID},
	})
	if err != nil {
		s.logger.Error("create gateway order", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	order, err := s.orders.Create(ctx, repository.CreateOrderInput{
		OrderID:  gatewayOrder.ID,
		UserID:   userID,
		Amount:   input.Amount,
		Currency: s.settings.Currency,
		Items:    input.Items,
	})
	if err != nil {
		s.logger.Error("store order", zap.String("order_id", gatewayOrder.ID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

// OpenCheckout builds the widget configuration for an order that has not been
// verified yet. Reopening an already open checkout is allowed.
func (s *PaymentService) OpenCheckout(
	ctx context.Context,
	orderID string,
	prefill models.CheckoutPrefill,
) (*models.CheckoutConfig, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusCheckoutOpen {
		if !models.CanTransition(order.Status, models.OrderStatusCheckoutOpen) {
			return nil, ErrInvalidStateTransition
		}
		order, err = s.orders.UpdateStatusIfCurrent(ctx, orderID, order.Status, models.OrderStatusCheckoutOpen)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}
	}

	return &models.CheckoutConfig{
		Key:         s.gateway.KeyID(),
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        s.settings.MerchantName,
		Description: checkoutDescription(order),
		OrderID:     order.ID,
		Prefill:     prefill,
		Theme:       models.CheckoutTheme{Color: s.settings.ThemeColor},
	}, nil
}

// VerifyPayment checks the checkout signature once per order. Only the buyer
// may verify. A valid signature clears the buyer's cart; an invalid one
// leaves it untouched.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, input models.PaymentVerification) (*VerificationResult, error) {
	orderID := strings.TrimSpace(input.OrderCreationID)
	paymentID := strings.TrimSpace(input.PaymentID)
	if orderID == "" || paymentID == "" || strings.TrimSpace(input.Signature) == "" {
		return nil, ErrInvalidInput
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	if _, err := s.orders.BeginVerification(ctx, orderID, userID, paymentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	ok := s.gateway.VerifySignature(orderID, paymentID, input.Signature)
	next := models.OrderStatusVerificationFailed
	if ok {
		next = models.OrderStatusVerified
	}

	updated, err := s.orders.UpdateStatusIfCurrent(ctx, orderID, models.OrderStatusVerifying, next)
	if err != nil {
		return nil, err
	}

	event := NewOrderEvent(EventPaymentVerificationFailed, updated.ID, updated.UserID, updated.Amount, updated.Currency)
	event.PaymentID = paymentID
	if ok {
		event.EventType = EventPaymentVerified
		if err := s.cart.Clear(ctx, updated.UserID); err != nil {
			s.logger.Warn("clear cart after payment", zap.String("user_id", updated.UserID), zap.Error(err))
		}
		s.logger.Info("payment verified", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	} else {
		s.logger.Warn("payment verification failed", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	}
	s.publish(ctx, event)

	return &VerificationResult{IsOK: ok, Order: updated}, nil
}

func (s *PaymentService) GetOrder(ctx context.Context, userID string, orderID string) (*models.PaymentOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *PaymentService) publish(ctx context.Context, event OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish order event",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func checkoutDescription(order *models.PaymentOrder) string {
	switch len(order.Items) {
	case 0:
		return "Freaky Fit order"
	case 1:
		return order.Items[0].Name
	default:
		return fmt.Sprintf("%s and %d more", order.Items[0].Name, len(order.Items)-1)
	}
}
