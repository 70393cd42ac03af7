package models

import "time"

type OrderStatus string

// Idle and OrderCreating are never stored; an order row only exists once the
// gateway issued an id.
const (
	OrderStatusIdle               OrderStatus = "idle"
	OrderStatusCreating           OrderStatus = "order_creating"
	OrderStatusCreated            OrderStatus = "created"
	OrderStatusCheckoutOpen       OrderStatus = "checkout_open"
	OrderStatusVerifying          OrderStatus = "verifying"
	OrderStatusVerified           OrderStatus = "verified"
	OrderStatusVerificationFailed OrderStatus = "verification_failed"
)

var validOrderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusIdle:               {OrderStatusCreating: true},
	OrderStatusCreating:           {OrderStatusCreated: true, OrderStatusIdle: true},
	OrderStatusCreated:            {OrderStatusCheckoutOpen: true, OrderStatusVerifying: true},
	OrderStatusCheckoutOpen:       {OrderStatusVerifying: true},
	OrderStatusVerifying:          {OrderStatusVerified: true, OrderStatusVerificationFailed: true},
	OrderStatusVerified:           {},
	OrderStatusVerificationFailed: {},
}

func CanTransition(from, to OrderStatus) bool {
	return validOrderTransitions[from][to]
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusVerified || s == OrderStatusVerificationFailed
}

type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type PaymentOrder struct {
	ID        string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Items     []LineItem  `json:"orderedItems"`
	Status    OrderStatus `json:"status"`
	PaymentID *string     `json:"paymentId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type PaymentVerification struct {
	OrderCreationID string `json:"orderCreationId"`
	PaymentID       string `json:"razorpayPaymentId"`
	Signature       string `json:"razorpaySignature"`
}

type CheckoutPrefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type CheckoutTheme struct {
	Color string `json:"color"`
}

// CheckoutConfig is handed to the hosted checkout widget as-is.
type CheckoutConfig struct {
	Key         string          `json:"key"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id"`
	Prefill     CheckoutPrefill `json:"prefill"`
	Theme       CheckoutTheme   `json:"theme"`
}
