package repository

import (
	"context"

	"github.com/freakyfit/freakyfit-api/internal/models"
)

type CreateOrderInput struct {
	OrderID  string
	UserID   string
	Amount   int64
	Currency string
	Items    []models.LineItem
}

type PaymentOrderRepository struct {
	db DBTX
}

func NewPaymentOrderRepository(db DBTX) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

const orderColumns = `id, user_id, amount, currency, items, status, payment_id, created_at, updated_at`

func (r *PaymentOrderRepository) Create(ctx context.Context, input CreateOrderInput) (*models.PaymentOrder, error) {
	items := input.Items
	if items == nil {
		items = []models.LineItem{}
	}
	query := `
		INSERT INTO payment_orders (id, user_id, amount, currency, items, status)
		VALUES ($1, $2, $3, $4, $5, 'created')
		RETURNING ` + orderColumns

	return scanOrder(r.db.QueryRow(ctx, query, input.OrderID, input.UserID, input.Amount, input.Currency, items))
}

func (r *PaymentOrderRepository) GetByID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM payment_orders WHERE id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, orderID))
}

// UpdateStatusIfCurrent moves the order only when it is still in
// currentStatus; pgx.ErrNoRows means another request got there first.
func (r *PaymentOrderRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	orderID string,
	currentStatus models.OrderStatus,
	nextStatus models.OrderStatus,
) (*models.PaymentOrder, error) {
	query := `
		UPDATE payment_orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns
	return scanOrder(r.db.QueryRow(ctx, query, orderID, currentStatus, nextStatus))
}

// BeginVerification claims a created or checkout_open order of userID for
// verification and records the gateway payment id.
func (r *PaymentOrderRepository) BeginVerification(
	ctx context.Context,
	orderID string,
	userID string,
	paymentID string,
) (*models.PaymentOrder, error) {
	query := `
		UPDATE payment_orders
		SET status = 'verifying', payment_id = $2, updated_at = NOW()
		WHERE id = $1 AND user_id = $3 AND status IN ('created', 'checkout_open')
		RETURNING ` + orderColumns
	return scanOrder(r.db.QueryRow(ctx, query, orderID, paymentID, userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Currency,
		&order.Items,
		&order.Status,
		&order.PaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
