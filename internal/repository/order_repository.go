package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateAndClearCart persists the order and empties the cart of
	// order.SessionID as one unit: either both happen or neither does.
	// The store assigns ID and CreatedAt.
	CreateAndClearCart(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a Postgres-backed OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateAndClearCart inserts the order and deletes the session's cart lines in one transaction
func (r *orderRepository) CreateAndClearCart(ctx context.Context, order *domain.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO orders (session_id, email, first_name, last_name, address, city, postal_code, country, phone,
			subtotal, tax, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		order.SessionID,
		order.Email,
		order.FirstName,
		order.LastName,
		order.Address,
		order.City,
		order.PostalCode,
		order.Country,
		order.Phone,
		order.Subtotal,
		order.Tax,
		order.Total,
		string(order.Status),
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = clearCart(ctx, tx, order.SessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order snapshot by ID
func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, session_id, email, first_name, last_name, address, city, postal_code, country, phone,
			subtotal, tax, total, status, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.SessionID,
		&order.Email,
		&order.FirstName,
		&order.LastName,
		&order.Address,
		&order.City,
		&order.PostalCode,
		&order.Country,
		&order.Phone,
		&order.Subtotal,
		&order.Tax,
		&order.Total,
		&status,
		&order.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	order.Status = domain.OrderStatus(status)
	return order, nil
}
