package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

var (
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrLineQuantityExceeded = errors.New("cart line quantity limit exceeded")
)

// CartRepository defines the interface for session-scoped cart line access.
// Every method is scoped by session ID; an item belonging to another session
// behaves as if it did not exist.
type CartRepository interface {
	// AddQuantity increments the (session, product) line by quantity, creating
	// the line when it does not exist yet, and returns the resulting line.
	// A merge past domain.MaxLineQuantity fails with ErrLineQuantityExceeded
	// and leaves the line unchanged.
	AddQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, sessionID string, itemID int64) (bool, error)
	ClearSession(ctx context.Context, sessionID string) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.CartItem, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a Postgres-backed CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// AddQuantity merges into the existing line with a single upsert so that two
// concurrent adds from different processes are both counted.
func (r *cartRepository) AddQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (session_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		WHERE cart_items.quantity::bigint + EXCLUDED.quantity <= $4
		RETURNING id, session_id, product_id, quantity, created_at
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, sessionID, productID, quantity, domain.MaxLineQuantity).Scan(
		&item.ID,
		&item.SessionID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineQuantityExceeded
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return item, nil
}

// SetQuantity overwrites the quantity of an existing line
func (r *cartRepository) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (*domain.CartItem, error) {
	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE id = $1 AND session_id = $2
		RETURNING id, session_id, product_id, quantity, created_at
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, itemID, sessionID, quantity).Scan(
		&item.ID,
		&item.SessionID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return item, nil
}

// Delete removes a line and reports whether a row was actually removed
func (r *cartRepository) Delete(ctx context.Context, sessionID string, itemID int64) (bool, error) {
	query := `DELETE FROM cart_items WHERE id = $1 AND session_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ClearSession removes every line of the session
func (r *cartRepository) ClearSession(ctx context.Context, sessionID string) error {
	if err := clearCart(ctx, r.db, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ListBySession returns the session's lines in insertion order
func (r *cartRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartItem, error) {
	query := `
		SELECT id, session_id, product_id, quantity, created_at
		FROM cart_items
		WHERE session_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{}
		err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func clearCart(ctx context.Context, db execer, sessionID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID)
	return err
}
