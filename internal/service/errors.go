package service

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// InsufficientStockError reports an add-to-cart request for more units than
// the product has in stock. Available lets the caller retry with less.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// FieldViolation describes why a single input field was rejected
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects malformed catalog input
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	return "validation failed: " + joinViolations(e.Violations)
}

// InvalidOrderDataError rejects buyer data submitted at checkout
type InvalidOrderDataError struct {
	Violations []FieldViolation
}

func (e *InvalidOrderDataError) Error() string {
	return "invalid order data: " + joinViolations(e.Violations)
}

// lineQuantityError rejects a quantity a single cart line cannot hold
func lineQuantityError() *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{
		Field:   "quantity",
		Message: fmt.Sprintf("A cart line cannot hold more than %d units", domain.MaxLineQuantity),
	}}}
}

func joinViolations(violations []FieldViolation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}
