package domain

import "time"

// OrderStatus is the lifecycle marker of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// BuyerData is the contact and shipping information submitted at checkout.
// Address fields are only required when the cart contains physical products.
type BuyerData struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// Order is an immutable financial snapshot of a cart at checkout time.
// Subtotal, Tax and Total are copied from the summary and never recomputed.
type Order struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId"`

	BuyerData

	Subtotal  Money       `json:"subtotal"`
	Tax       Money       `json:"tax"`
	Total     Money       `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}
