package domain

import (
	"math"
	"time"
)

// MaxLineQuantity is the largest quantity a single cart line can hold, bounded
// by the INTEGER quantity column
const MaxLineQuantity = math.MaxInt32

// CartItem is one product/quantity line in an anonymous session's cart.
// A session holds at most one item per product.
type CartItem struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartLine is a cart item joined with the current catalog snapshot of its product
type CartLine struct {
	CartItem
	Product *Product `json:"product"`
}

// CartSummary is derived from the cart lines on every read and never stored
type CartSummary struct {
	Items     []CartLine `json:"items"`
	Subtotal  Money      `json:"subtotal"`
	Tax       Money      `json:"tax"`
	Total     Money      `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// HasPhysicalItems reports whether any line needs shipping
func (s *CartSummary) HasPhysicalItems() bool {
	for _, line := range s.Items {
		if line.Product != nil && line.Product.Type == ProductTypePhysical {
			return true
		}
	}
	return false
}
