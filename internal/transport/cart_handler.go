package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddToCartRequest represents the add-to-cart payload. Quantity defaults to 1.
type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"omitempty,gte=1,lte=999"`
}

// UpdateCartItemRequest represents the quantity update payload. Zero removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=999"`
}

// CartItemResponse is returned by add and update
type CartItemResponse struct {
	Item    *domain.CartItem    `json:"item"`
	Summary *domain.CartSummary `json:"summary"`
	Message string              `json:"message"`
}

// CartSummaryResponse is returned by item removal
type CartSummaryResponse struct {
	Summary *domain.CartSummary `json:"summary"`
	Message string              `json:"message"`
}

// MessageResponse carries only a human readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// CartHandler handles HTTP requests for the session's cart
type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:   cart,
		logger: logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/", h.AddItem)
		r.Delete("/", h.ClearCart)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.RemoveItem)
	})
}

// GetCart returns the session's cart summary
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cart.GetSummary(r.Context(), sid)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// AddItem adds a product to the session's cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.cart.AddItem(r.Context(), sid, req.ProductID, quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "add cart item")
		return
	}

	summary, err := h.cart.GetSummary(r.Context(), sid)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get cart")
		return
	}

	h.logger.Debug("Cart item added",
		zap.String("session_id", sid),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, CartItemResponse{
		Item:    item,
		Summary: summary,
		Message: "Product added to cart",
	})
}

// UpdateItem sets a cart line's quantity
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cart update validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	item, err := h.cart.UpdateQuantity(r.Context(), sid, itemID, *req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "update cart item")
		return
	}

	summary, err := h.cart.GetSummary(r.Context(), sid)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get cart")
		return
	}

	message := "Cart updated"
	if *req.Quantity == 0 {
		message = "Product removed from cart"
	}
	middleware.RespondWithJSON(w, http.StatusOK, CartItemResponse{
		Item:    item,
		Summary: summary,
		Message: message,
	})
}

// RemoveItem deletes a cart line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	removed, err := h.cart.RemoveItem(r.Context(), sid, itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "remove cart item")
		return
	}
	if !removed {
		middleware.RespondWithError(w, http.StatusNotFound, "cart item not found")
		return
	}

	summary, err := h.cart.GetSummary(r.Context(), sid)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CartSummaryResponse{
		Summary: summary,
		Message: "Product removed from cart",
	})
}

// ClearCart empties the session's cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.cart.Clear(r.Context(), sid); err != nil {
		respondWithServiceError(w, h.logger, err, "clear cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared"})
}
