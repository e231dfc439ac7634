package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateOrderRequest represents the checkout payload. Field rules depend on
// the cart contents, so they are enforced by the order service.
type CreateOrderRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// OrderResponse is returned by checkout
type OrderResponse struct {
	Order   *domain.Order `json:"order"`
	Message string        `json:"message"`
}

// OrderHandler handles HTTP requests for checkout and order lookup
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
	})
}

// CreateOrder converts the session's cart into an order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout payload rejected", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), sid, domain.BuyerData{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "create order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, OrderResponse{
		Order:   order,
		Message: "Order created successfully",
	})
}

// GetOrder returns a stored order by id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
