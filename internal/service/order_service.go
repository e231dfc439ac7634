package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Buyer fields checked for every order; shipping fields are added when the
// cart holds physical goods.
var (
	contactFields  = []string{"Email", "FirstName", "LastName", "Phone"}
	shippingFields = []string{"Address", "City", "PostalCode", "Country"}
)

// OrderNotifier is told about every committed order
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *domain.Order, lines []domain.CartLine) error
}

// OrderService defines the interface for checkout and order lookup
type OrderService interface {
	CreateOrder(ctx context.Context, sessionID string, buyer domain.BuyerData) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cart      CartService
	locker    *SessionLocker
	notifier  OrderNotifier
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService. notifier may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cart CartService,
	locker *SessionLocker,
	notifier OrderNotifier,
	logger *zap.Logger,
) OrderService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &orderService{
		orderRepo: orderRepo,
		cart:      cart,
		locker:    locker,
		notifier:  notifier,
		validate:  validate,
		logger:    logger,
	}
}

// CreateOrder snapshots the session's cart into a pending order and empties
// the cart in the same atomic step. Stock is not decremented.
func (s *orderService) CreateOrder(ctx context.Context, sessionID string, buyer domain.BuyerData) (*domain.Order, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	summary, err := s.cart.GetSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if summary.ItemCount == 0 {
		return nil, ErrEmptyCart
	}

	buyer = trimBuyer(buyer)
	if err := s.validateBuyer(buyer, summary.HasPhysicalItems()); err != nil {
		return nil, err
	}

	order := &domain.Order{
		SessionID: sessionID,
		BuyerData: buyer,
		Subtotal:  summary.Subtotal,
		Tax:       summary.Tax,
		Total:     summary.Total,
		Status:    domain.OrderStatusPending,
	}
	if err := s.orderRepo.CreateAndClearCart(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", sessionID),
		zap.String("total", order.Total.String()),
		zap.Int("item_count", summary.ItemCount),
	)

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, order, summary.Items); err != nil {
			s.logger.Warn("Failed to send order confirmation",
				zap.Int64("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *orderService) validateBuyer(buyer domain.BuyerData, shipping bool) error {
	fields := contactFields
	if shipping {
		fields = append(append([]string{}, contactFields...), shippingFields...)
	}

	err := s.validate.StructPartial(buyer, fields...)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate buyer data: %w", err)
	}

	violations := make([]FieldViolation, 0, len(validationErrors))
	for _, fe := range validationErrors {
		violations = append(violations, FieldViolation{
			Field:   fe.Field(),
			Message: buyerFieldMessage(fe),
		})
	}
	return &InvalidOrderDataError{Violations: violations}
}

func buyerFieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

func trimBuyer(b domain.BuyerData) domain.BuyerData {
	b.Email = strings.TrimSpace(b.Email)
	b.FirstName = strings.TrimSpace(b.FirstName)
	b.LastName = strings.TrimSpace(b.LastName)
	b.Address = strings.TrimSpace(b.Address)
	b.City = strings.TrimSpace(b.City)
	b.PostalCode = strings.TrimSpace(b.PostalCode)
	b.Country = strings.TrimSpace(b.Country)
	b.Phone = strings.TrimSpace(b.Phone)
	return b
}
