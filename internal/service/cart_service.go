package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService defines the interface for session-scoped cart operations
type CartService interface {
	AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, sessionID string, itemID int64) (bool, error)
	Clear(ctx context.Context, sessionID string) error
	GetItems(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	GetSummary(ctx context.Context, sessionID string) (*domain.CartSummary, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	calculator  PriceCalculator
	locker      *SessionLocker
}

// NewCartService creates a new instance of CartService. The locker must be
// shared with the OrderService so checkout and cart edits are serialized.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	calculator PriceCalculator,
	locker *SessionLocker,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		calculator:  calculator,
		locker:      locker,
	}
}

// AddItem puts quantity units of a product into the session's cart, merging
// with an existing line for the same product. Only the requested quantity is
// checked against stock, not the merged total.
func (s *cartService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > domain.MaxLineQuantity {
		return nil, lineQuantityError()
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product.HasStockLimit() && quantity > *product.StockQuantity {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: *product.StockQuantity,
		}
	}

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	item, err := s.cartRepo.AddQuantity(ctx, sessionID, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrLineQuantityExceeded) {
			return nil, lineQuantityError()
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return item, nil
}

// UpdateQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line and returns a nil item.
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (*domain.CartItem, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	if quantity <= 0 {
		removed, err := s.cartRepo.Delete(ctx, sessionID, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		if !removed {
			return nil, repository.ErrCartItemNotFound
		}
		return nil, nil
	}
	if quantity > domain.MaxLineQuantity {
		return nil, lineQuantityError()
	}

	item, err := s.cartRepo.SetQuantity(ctx, sessionID, itemID, quantity)
	if err != nil {
		if err == repository.ErrCartItemNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, itemID int64) (bool, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	removed, err := s.cartRepo.Delete(ctx, sessionID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return removed, nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	if err := s.cartRepo.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// GetItems joins the session's lines with the current catalog. Lines whose
// product has disappeared are left out.
func (s *cartService) GetItems(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	items, err := s.cartRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	if len(items) == 0 {
		return []domain.CartLine{}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{CartItem: *item, Product: product})
	}
	return lines, nil
}

func (s *cartService) GetSummary(ctx context.Context, sessionID string) (*domain.CartSummary, error) {
	lines, err := s.GetItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := s.calculator.Summarize(lines)
	return &summary, nil
}
