package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryStore is an in-process implementation of every repository interface.
// All four views share one lock so that CreateAndClearCart is atomic.
// Records are copied on the way in and out; callers never alias stored values.
type MemoryStore struct {
	mu sync.RWMutex

	categories map[int64]*domain.Category
	products   map[int64]*domain.Product
	cartItems  map[int64]*domain.CartItem
	orders     map[int64]*domain.Order

	nextCategoryID int64
	nextProductID  int64
	nextCartItemID int64
	nextOrderID    int64

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int64]*domain.Category),
		products:   make(map[int64]*domain.Product),
		cartItems:  make(map[int64]*domain.CartItem),
		orders:     make(map[int64]*domain.Order),
		now:        time.Now,
	}
}

// Categories returns the category view of the store
func (s *MemoryStore) Categories() CategoryRepository { return &memoryCategories{s} }

// Products returns the product view of the store
func (s *MemoryStore) Products() ProductRepository { return &memoryProducts{s} }

// Cart returns the cart view of the store
func (s *MemoryStore) Cart() CartRepository { return &memoryCart{s} }

// Orders returns the order view of the store
func (s *MemoryStore) Orders() OrderRepository { return &memoryOrders{s} }

// DeleteProduct removes a product from the catalog. Cart lines referencing it
// are left in place and dropped when the cart is read.
func (s *MemoryStore) DeleteProduct(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false
	}
	delete(s.products, id)
	return true
}

type memoryCategories struct{ s *MemoryStore }

func (r *memoryCategories) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.Slug == category.Slug {
			return ErrCategoryAlreadyExists
		}
	}

	r.s.nextCategoryID++
	category.ID = r.s.nextCategoryID
	stored := *category
	r.s.categories[stored.ID] = &stored
	return nil
}

func (r *memoryCategories) List(ctx context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		categories = append(categories, &cp)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (r *memoryCategories) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryCategories) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCategoryNotFound
}

type memoryProducts struct{ s *MemoryStore }

func (r *memoryProducts) Create(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.products {
		if p.Slug == product.Slug {
			return ErrProductAlreadyExists
		}
	}

	r.s.nextProductID++
	product.ID = r.s.nextProductID
	product.CreatedAt = r.s.now()
	r.s.products[product.ID] = product.Clone()
	return nil
}

func (r *memoryProducts) Update(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	for _, p := range r.s.products {
		if p.ID != product.ID && p.Slug == product.Slug {
			return ErrProductAlreadyExists
		}
	}

	updated := product.Clone()
	updated.CreatedAt = existing.CreatedAt
	r.s.products[product.ID] = updated
	return nil
}

func (r *memoryProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p.Clone(), nil
}

func (r *memoryProducts) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.products {
		if p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *memoryProducts) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			products[id] = p.Clone()
		}
	}
	return products, nil
}

func (r *memoryProducts) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := []*domain.Product{}
	for _, p := range r.s.products {
		if filter.Matches(p) {
			products = append(products, p.Clone())
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

type memoryCart struct{ s *MemoryStore }

func (r *memoryCart) AddQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, item := range r.s.cartItems {
		if item.SessionID == sessionID && item.ProductID == productID {
			if quantity > domain.MaxLineQuantity-item.Quantity {
				return nil, ErrLineQuantityExceeded
			}
			item.Quantity += quantity
			cp := *item
			return &cp, nil
		}
	}

	r.s.nextCartItemID++
	item := &domain.CartItem{
		ID:        r.s.nextCartItemID,
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: r.s.now(),
	}
	r.s.cartItems[item.ID] = item
	cp := *item
	return &cp, nil
}

func (r *memoryCart) SetQuantity(ctx context.Context, sessionID string, itemID int64, quantity int) (*domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.cartItems[itemID]
	if !ok || item.SessionID != sessionID {
		return nil, ErrCartItemNotFound
	}
	item.Quantity = quantity
	cp := *item
	return &cp, nil
}

func (r *memoryCart) Delete(ctx context.Context, sessionID string, itemID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.cartItems[itemID]
	if !ok || item.SessionID != sessionID {
		return false, nil
	}
	delete(r.s.cartItems, itemID)
	return true, nil
}

func (r *memoryCart) ClearSession(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.clearSessionLocked(sessionID)
	return nil
}

func (r *memoryCart) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []*domain.CartItem{}
	for _, item := range r.s.cartItems {
		if item.SessionID == sessionID {
			cp := *item
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// clearSessionLocked must be called with s.mu held for writing
func (s *MemoryStore) clearSessionLocked(sessionID string) {
	for id, item := range s.cartItems {
		if item.SessionID == sessionID {
			delete(s.cartItems, id)
		}
	}
}

type memoryOrders struct{ s *MemoryStore }

func (r *memoryOrders) CreateAndClearCart(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextOrderID++
	order.ID = r.s.nextOrderID
	order.CreatedAt = r.s.now()
	stored := *order
	r.s.orders[stored.ID] = &stored

	r.s.clearSessionLocked(order.SessionID)
	return nil
}

func (r *memoryOrders) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}
