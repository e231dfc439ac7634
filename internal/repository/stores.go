package repository

import "database/sql"

// Stores groups the repositories backing one storage driver
type Stores struct {
	Categories CategoryRepository
	Products   ProductRepository
	Cart       CartRepository
	Orders     OrderRepository
}

// NewPostgresStores builds every repository on one connection pool
func NewPostgresStores(db *sql.DB) Stores {
	return Stores{
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Cart:       NewCartRepository(db),
		Orders:     NewOrderRepository(db),
	}
}

// Stores returns every view of the in-memory store
func (s *MemoryStore) Stores() Stores {
	return Stores{
		Categories: s.Categories(),
		Products:   s.Products(),
		Cart:       s.Cart(),
		Orders:     s.Orders(),
	}
}
