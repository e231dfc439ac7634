package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes shippable goods from downloads
type ProductType string

const (
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
)

// Valid reports whether t is a known product type
func (t ProductType) Valid() bool {
	return t == ProductTypePhysical || t == ProductTypeDigital
}

// Product represents a product in the catalog
type Product struct {
	ID            int64           `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         Money           `json:"price"`
	OriginalPrice *Money          `json:"originalPrice"`
	Images        []string        `json:"images"`
	Category      string          `json:"category"`
	CategoryID    *int64          `json:"categoryId"`
	Brand         string          `json:"brand,omitempty"`
	Type          ProductType     `json:"type"`
	InStock       bool            `json:"inStock"`
	StockQuantity *int            `json:"stockQuantity"` // nil means unlimited
	Rating        decimal.Decimal `json:"rating"`
	ReviewCount   int             `json:"reviewCount"`
	IsFeatured    bool            `json:"isFeatured"`
	IsOnSale      bool            `json:"isOnSale"`
	Tags          []string        `json:"tags"`
	DownloadURL   string          `json:"downloadUrl,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// HasStockLimit reports whether add-to-cart must be checked against StockQuantity.
// Digital products and products without a recorded quantity are never limited.
func (p *Product) HasStockLimit() bool {
	return p.Type == ProductTypePhysical && p.StockQuantity != nil
}

// Clone returns a deep copy so callers never share slices with a store
func (p *Product) Clone() *Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	c.Tags = append([]string(nil), p.Tags...)
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		c.OriginalPrice = &op
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	if p.StockQuantity != nil {
		q := *p.StockQuantity
		c.StockQuantity = &q
	}
	return &c
}

// ProductWithCategory is a product together with its category record, if any
type ProductWithCategory struct {
	*Product
	CategoryData *Category `json:"categoryData,omitempty"`
}

// Category represents a product category
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
	// ProductCount is display data loaded with the catalog; cart and order
	// operations never update it.
	ProductCount int `json:"productCount"`
}
