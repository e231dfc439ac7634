package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

var maxRating = decimal.NewFromInt(5)

// CatalogService defines the interface for catalog reads and management
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductWithCategory, error)
	GetProductByID(ctx context.Context, id int64) (*domain.ProductWithCategory, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.ProductWithCategory, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// CreateCategory validates and stores a category. ProductCount is taken as given.
func (s *catalogService) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	category.Slug = strings.TrimSpace(category.Slug)

	var violations []FieldViolation
	if category.Name == "" {
		violations = append(violations, FieldViolation{Field: "name", Message: "name is required"})
	}
	if category.Slug == "" {
		violations = append(violations, FieldViolation{Field: "slug", Message: "slug is required"})
	}
	if category.ProductCount < 0 {
		violations = append(violations, FieldViolation{Field: "productCount", Message: "productCount must not be negative"})
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			return err
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListProducts returns every product matching filter, each with its category
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductWithCategory, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	byID := make(map[int64]*domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	result := make([]*domain.ProductWithCategory, 0, len(products))
	for _, p := range products {
		item := &domain.ProductWithCategory{Product: p}
		if p.CategoryID != nil {
			item.CategoryData = byID[*p.CategoryID]
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *catalogService) GetProductByID(ctx context.Context, id int64) (*domain.ProductWithCategory, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return s.withCategory(ctx, product)
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.ProductWithCategory, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return s.withCategory(ctx, product)
}

func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	normalizeProduct(product)
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if err == repository.ErrProductAlreadyExists {
			return err
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct replaces a product's catalog data. Existing cart lines pick
// up the new price on their next read; existing orders keep their totals.
func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	normalizeProduct(product)
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if err == repository.ErrProductNotFound || err == repository.ErrProductAlreadyExists {
			return err
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (s *catalogService) withCategory(ctx context.Context, product *domain.Product) (*domain.ProductWithCategory, error) {
	result := &domain.ProductWithCategory{Product: product}
	if product.CategoryID == nil {
		return result, nil
	}

	category, err := s.categoryRepo.FindByID(ctx, *product.CategoryID)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			return result, nil
		}
		return nil, fmt.Errorf("failed to get product category: %w", err)
	}
	result.CategoryData = category
	return result, nil
}

func normalizeProduct(p *domain.Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	// Digital goods are never stock limited and need no inventory figure.
	if p.Type == domain.ProductTypeDigital {
		p.StockQuantity = nil
	}
	if p.HasStockLimit() && *p.StockQuantity == 0 {
		p.InStock = false
	}
}

func validateProduct(p *domain.Product) error {
	var violations []FieldViolation
	add := func(field, message string) {
		violations = append(violations, FieldViolation{Field: field, Message: message})
	}

	if p.Name == "" {
		add("name", "name is required")
	}
	if p.Slug == "" {
		add("slug", "slug is required")
	}
	if !p.Type.Valid() {
		add("type", "type must be one of: physical, digital")
	}
	if !p.Price.IsPositive() {
		add("price", "price must be greater than zero")
	}
	if p.OriginalPrice != nil && !p.OriginalPrice.GreaterThan(p.Price) {
		add("originalPrice", "originalPrice must be greater than price")
	}
	if p.IsOnSale && p.OriginalPrice == nil {
		add("isOnSale", "products on sale need an originalPrice")
	}
	if p.StockQuantity != nil && *p.StockQuantity < 0 {
		add("stockQuantity", "stockQuantity must not be negative")
	}
	if p.Rating.IsNegative() || p.Rating.GreaterThan(maxRating) {
		add("rating", "rating must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		add("reviewCount", "reviewCount must not be negative")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
