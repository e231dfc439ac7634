package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this slug already exists")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	// FindByIDs returns the products that still exist, keyed by ID. Missing IDs are omitted.
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
}

const productColumns = `id, slug, name, description, price, original_price, images, category, category_id,
		brand, type, in_stock, stock_quantity, rating, review_count, is_featured, is_on_sale, tags,
		download_url, created_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres-backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product; the database assigns ID and creation time
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (slug, name, description, price, original_price, images, category, category_id,
			brand, type, in_stock, stock_quantity, rating, review_count, is_featured, is_on_sale, tags, download_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, productArgs(product)...).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET slug = $1, name = $2, description = $3, price = $4, original_price = $5, images = $6,
		    category = $7, category_id = $8, brand = $9, type = $10, in_stock = $11, stock_quantity = $12,
		    rating = $13, review_count = $14, is_featured = $15, is_on_sale = $16, tags = $17, download_url = $18
		WHERE id = $19
	`

	args := append(productArgs(product), product.ID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindBySlug retrieves a product by its unique slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, slug), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return product, nil
}

// FindByIDs retrieves all listed products in a single round trip
func (r *productRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	products := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	list, err := r.query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}

	for _, p := range list {
		products[p.ID] = p
	}
	return products, nil
}

// List retrieves products matching every clause of the filter, ordered by ID
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	where, args := productWhereClause(filter)
	query := `SELECT ` + productColumns + ` FROM products ` + where + ` ORDER BY id ASC`

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	typeMap := pgtype.NewMap()
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows, typeMap)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// productWhereClause translates the filter into a parameterized WHERE clause
func productWhereClause(filter domain.ProductFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "LOWER(category) = LOWER("+next(filter.Category)+")")
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+next(string(filter.Type)))
	}
	if filter.Search != "" {
		p := next(likePattern(filter.Search))
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE %[1]s OR description ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE %[1]s))", p))
	}
	if filter.Featured {
		conditions = append(conditions, "is_featured")
	}
	if filter.OnSale {
		conditions = append(conditions, "is_on_sale")
	}
	if filter.PriceMin != nil {
		conditions = append(conditions, "price >= "+next(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		conditions = append(conditions, "price <= "+next(*filter.PriceMax))
	}
	if len(filter.Brands) > 0 {
		conditions = append(conditions, "brand <> '' AND brand = ANY("+next(filter.Brands)+")")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func productArgs(p *domain.Product) []interface{} {
	var originalPrice interface{}
	if p.OriginalPrice != nil {
		originalPrice = *p.OriginalPrice
	}

	var categoryID sql.NullInt64
	if p.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}

	var stock sql.NullInt64
	if p.StockQuantity != nil {
		stock = sql.NullInt64{Int64: int64(*p.StockQuantity), Valid: true}
	}

	images := p.Images
	if images == nil {
		images = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return []interface{}{
		p.Slug,
		p.Name,
		p.Description,
		p.Price,
		originalPrice,
		images,
		p.Category,
		categoryID,
		p.Brand,
		string(p.Type),
		p.InStock,
		stock,
		p.Rating,
		p.ReviewCount,
		p.IsFeatured,
		p.IsOnSale,
		tags,
		p.DownloadURL,
	}
}

func scanProduct(row rowScanner, typeMap *pgtype.Map) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		originalPrice decimal.NullDecimal
		categoryID    sql.NullInt64
		stock         sql.NullInt64
		productType   string
	)

	err := row.Scan(
		&product.ID,
		&product.Slug,
		&product.Name,
		&product.Description,
		&product.Price,
		&originalPrice,
		typeMap.SQLScanner(&product.Images),
		&product.Category,
		&categoryID,
		&product.Brand,
		&productType,
		&product.InStock,
		&stock,
		&product.Rating,
		&product.ReviewCount,
		&product.IsFeatured,
		&product.IsOnSale,
		typeMap.SQLScanner(&product.Tags),
		&product.DownloadURL,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Type = domain.ProductType(productType)
	if originalPrice.Valid {
		op := domain.NewMoney(originalPrice.Decimal)
		product.OriginalPrice = &op
	}
	if categoryID.Valid {
		id := categoryID.Int64
		product.CategoryID = &id
	}
	if stock.Valid {
		q := int(stock.Int64)
		product.StockQuantity = &q
	}

	return product, nil
}
