// Package catalog holds the development catalog loaded into empty stores.
package catalog

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name          string
	slug          string
	description   string
	price         string
	originalPrice string
	image         string
	categorySlug  string
	brand         string
	productType   domain.ProductType
	stock         int
	rating        string
	reviewCount   int
	featured      bool
	onSale        bool
	tags          []string
	downloadURL   string
}

var seedCategories = []domain.Category{
	{Name: "Electrónicos", Slug: "electronicos", Icon: "fas fa-laptop", ProductCount: 245},
	{Name: "Moda", Slug: "moda", Icon: "fas fa-tshirt", ProductCount: 189},
	{Name: "Hogar", Slug: "hogar", Icon: "fas fa-home", ProductCount: 156},
	{Name: "Digitales", Slug: "digitales", Icon: "fas fa-download", ProductCount: 87},
	{Name: "Deportes", Slug: "deportes", Icon: "fas fa-dumbbell", ProductCount: 203},
	{Name: "Libros", Slug: "libros", Icon: "fas fa-book", ProductCount: 134},
}

const imageParams = "?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300"

var seedProducts = []seedProduct{
	{
		name:          `MacBook Pro 14"`,
		slug:          "macbook-pro-14",
		description:   "Chip M2, 16GB RAM, 512GB SSD",
		price:         "2199.00",
		originalPrice: "2499.00",
		image:         "https://images.unsplash.com/photo-1496181133206-80ce9b88a853",
		categorySlug:  "electronicos",
		brand:         "Apple",
		productType:   domain.ProductTypePhysical,
		stock:         15,
		rating:        "4.8",
		reviewCount:   234,
		featured:      true,
		onSale:        true,
		tags:          []string{"laptop", "apple", "m2"},
	},
	{
		name:          "Curso Completo de Vue.js",
		slug:          "curso-vue-js",
		description:   "Aprende Vue 3 desde cero hasta nivel avanzado",
		price:         "79.00",
		originalPrice: "149.00",
		image:         "https://images.unsplash.com/photo-1516321318423-f06f85e504b3",
		categorySlug:  "digitales",
		brand:         "EduTech",
		productType:   domain.ProductTypeDigital,
		rating:        "4.6",
		reviewCount:   1843,
		featured:      true,
		onSale:        true,
		tags:          []string{"curso", "programacion", "vue"},
		downloadURL:   "/downloads/vue-course.zip",
	},
	{
		name:         "Sony WH-1000XM4",
		slug:         "sony-wh-1000xm4",
		description:  "Auriculares inalámbricos con cancelación de ruido",
		price:        "299.00",
		image:        "https://images.unsplash.com/photo-1583394838336-acd977736f90",
		categorySlug: "electronicos",
		brand:        "Sony",
		productType:  domain.ProductTypePhysical,
		stock:        28,
		rating:       "4.9",
		reviewCount:  2156,
		tags:         []string{"auriculares", "sony", "bluetooth"},
	},
	{
		name:          "Pack Plantillas UI/UX",
		slug:          "plantillas-ui-ux",
		description:   "50+ plantillas modernas para tus proyectos",
		price:         "45.00",
		originalPrice: "89.00",
		image:         "https://images.unsplash.com/photo-1558655146-9f40138edfeb",
		categorySlug:  "digitales",
		brand:         "DesignHub",
		productType:   domain.ProductTypeDigital,
		rating:        "4.7",
		reviewCount:   892,
		onSale:        true,
		tags:          []string{"diseño", "plantillas", "ui-ux"},
		downloadURL:   "/downloads/ui-templates.zip",
	},
	{
		name:          "iPhone 15 Pro",
		slug:          "iphone-15-pro",
		description:   "Titanio Natural, 128GB",
		price:         "1099.00",
		originalPrice: "1199.00",
		image:         "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9",
		categorySlug:  "electronicos",
		brand:         "Apple",
		productType:   domain.ProductTypePhysical,
		stock:         12,
		rating:        "4.8",
		reviewCount:   3421,
		featured:      true,
		onSale:        true,
		tags:          []string{"smartphone", "apple", "iphone"},
	},
	{
		name:         "Software de Gestión Pro",
		slug:         "software-gestion-pro",
		description:  "Licencia de por vida + actualizaciones",
		price:        "199.00",
		image:        "https://images.unsplash.com/photo-1551650975-87deedd944c3",
		categorySlug: "digitales",
		brand:        "BusinessSoft",
		productType:  domain.ProductTypeDigital,
		rating:       "4.9",
		reviewCount:  567,
		tags:         []string{"software", "gestion", "empresa"},
		downloadURL:  "/downloads/management-software.exe",
	},
}

// Seed loads the development catalog. It does nothing when the store
// already has categories, so it is safe to run on every start.
// It returns whether anything was written.
func Seed(ctx context.Context, catalog service.CatalogService) (bool, error) {
	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	categories := make(map[string]*domain.Category, len(seedCategories))
	for _, c := range seedCategories {
		category := c
		if err := catalog.CreateCategory(ctx, &category); err != nil {
			return false, fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
		categories[category.Slug] = &category
	}

	for _, sp := range seedProducts {
		product, err := sp.build(categories[sp.categorySlug])
		if err != nil {
			return false, err
		}
		if err := catalog.CreateProduct(ctx, product); err != nil {
			return false, fmt.Errorf("failed to seed product %s: %w", sp.slug, err)
		}
	}

	return true, nil
}

func (sp seedProduct) build(category *domain.Category) (*domain.Product, error) {
	price, err := domain.ParseMoney(sp.price)
	if err != nil {
		return nil, fmt.Errorf("invalid seed price for %s: %w", sp.slug, err)
	}

	product := &domain.Product{
		Slug:        sp.slug,
		Name:        sp.name,
		Description: sp.description,
		Price:       price,
		Images:      []string{sp.image + imageParams},
		Brand:       sp.brand,
		Type:        sp.productType,
		InStock:     true,
		Rating:      decimal.RequireFromString(sp.rating),
		ReviewCount: sp.reviewCount,
		IsFeatured:  sp.featured,
		IsOnSale:    sp.onSale,
		Tags:        sp.tags,
		DownloadURL: sp.downloadURL,
	}

	if sp.originalPrice != "" {
		original, err := domain.ParseMoney(sp.originalPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid seed original price for %s: %w", sp.slug, err)
		}
		product.OriginalPrice = &original
	}
	if sp.productType == domain.ProductTypePhysical {
		stock := sp.stock
		product.StockQuantity = &stock
	}
	if category != nil {
		product.Category = category.Name
		product.CategoryID = &category.ID
	}

	return product, nil
}
