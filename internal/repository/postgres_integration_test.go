package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	testDB       *sql.DB
	testDBErr    error
	testDBOnce   sync.Once
	testTeardown func(context.Context, ...testcontainers.TerminateOption) error
)

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	code := m.Run()

	if testTeardown != nil {
		if err := testTeardown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "could not teardown postgres container: %v\n", err)
		}
	}

	os.Exit(code)
}

// postgresDB starts the shared container on first use and empties every table.
// Tests are skipped when Docker is not available.
func postgresDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	testDBOnce.Do(func() {
		testTeardown, testDBErr = setupTestDB()
	})
	if testDBErr != nil {
		t.Skipf("postgres container unavailable: %v", testDBErr)
	}

	_, err := testDB.Exec(`TRUNCATE orders, cart_items, products, categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return testDB
}

func seedPostgresCategory(t *testing.T, db *sql.DB, slug string) *domain.Category {
	t.Helper()
	category := &domain.Category{Name: "Category " + slug, Slug: slug, Icon: "fas fa-box"}
	require.NoError(t, NewCategoryRepository(db).Create(context.Background(), category))
	return category
}

func newPostgresProduct(slug string, category *domain.Category) *domain.Product {
	stock := 5
	original := domain.MustParseMoney("149.00")
	return &domain.Product{
		Slug:          slug,
		Name:          "Product " + slug,
		Description:   "Description of " + slug,
		Price:         domain.MustParseMoney("99.90"),
		OriginalPrice: &original,
		Images:        []string{"https://example.com/" + slug + ".jpg"},
		Category:      category.Name,
		CategoryID:    &category.ID,
		Brand:         "Acme",
		Type:          domain.ProductTypePhysical,
		InStock:       true,
		StockQuantity: &stock,
		Rating:        decimal.RequireFromString("4.5"),
		ReviewCount:   12,
		IsOnSale:      true,
		Tags:          []string{"gadget", slug},
	}
}

func TestProperty_PostgresProductCreationPreservesAttributes(t *testing.T) {
	db := postgresDB(t)
	repo := NewProductRepository(db)
	category := seedPostgresCategory(t, db, "electronicos")
	ctx := context.Background()
	counter := 0

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, cents int64, stock int, digital bool) bool {
			counter++
			product := newPostgresProduct(fmt.Sprintf("product-%d", counter), category)
			product.Name = name
			product.Price = domain.NewMoneyFromCents(cents)
			product.OriginalPrice = nil
			product.IsOnSale = false
			product.StockQuantity = &stock
			if digital {
				product.Type = domain.ProductTypeDigital
				product.StockQuantity = nil
				product.DownloadURL = "/downloads/file.zip"
			}

			if err := repo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			stored, err := repo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if stored.Name != product.Name || !stored.Price.Equal(product.Price) || stored.Type != product.Type {
				t.Logf("FAIL: Attributes mismatch: %+v vs %+v", stored, product)
				return false
			}
			if digital {
				return stored.StockQuantity == nil && stored.DownloadURL == "/downloads/file.zip"
			}
			return stored.StockQuantity != nil && *stored.StockQuantity == stock &&
				len(stored.Tags) == 2 && *stored.CategoryID == category.ID
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 255 }),
		gen.Int64Range(1, 9999999),
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPostgresProductListFilters(t *testing.T) {
	db := postgresDB(t)
	repo := NewProductRepository(db)
	category := seedPostgresCategory(t, db, "electronicos")
	ctx := context.Background()

	laptop := newPostgresProduct("laptop", category)
	laptop.Brand = "Apple"
	laptop.Price = domain.MustParseMoney("2199.00")
	laptop.OriginalPrice = nil
	laptop.IsOnSale = false
	laptop.IsFeatured = true

	course := newPostgresProduct("course", category)
	course.Name = "Curso de Vue.js"
	course.Tags = []string{"Vue", "frontend"}
	course.Type = domain.ProductTypeDigital
	course.StockQuantity = nil
	course.Brand = ""

	headphones := newPostgresProduct("headphones", category)
	headphones.Brand = "Sony"

	for _, p := range []*domain.Product{laptop, course, headphones} {
		require.NoError(t, repo.Create(ctx, p))
	}

	bySearch, err := repo.List(ctx, domain.ProductFilter{Search: "vue"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "course", bySearch[0].Slug)

	byBrand, err := repo.List(ctx, domain.ProductFilter{Brands: []string{"Apple", "Sony"}})
	require.NoError(t, err)
	require.Len(t, byBrand, 2)
	assert.Equal(t, "laptop", byBrand[0].Slug)
	assert.Equal(t, "headphones", byBrand[1].Slug)

	high := domain.MustParseMoney("1000.00")
	cheap, err := repo.List(ctx, domain.ProductFilter{PriceMax: &high, OnSale: true})
	require.NoError(t, err)
	assert.Len(t, cheap, 2)

	byCategory, err := repo.List(ctx, domain.ProductFilter{Category: "CATEGORY ELECTRONICOS", Featured: true})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "laptop", byCategory[0].Slug)

	found, err := repo.FindByIDs(ctx, []int64{laptop.ID, course.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, []string{"Vue", "frontend"}, found[course.ID].Tags)
	assert.Nil(t, found[course.ID].StockQuantity)
}

func TestPostgresProductSlugIsUnique(t *testing.T) {
	db := postgresDB(t)
	repo := NewProductRepository(db)
	category := seedPostgresCategory(t, db, "moda")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newPostgresProduct("shirt", category)))
	err := repo.Create(ctx, newPostgresProduct("shirt", category))
	assert.ErrorIs(t, err, ErrProductAlreadyExists)
}

func TestPostgresCartAndOrderFlow(t *testing.T) {
	db := postgresDB(t)
	stores := NewPostgresStores(db)
	category := seedPostgresCategory(t, db, "hogar")
	ctx := context.Background()

	product := newPostgresProduct("lamp", category)
	require.NoError(t, stores.Products.Create(ctx, product))

	_, err := stores.Cart.AddQuantity(ctx, "cart_a", product.ID, 2)
	require.NoError(t, err)
	merged, err := stores.Cart.AddQuantity(ctx, "cart_a", product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, merged.Quantity)

	_, err = stores.Cart.AddQuantity(ctx, "cart_b", product.ID, 1)
	require.NoError(t, err)

	items, err := stores.Cart.ListBySession(ctx, "cart_a")
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = stores.Cart.SetQuantity(ctx, "cart_b", items[0].ID, 9)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	order := &domain.Order{
		SessionID: "cart_a",
		BuyerData: domain.BuyerData{Email: "ana@example.com", FirstName: "Ana", LastName: "Gil"},
		Subtotal:  domain.MustParseMoney("499.50"),
		Tax:       domain.MustParseMoney("104.90"),
		Total:     domain.MustParseMoney("604.40"),
		Status:    domain.OrderStatusPending,
	}
	require.NoError(t, stores.Orders.CreateAndClearCart(ctx, order))
	assert.NotZero(t, order.ID)

	remaining, err := stores.Cart.ListBySession(ctx, "cart_a")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	other, err := stores.Cart.ListBySession(ctx, "cart_b")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	stored, err := stores.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "604.40", stored.Total.String())
	assert.Equal(t, "cart_a", stored.SessionID)
}
