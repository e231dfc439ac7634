package server

import (
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthChecker reports the state of a backing resource
type HealthChecker interface {
	Health() map[string]string
}

// Dependencies are the infrastructure pieces built by the caller
type Dependencies struct {
	Stores       repository.Stores
	SessionStore session.Store
	// Redis is optional; it backs rate limiting when enabled
	Redis    *redis.Client
	Notifier service.OrderNotifier
	// Database is optional; when set its health is reported by /api/health
	Database HealthChecker
	Closers  []func() error
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	catalog service.CatalogService
	closers []func() error
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	// Services share one locker so cart edits and checkout serialize per session
	locker := service.NewSessionLocker()
	calculator := service.NewPriceCalculator(cfg.Pricing.TaxRate)

	catalogService := service.NewCatalogService(deps.Stores.Categories, deps.Stores.Products)
	cartService := service.NewCartService(deps.Stores.Cart, deps.Stores.Products, calculator, locker)
	orderService := service.NewOrderService(deps.Stores.Orders, cartService, locker, deps.Notifier, logger)

	resolver := session.NewResolver(
		session.NewTokenCodec(cfg.Session.Secret, cfg.Session.TTL),
		deps.SessionStore,
		cfg.Session.TTL,
		logger,
	)
	sessionMiddleware := custommiddleware.SessionMiddleware(resolver, custommiddleware.SessionCookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	}, logger)

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack(logger, "/api/health")...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/api/health", healthHandler(deps.Database))

	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router)

	// Cart and order routes are served under an anonymous session
	router.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		if cfg.RateLimit.Enabled && deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "ratelimit",
			}, logger))
		}

		transport.NewCartHandler(cartService, logger).RegisterRoutes(r)
		transport.NewOrderHandler(orderService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		catalog: catalogService,
		closers: deps.Closers,
	}

	return server
}

// Catalog exposes the catalog service for startup tasks such as seeding
func (s *Server) Catalog() service.CatalogService {
	return s.catalog
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{
			"status":    "ok",
			"message":   "Storefront API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		if db != nil {
			health := db.Health()
			body["database"] = health
			if health["status"] != "up" {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}
