package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultMiddlewareStack returns the middleware every route runs through.
// Panics are recovered by ErrorHandlingMiddleware so they are logged and
// answered with the JSON error envelope.
func DefaultMiddlewareStack(logger *zap.Logger, quietPaths ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware(logger, quietPaths...),
		ErrorHandlingMiddleware(logger),
		middleware.Compress(5),
	}
}
