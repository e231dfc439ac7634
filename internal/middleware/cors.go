package middleware

import (
	"net/http"
	"net/url"

	"github.com/go-chi/cors"
)

// CORSOptions builds the cors options for the storefront frontend. Credentials
// are allowed so the session cookie travels cross-origin, which rules out a
// literal "*" origin. Development accepts any localhost origin instead.
func CORSOptions(allowedOrigins []string, isDevelopment bool) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if isDevelopment {
		configured := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			configured[o] = true
		}
		opts.AllowOriginFunc = func(_ *http.Request, origin string) bool {
			return configured[origin] || isLocalOrigin(origin)
		}
	}
	return opts
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// CORSMiddleware applies CORSOptions
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	return cors.Handler(CORSOptions(allowedOrigins, isDevelopment))
}
