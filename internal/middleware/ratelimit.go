package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// windowCounter is a fixed window counter keyed per client in Redis
type windowCounter struct {
	client *redis.Client
	cfg    RateLimitConfig
}

type windowState struct {
	count int64
	reset time.Duration
}

func (c windowCounter) key(clientID string) string {
	return c.cfg.KeyPrefix + ":" + clientID
}

// hit records one request and reports the counter and time left in the window.
// A counter without an expiry, whether fresh or left behind by a failed
// EXPIRE, gets the full window.
func (c windowCounter) hit(ctx context.Context, clientID string) (windowState, error) {
	key := c.key(clientID)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return windowState{}, err
	}

	if ttl.Val() > 0 {
		return windowState{count: incr.Val(), reset: ttl.Val()}, nil
	}
	if err := c.client.Expire(ctx, key, c.cfg.Window).Err(); err != nil {
		return windowState{}, err
	}
	return windowState{count: incr.Val(), reset: c.cfg.Window}, nil
}

// clientID keys established sessions by their id. A session minted by this
// request is keyed by the remote address, so dropping the cookie does not
// start a fresh window.
func clientID(r *http.Request) string {
	if sessionID, ok := GetSessionID(r.Context()); ok && !IsNewSession(r.Context()) {
		return sessionID
	}
	return r.RemoteAddr
}

// RateLimitMiddleware limits each client to RequestsPerWindow requests per
// Window. Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	counter := windowCounter{client: redisClient, cfg: config}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientID(r)

			state, err := counter.hit(r.Context(), id)
			if err != nil {
				logger.Error("Rate limit counter unavailable",
					zap.Error(err),
					zap.String("key", counter.key(id)),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(config.RequestsPerWindow) - state.count
			if remaining < 0 {
				remaining = 0
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(state.reset).Unix(), 10))

			if state.count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", id),
					zap.Int64("count", state.count),
					zap.String("limit", limit),
				)
				h.Set("Retry-After", strconv.Itoa(int(state.reset.Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
