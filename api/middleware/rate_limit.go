package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/pkg/config"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

// RateLimitStore is the counter surface backing the fixed-window limiter.
// *redis.Client satisfies it.
type RateLimitStore interface {
	RateLimitKey(route, ip string) string
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit applies a per-IP fixed-window limit to the wrapped route. A store
// failure lets the request through so a Redis blip never blocks lookups.
func RateLimit(store RateLimitStore, route string, cfg config.OrderLookupConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if store == nil || cfg.MaxAttempts <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := store.RateLimitKey(route, clientIP(r))
			count, err := store.IncrWithTTL(ctx, key, cfg.Window)
			if err != nil {
				if logg != nil {
					ctx := logg.WithField(ctx, "rate_limit_key", key)
					logg.Warn(ctx, "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(cfg.MaxAttempts) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
