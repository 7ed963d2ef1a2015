// Package ratelimit throttles the public donation intake route. The counter
// lives in Redis so the limit holds across replicas; without Redis the
// middleware is a pass-through.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "givegate/pkg/domain-errors"
	"givegate/pkg/httputil"
)

// Fixed-window counter: INCR then arm the expiry on the first hit only.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// Limiter counts requests per subject within a fixed window.
type Limiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New creates a Limiter. client may be nil (limiter disabled).
func New(client redis.UniversalClient, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		client: client,
		prefix: "givegate:rate_limit",
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow consumes one request for subject. It returns false with a retry-after
// hint once the window count exceeds the limit. Redis errors fail open: a
// limiter outage must not take donations down with it.
func (l *Limiter) Allow(ctx context.Context, subject string) (allowed bool, retryAfter int) {
	if l == nil || l.client == nil || l.limit <= 0 || subject == "" {
		return true, 0
	}

	key := fmt.Sprintf("%s:%s", l.prefix, subject)
	raw, err := windowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
		return true, 0
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		l.logger.WarnContext(ctx, "unexpected rate limiter response shape", "type", fmt.Sprintf("%T", raw))
		return true, 0
	}
	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}

	if count > int64(l.limit) {
		retry := int(math.Ceil(float64(ttlMs) / 1000.0))
		if retry < 1 {
			retry = 1
		}
		return false, retry
	}
	return true, 0
}

// Middleware applies the limiter per client IP.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.Allow(r.Context(), clientIP(r))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the caller's address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
