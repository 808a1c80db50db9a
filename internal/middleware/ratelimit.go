package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/serroba/record-service-go/internal/ratelimit"
	"go.uber.org/zap"
)

// windowReporter is implemented by limiters that can describe their current window.
type windowReporter interface {
	Snapshot() ratelimit.Window
}

// RateLimiter returns a router middleware that admits requests through limiter.
// It runs for every request, including paths no operation matches.
func RateLimiter(api huma.API, limiter ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := limiter.Allow()

			if reporter, ok := limiter.(windowReporter); ok {
				writeWindowHeaders(w, reporter.Snapshot(), allowed)
			}

			if !allowed {
				logger.Debug("rate limit exceeded",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("client_ip", clientIP(r.Header.Get, r.RemoteAddr)),
				)

				ctx := humachi.NewContext(nil, r, w)
				_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeWindowHeaders(w http.ResponseWriter, window ratelimit.Window, allowed bool) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(window.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(window.Remaining(), 10))

	if !allowed {
		wait := time.Until(window.Reset())
		h.Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait.Seconds())))))
	}
}
