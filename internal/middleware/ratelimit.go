package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"storefront-catalog/internal/model"
)

// Idle limiters are swept after this long without a request.
const limiterIdleTTL = 10 * time.Minute

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters  sync.Map // ip -> *visitor
	rate      rate.Limit
	burst     int
	hops      int
	lastSweep atomic.Int64
	now       func() time.Time
	logger    *slog.Logger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// NewIPRateLimiter creates a limiter allowing perMinute requests per
// client, with bursts up to burst. The client address is taken from the
// last X-Forwarded-For hop; see WithTrustedHops.
func NewIPRateLimiter(perMinute, burst int, logger *slog.Logger) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &IPRateLimiter{
		rate:   rate.Limit(float64(perMinute) / 60.0),
		burst:  burst,
		hops:   1,
		now:    time.Now,
		logger: logger,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// WithTrustedHops sets how many X-Forwarded-For entries are appended by
// proxies in front of the service. 0 ignores the header.
func (i *IPRateLimiter) WithTrustedHops(n int) *IPRateLimiter {
	i.hops = max(0, n)
	return i
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	v, ok := i.limiters.Load(ip)
	if !ok {
		v, _ = i.limiters.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(i.rate, i.burst)})
	}
	vis := v.(*visitor)
	vis.lastSeen.Store(i.now().UnixNano())
	return vis.limiter
}

// Allow reports whether ip may make another request now.
func (i *IPRateLimiter) Allow(ip string) bool {
	i.sweep()
	return i.getLimiter(ip).Allow()
}

// Len returns the number of tracked clients.
func (i *IPRateLimiter) Len() int {
	n := 0
	i.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// sweep drops limiters idle for longer than limiterIdleTTL, at most once
// per limiterIdleTTL.
func (i *IPRateLimiter) sweep() {
	now := i.now().UnixNano()
	last := i.lastSweep.Load()
	if now-last < int64(limiterIdleTTL) || !i.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(limiterIdleTTL)
	i.limiters.Range(func(key, v any) bool {
		if v.(*visitor).lastSeen.Load() < cutoff {
			i.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit returns middleware that rejects over-limit clients with the
// chat rate-limit apology and 429.
func (i *IPRateLimiter) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, i.hops)
			if !i.Allow(ip) {
				if i.logger != nil {
					i.logger.WarnContext(r.Context(), "rate limit exceeded",
						slog.String("ip", ip),
						slog.String("path", r.URL.Path),
					)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"code":    "RATE_LIMITED",
					"message": model.ChatRateLimitMessage,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the address appended by the proxy in front of the
// service (the last X-Forwarded-For hop), falling back to the
// connection's remote host. Earlier hops are client-controlled.
func ClientIP(r *http.Request) string {
	return clientIP(r, 1)
}

// clientIP picks the entry hops positions from the end of
// X-Forwarded-For. With hops == 0, or too few entries, the remote host
// is used.
func clientIP(r *http.Request, hops int) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" && hops > 0 {
		parts := strings.Split(fwd, ",")
		if len(parts) >= hops {
			if ip := strings.TrimSpace(parts[len(parts)-hops]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
