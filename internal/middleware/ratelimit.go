package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/radiusdt/kpi-dashboard/internal/config"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
)

// ipLimiterIdle is how long an unused per-IP limiter is kept.
const ipLimiterIdle = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware implements token bucket rate limiting, globally and per
// client IP.
type RateLimitMiddleware struct {
	cfg     config.RateLimitConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	global  *rate.Limiter

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
	now        func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware. m may be nil.
func NewRateLimitMiddleware(cfg config.RateLimitConfig, logger *zap.Logger, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		global:     rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		ipLimiters: make(map[string]*ipLimiter),
		now:        time.Now,
	}
}

// Handler wraps an http.Handler with rate limiting.
func (rl *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		scope := ""
		switch {
		case !rl.global.Allow():
			scope = "global"
		case !rl.ipLimiter(ip).Allow():
			scope = "ip"
		}
		if scope != "" {
			rl.logger.Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
			)
			rl.metrics.RecordRateLimitHit(scope)
			tooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ipLimiter returns or creates the limiter for ip.
func (rl *RateLimitMiddleware) ipLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	l, ok := rl.ipLimiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.IPRPS), rl.cfg.IPBurst)}
		rl.ipLimiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter
}

// CleanupIPLimiters drops per-IP limiters idle for longer than ipLimiterIdle.
// It returns how many were removed.
func (rl *RateLimitMiddleware) CleanupIPLimiters() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-ipLimiterIdle)
	removed := 0
	for ip, l := range rl.ipLimiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.ipLimiters, ip)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("cleaned up IP rate limiters", zap.Int("removed", removed))
	}
	return removed
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded"}`))
}
