package httpserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// userRateLimiter keeps one token bucket per caller for mutating routes.
type userRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*userBucket
	swept   time.Time
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newUserRateLimiter returns nil when rps is not positive, which disables
// limiting.
func newUserRateLimiter(rps float64, burst int) *userRateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &userRateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*userBucket),
	}
}

func (l *userRateLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > limiterIdleTTL {
		for id, bucket := range l.buckets {
			if now.Sub(bucket.lastSeen) > limiterIdleTTL {
				delete(l.buckets, id)
			}
		}
		l.swept = now
	}

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// mutating wraps a write route with the per-user limiter. Anonymous callers
// share one bucket keyed by remote address; requireUser rejects them later.
func (s *Server) mutating(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("X-User-Id"))
		if key == "" {
			key = "addr:" + r.RemoteAddr
		}
		if !s.limiter.Allow(key, time.Now()) {
			s.logger.Warn("rate limit exceeded",
				"event", "http_rate_limited",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"user_id", key,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next(w, r)
	}
}
