package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RateLimiter allows one request per window for each client IP.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	limiters *lru.Cache[string, *rate.Limiter]
	now      func() time.Time
}

// NewRateLimiter tracks at most size clients; the least recently seen are forgotten first.
func NewRateLimiter(window time.Duration, size int) (*RateLimiter, error) {
	c, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{window: window, limiters: c, now: time.Now}, nil
}

func (l *RateLimiter) Allow(key string) bool {
	if l.window <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.window), 1)
		l.limiters.Add(key, lim)
	}
	l.mu.Unlock()
	return lim.AllowN(l.now(), 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			http.Error(w, "Rate limited", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port; chi's RealIP may already have replaced RemoteAddr with a bare IP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
