package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/redis"
)

// maxLocalClients bounds the in-process limiter table
const maxLocalClients = 10000

// UploadLimiter limits uploads per client. Redis keeps the window shared
// across instances; without Redis each process keeps its own token buckets.
type UploadLimiter struct {
	redis  *redis.RateLimiter
	limit  int
	window time.Duration
	logger *logger.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewUploadLimiter allows limit uploads per window for each client
func NewUploadLimiter(rl *redis.RateLimiter, limit int, window time.Duration, log *logger.Logger) *UploadLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &UploadLimiter{
		redis:  rl,
		limit:  limit,
		window: window,
		logger: log,
		local:  make(map[string]*rate.Limiter),
	}
}

// Allow reports whether client may upload now
func (l *UploadLimiter) Allow(ctx context.Context, client string) bool {
	if l.redis != nil && l.redis.Enabled() {
		allowed, _, err := l.redis.Allow(ctx, redis.UploadRateLimit(client, l.limit, l.window))
		if err == nil {
			return allowed
		}
		l.logger.WithError(err).Warn("Redis rate limit failed, using local limiter")
	}

	return l.localLimiter(client).Allow()
}

func (l *UploadLimiter) localLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.local[client]; ok {
		return lim
	}
	if len(l.local) >= maxLocalClients {
		l.local = make(map[string]*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
	l.local[client] = lim
	return lim
}

// Middleware rejects requests over the limit with 429
func (l *UploadLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		if !l.Allow(r.Context(), client) {
			l.logger.WithField("client", client).Warn("Upload rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			respondError(w, http.StatusTooManyRequests, "Too many uploads, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
