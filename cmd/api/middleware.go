package main

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"techform/internal/jsonlog"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 3 * time.Minute
)

// ipLimiter holds rate limiter and last seen time for an IP address
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterMap holds per-IP rate limiters with thread-safe access
type rateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

// newRateLimiterMap creates a new rate limiter map with the specified rate and burst
func newRateLimiterMap(rps float64, burst int) *rateLimiterMap {
	return &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// getLimiter returns the rate limiter for the given IP, creating one if it doesn't exist
func (rlm *rateLimiterMap) getLimiter(ip string) *rate.Limiter {
	rlm.mu.Lock()
	defer rlm.mu.Unlock()

	limiter, exists := rlm.limiters[ip]
	if !exists {
		limiter = &ipLimiter{
			limiter: rate.NewLimiter(rlm.rps, rlm.burst),
		}
		rlm.limiters[ip] = limiter
	}
	limiter.lastSeen = time.Now()

	return limiter.limiter
}

// cleanupOldEntries removes IP entries that haven't been seen for the specified duration
func (rlm *rateLimiterMap) cleanupOldEntries(maxAge time.Duration) int {
	rlm.mu.Lock()
	defer rlm.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var deletedCount int

	for ip, limiter := range rlm.limiters {
		if limiter.lastSeen.Before(cutoff) {
			delete(rlm.limiters, ip)
			deletedCount++
		}
	}

	return deletedCount
}

// size returns the number of tracked client IPs
func (rlm *rateLimiterMap) size() int {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()
	return len(rlm.limiters)
}

// retryAfter is the time for one token to be replenished.
func (rlm *rateLimiterMap) retryAfter() time.Duration {
	if rlm.rps <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(rlm.rps))
}

// rateLimiter owns a rateLimiterMap and the goroutine that evicts idle clients.
type rateLimiter struct {
	*rateLimiterMap
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// initializeRateLimiter builds the limiter map and, when limiting is enabled,
// starts the background cleanup loop.
func initializeRateLimiter(cfg config, logger *jsonlog.Logger) *rateLimiter {
	rl := &rateLimiter{
		rateLimiterMap: newRateLimiterMap(cfg.limiter.rps, cfg.limiter.burst),
		done:           make(chan struct{}),
	}

	if !cfg.limiter.enabled {
		return rl
	}

	rl.wg.Add(1)
	go func() {
		defer rl.wg.Done()

		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deleted := rl.cleanupOldEntries(limiterMaxIdle)
				if deleted > 0 {
					logger.Debug("rate limiter cleanup",
						"deleted", deleted,
						"remaining", rl.size())
				}
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// shutdown signals the cleanup loop to stop. Safe to call more than once.
func (rl *rateLimiter) shutdown() {
	rl.once.Do(func() {
		close(rl.done)
	})
}

// waitForShutdown blocks until the cleanup loop has exited.
func (rl *rateLimiter) waitForShutdown() {
	rl.wg.Wait()
}

// getClientIP extracts the real client IP from the request
// Handles X-Forwarded-For headers properly for proxied requests
func getClientIP(r *http.Request) string {
	xForwardedFor := r.Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		ip := strings.TrimSpace(ips[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	xRealIP := r.Header.Get("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.logger.ErrorWithContext(r.Context(), "panic recovered",
					"panic", fmt.Sprint(err),
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"addr", r.RemoteAddr)
				app.serverErrorResponse(w, r, fmt.Errorf("%v", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Correlation-ID")
		if corrID == "" {
			corrID = uuid.New().String()
		}

		w.Header().Set("X-Correlation-ID", corrID)

		r = r.WithContext(jsonlog.WithCorrelationID(r.Context(), corrID))

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rr, r)

		app.logger.InfoWithContext(r.Context(), "HTTP request completed",
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"addr", r.RemoteAddr,
			"proto", r.Proto,
			"status", rr.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"user_agent", r.Header.Get("User-Agent"))
	})
}

// responseRecorder wraps http.ResponseWriter to capture the status code
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// rateLimit middleware enforces per-IP rate limiting using token bucket algorithm
func (app *application) rateLimit(rateLimiterMap *rateLimiterMap) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !app.config.limiter.enabled || rateLimiterMap == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			if !rateLimiterMap.getLimiter(ip).Allow() {
				app.logger.WarnWithContext(r.Context(), "rate limit exceeded",
					"ip", ip,
					"rps_limit", float64(rateLimiterMap.rps),
					"burst_limit", rateLimiterMap.burst,
					"method", r.Method,
					"uri", r.URL.RequestURI())

				app.rateLimitExceededResponse(w, r, rateLimiterMap.retryAfter())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
