package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-api/internal/domain"
	"github.com/coursecraft/coursecraft-api/internal/metrics"
	"github.com/coursecraft/coursecraft-api/internal/repo"
	"github.com/coursecraft/coursecraft-api/internal/security"
)

const (
	ctxRequestID = "X-Request-ID"
	ctxUserKey   = "authUser"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// CORS allows the configured frontend origin only.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Protect extracts the session token from the Authorization header or the
// cookie, verifies it and loads the user into the request context.
func (h *Handler) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if hdr := c.GetHeader("Authorization"); strings.HasPrefix(hdr, "Bearer ") {
			token = strings.TrimSpace(hdr[len("Bearer "):])
		} else if v, err := c.Cookie("token"); err == nil && v != "" && v != "none" {
			token = v
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authorized to access this route. No token provided."})
			return
		}
		claims, err := security.ParseAccess(h.JWTSecret, token)
		if err != nil || claims.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authorized to access this route. Invalid or expired token."})
			return
		}
		u, err := h.Store.FindUserByID(c.Request.Context(), claims.UID)
		if err != nil || u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authorized to access this route. Invalid or expired token."})
			return
		}
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// Authorize gates a route on an allow-list of roles. Must run after Protect.
func (h *Handler) Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authenticated"})
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "User role '" + u.Role + "' is not authorized to access this route."})
	}
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// Limiter is the per-IP request-count throttle on the auth endpoints.
type Limiter interface {
	Allow(ctx context.Context, ip string) bool
}

type bucket struct {
	tokens  int
	updated time.Time
}

// MemoryLimiter is a coarse fixed-window counter, used when Redis is not
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (rl *MemoryLimiter) Allow(_ context.Context, ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[ip]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[ip] = &bucket{tokens: 1, updated: now}
		return true
	}
	if b.tokens < rl.rate {
		b.tokens++
		b.updated = now
		return true
	}
	return false
}

// RedisLimiter shares the window across instances. Fails open when Redis is
// unreachable.
type RedisLimiter struct {
	rds    *repo.Redis
	rate   int
	window time.Duration
}

func NewRedisLimiter(rds *repo.Redis, rate int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rds: rds, rate: rate, window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, ip string) bool {
	n, err := rl.rds.IncrWindow(ctx, "auth:rl:"+ip, rl.window)
	if err != nil {
		return true
	}
	return n <= int64(rl.rate)
}

func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.Request.Context(), clientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
