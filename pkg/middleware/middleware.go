package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.RWMutex

	// Configure limits per endpoint type
	loginLimit = rate.Limit(10.0 / 60.0)   // 10 requests per minute
	spotLimit  = rate.Limit(1000.0 / 60.0) // 1000 requests per minute, polled
	crmLimit   = rate.Limit(100.0 / 60.0)  // 100 requests per minute
)

// Cleanup old visitors periodically
func init() {
	go cleanupVisitors()
}

func getLimiter(path, clientIP string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	key := clientIP + ":" + path
	v, exists := visitors[key]

	if !exists {
		var limit rate.Limit
		switch {
		case strings.HasPrefix(path, "/login"):
			limit = loginLimit
		case strings.HasPrefix(path, "/spot"):
			limit = spotLimit
		case path == "" || path == "/":
			limit = rate.Inf
		default:
			limit = crmLimit
		}

		v = &visitor{
			limiter:  rate.NewLimiter(limit, 5), // small burst for page loads
			lastSeen: time.Now(),
		}
		visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for ip, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, ip)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles clients per path with token buckets.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getLimiter(c.FullPath(), c.ClientIP())
		if !limiter.Allow() {
			response.BadRequest(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAuth gates routes on session presence. Unauthenticated requests
// are redirected to the login path carrying the originally requested
// path+query as a single-encoded next parameter. The store is consulted on
// every request, so session changes take effect immediately.
func RequireAuth(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsAuthenticated() {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, "/login?next="+next)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin gates routes on the session's role claim containing "admin"
// (case-insensitive). Non-admin sessions are sent to the default landing
// page. The decoded claim is a UI affordance only; the backend enforces the
// real access decision on every proxied call.
func RequireAdmin(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsAdmin() {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}

		c.Next()
	}
}
