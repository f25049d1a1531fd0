package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/internal/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	sessions := session.NewStore(st)

	r := gin.New()
	authed := r.Group("", RequireAuth(sessions))
	authed.GET("/customers", func(c *gin.Context) { c.String(http.StatusOK, "customers") })

	admin := authed.Group("", RequireAdmin(sessions))
	admin.GET("/employees", func(c *gin.Context) { c.String(http.StatusOK, "employees") })

	return r, sessions
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, sessions *session.Store, role string) {
	t.Helper()
	var user *session.Identity
	if role != "" {
		user = &session.Identity{Role: role}
	}
	require.NoError(t, sessions.Set(session.Session{Token: "tok", User: user, LoggedInAt: time.Now()}))
}

func TestRequireAuthRedirectsWithEncodedNext(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(r, "/customers?x=1")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fcustomers%3Fx%3D1", w.Header().Get("Location"))
}

func TestRequireAuthPassesThroughWhenAuthenticated(t *testing.T) {
	r, sessions := newTestRouter(t)
	login(t, sessions, "")

	w := get(r, "/customers?x=1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customers", w.Body.String())
	assert.Empty(t, w.Header().Get("Location"))
}

func TestRequireAuthReEvaluatesPerRequest(t *testing.T) {
	r, sessions := newTestRouter(t)

	login(t, sessions, "")
	assert.Equal(t, http.StatusOK, get(r, "/customers").Code)

	// The guard reads the store on every request: clearing the session
	// takes effect immediately.
	require.NoError(t, sessions.Clear())
	assert.Equal(t, http.StatusFound, get(r, "/customers").Code)
}

func TestRequireAdminRedirectsNonAdmins(t *testing.T) {
	r, sessions := newTestRouter(t)

	for _, role := range []string{"", "staff", "manager"} {
		login(t, sessions, role)
		w := get(r, "/employees")
		assert.Equal(t, http.StatusFound, w.Code, "role %q", role)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"), "role %q", role)
	}
}

func TestRequireAdminAcceptsAdminVariants(t *testing.T) {
	r, sessions := newTestRouter(t)

	for _, role := range []string{"admin", "Admin", "ADMIN_USER", "superadmin"} {
		login(t, sessions, role)
		w := get(r, "/employees")
		assert.Equal(t, http.StatusOK, w.Code, "role %q", role)
		assert.Equal(t, "employees", w.Body.String(), "role %q", role)
	}
}

func TestRateLimitBlocksLoginBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.7:4444"
		r.ServeHTTP(w, req)
		return w
	}

	// The login bucket starts with a burst of 5 tokens; at 10/min nothing
	// refills within this loop.
	allowed := 0
	for i := 0; i < 10; i++ {
		w := hit(http.MethodPost, "/login")
		switch w.Code {
		case http.StatusOK:
			allowed++
		case http.StatusBadRequest:
			assert.Contains(t, w.Body.String(), "Rate limit exceeded")
		default:
			t.Fatalf("unexpected status %d", w.Code)
		}
	}
	assert.Equal(t, 5, allowed)

	// Buckets are per path: exhausting login leaves other routes untouched.
	assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/dashboard").Code)
}

// Login with a token carrying no role claim: the employees route must
// bounce to the dashboard even though the session is authenticated.
func TestNoRoleClaimBouncesFromAdminRoutes(t *testing.T) {
	r, sessions := newTestRouter(t)

	require.NoError(t, sessions.Set(session.Session{
		Token:      "carl-token-without-claims",
		User:       &session.Identity{Username: "carl"},
		LoggedInAt: time.Now(),
	}))

	assert.Equal(t, http.StatusOK, get(r, "/customers").Code)

	w := get(r, "/employees")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}
