package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/api"
	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/pkg/response"
)

var ErrNoToken = errors.New("login response carried no token")

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginResponse tolerates the token field names seen across backends.
type loginResponse struct {
	Token            string            `json:"token"`
	AccessToken      string            `json:"accessToken"`
	AccessTokenSnake string            `json:"access_token"`
	User             *session.Identity `json:"user"`
}

func (r *loginResponse) token() string {
	for _, t := range []string{r.Token, r.AccessToken, r.AccessTokenSnake} {
		if t != "" {
			return t
		}
	}
	return ""
}

// Service performs the login round trip against the backend and owns the
// resulting session.
type Service struct {
	client   *api.Client
	sessions *session.Store
}

// NewService creates an auth service over the upstream client and the
// session store.
func NewService(client *api.Client, sessions *session.Store) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
	}
}

// Login exchanges username/password for a bearer token at the backend and
// persists the session. Optional identity fields from the response are kept
// alongside the token.
func (s *Service) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	var res loginResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &res); err != nil {
		return session.Session{}, err
	}

	token := res.token()
	if token == "" {
		return session.Session{}, ErrNoToken
	}

	sess := session.Session{
		Token:      token,
		User:       res.User,
		LoggedInAt: time.Now(),
	}
	if err := s.sessions.Set(sess); err != nil {
		return session.Session{}, err
	}

	log.Info().Str("username", creds.Username).Msg("login succeeded")
	return sess, nil
}

// Logout destroys the session.
func (s *Service) Logout() error {
	return s.sessions.Clear()
}

// GinHandlers contains HTTP handlers for the auth endpoints
type GinHandlers struct {
	service  *Service
	sessions *session.Store
}

// NewGinHandlers creates a new set of HTTP handlers for the auth endpoints
func NewGinHandlers(service *Service, sessions *session.Store) *GinHandlers {
	return &GinHandlers{
		service:  service,
		sessions: sessions,
	}
}

// LoginHandler handles POST requests to authenticate against the backend
func (h *GinHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		sess, err := h.service.Login(c.Request.Context(), creds)
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			response.Unauthorized(c, "Invalid username or password")
			return
		}
		if errors.Is(err, ErrNoToken) {
			response.Upstream(c, "Login response carried no token")
			return
		}
		response.Handle(c, sess, err)
	}
}

// LogoutHandler handles POST requests to destroy the session
func (h *GinHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.service.Logout(); err != nil {
			response.InternalError(c, "Failed to clear session")
			return
		}
		response.Success(c, gin.H{"loggedOut": true})
	}
}

// SessionHandler handles GET requests for the current identity summary
func (h *GinHandlers) SessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, gin.H{
			"authenticated": h.sessions.IsAuthenticated(),
			"displayName":   h.sessions.DisplayName(),
			"role":          h.sessions.Role(),
			"admin":         h.sessions.IsAdmin(),
		})
	}
}

// LoginPageHandler handles GET requests to the login path. It exists so
// guard redirects land somewhere meaningful; the payload echoes the next
// target for the caller to resume after authenticating.
func (h *GinHandlers) LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, gin.H{
			"login": true,
			"next":  c.Query("next"),
		})
	}
}
