package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/portal-api/internal/api"
	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/internal/storage"
)

func newTestService(t *testing.T, backendURL string) (*Service, *session.Store) {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	sessions := session.NewStore(st)
	return NewService(api.NewClient(backendURL, sessions), sessions), sessions
}

func loginBackend(t *testing.T, payload string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresSession(t *testing.T) {
	srv := loginBackend(t, `{"token":"tok-1","user":{"username":"carl","role":"staff"}}`, http.StatusOK)
	svc, sessions := newTestService(t, srv.URL)

	sess, err := svc.Login(context.Background(), Credentials{Username: "carl", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "tok-1", sess.Token)
	assert.True(t, sessions.IsAuthenticated())
	assert.Equal(t, "carl", sessions.DisplayName())
	assert.False(t, sessions.IsAdmin())
}

func TestLoginTokenFieldFallbacks(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{`{"token":"a"}`, "a"},
		{`{"accessToken":"b"}`, "b"},
		{`{"access_token":"c"}`, "c"},
		{`{"token":"a","access_token":"c"}`, "a"},
	}

	for _, tc := range cases {
		srv := loginBackend(t, tc.payload, http.StatusOK)
		svc, _ := newTestService(t, srv.URL)

		sess, err := svc.Login(context.Background(), Credentials{Username: "u", Password: "p"})
		require.NoError(t, err, tc.payload)
		assert.Equal(t, tc.want, sess.Token, tc.payload)
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	srv := loginBackend(t, `{"user":{"username":"carl"}}`, http.StatusOK)
	svc, sessions := newTestService(t, srv.URL)

	_, err := svc.Login(context.Background(), Credentials{Username: "carl", Password: "pw"})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, sessions.IsAuthenticated())
}

func TestLoginRejectedPropagatesStatus(t *testing.T) {
	srv := loginBackend(t, `{"error":"bad credentials"}`, http.StatusUnauthorized)
	svc, sessions := newTestService(t, srv.URL)

	_, err := svc.Login(context.Background(), Credentials{Username: "carl", Password: "wrong"})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, sessions.IsAuthenticated())
}

func TestLogoutClearsSession(t *testing.T) {
	srv := loginBackend(t, `{"token":"tok"}`, http.StatusOK)
	svc, sessions := newTestService(t, srv.URL)

	_, err := svc.Login(context.Background(), Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)
	require.True(t, sessions.IsAuthenticated())

	require.NoError(t, svc.Logout())
	assert.False(t, sessions.IsAuthenticated())
}
