package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/portal-api/internal/session"
	"github.com/crmkit/portal-api/internal/storage"
)

func newTestSessions(t *testing.T) *session.Store {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return session.NewStore(st)
}

func TestRequestInjectsHeaders(t *testing.T) {
	sessions := newTestSessions(t)
	require.NoError(t, sessions.Set(session.Session{Token: "tok-123", LoggedInAt: time.Now()}))

	var gotAccept, gotAuth, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	var out map[string]bool
	require.NoError(t, client.Post(context.Background(), "/things", map[string]string{"a": "b"}, &out))

	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]string{"a": "b"}, gotBody)
	assert.True(t, out["ok"])
}

func TestRequestOmitsBearerWhenUnauthenticated(t *testing.T) {
	sessions := newTestSessions(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	var out []string
	require.NoError(t, client.Get(context.Background(), "/things", &out))
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	sessions := newTestSessions(t)
	require.NoError(t, sessions.Set(session.Session{Token: "tok", LoggedInAt: time.Now()}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	err := client.Get(context.Background(), "/any/path/at/all", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	// The 401 side effect: session is gone, regardless of the path.
	assert.False(t, sessions.IsAuthenticated())
}

func TestNonOKCarriesParsedBody(t *testing.T) {
	sessions := newTestSessions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"field":"name"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	err := client.Get(context.Background(), "/things", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, map[string]any{"field": "name"}, apiErr.Body)
}

func TestNonJSONErrorBodyFallsBackToText(t *testing.T) {
	sessions := newTestSessions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	err := client.Get(context.Background(), "/things", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Body)
}

func TestAbsoluteURLBypassesBase(t *testing.T) {
	sessions := newTestSessions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/absolute", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// Base points nowhere; the absolute URL must win.
	client := NewClient("http://localhost:1", sessions)
	require.NoError(t, client.Get(context.Background(), srv.URL+"/absolute", nil))
}

func TestDeleteSendsNoBody(t *testing.T) {
	sessions := newTestSessions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, sessions)
	require.NoError(t, client.Delete(context.Background(), "/things/1"))
}
