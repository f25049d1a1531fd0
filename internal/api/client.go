// Package api is the authenticated HTTP client for the upstream CRM
// backend. It injects the bearer credential from the session store and
// applies the force-logout-on-401 policy: an unauthorized response from any
// endpoint clears the session before the error is surfaced.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/crmkit/portal-api/internal/session"
)

// Error carries the status code and parsed body of a non-2xx response.
// Callers distinguish error kinds by Status.
type Error struct {
	Status int
	Body   any
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error: status %d", e.Status)
}

// Client issues single request/response round trips against the backend.
// No retries, no backoff, no client-side timeout.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Store
}

// NewClient creates a client rooted at baseURL. Paths are joined to the
// base unless they are already absolute URLs.
func NewClient(baseURL string, sessions *session.Store) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		sessions: sessions,
	}
}

// Request performs one round trip. A non-nil body is JSON-serialized with a
// matching content type. On success the response body is decoded into out
// when out is non-nil. Non-2xx statuses return *Error with the body parsed
// as JSON where possible, raw text otherwise.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	url := path
	if !strings.HasPrefix(path, "http") {
		url = c.baseURL + path
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessions.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	text, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode == http.StatusUnauthorized {
		// Force-logout-on-401: any endpoint can invalidate the credential.
		log.Info().Str("path", path).Msg("upstream rejected credential, clearing session")
		if err := c.sessions.Clear(); err != nil {
			log.Error().Err(err).Msg("failed to clear session")
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{Status: res.StatusCode, Body: parseBody(text)}
	}

	if out != nil && len(text) > 0 {
		if err := json.Unmarshal(text, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

func parseBody(text []byte) any {
	if len(text) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(text, &parsed); err != nil {
		return string(text)
	}
	return parsed
}
