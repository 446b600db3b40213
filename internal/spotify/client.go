package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is returned when the API answers with an unexpected status
// and no recognizable error payload.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Body)
}

// Client issues authenticated GET requests against the Spotify Web API.
// On an authorization failure it refreshes the credentials and retries
// the request exactly once; there is no backoff and no other retry.
type Client struct {
	http  *http.Client
	creds *Credentials
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for API requests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient creates an API client on top of the given credential store.
func NewClient(creds *Credentials, opts ...ClientOption) *Client {
	c := &Client{http: http.DefaultClient, creds: creds}
	for _, o := range opts {
		o(c)
	}
	return c
}

// errProbe matches the error envelope Spotify embeds in response
// bodies. An expired token arrives as error.status 401 inside an HTTP
// 200, so the body has to be inspected, not just the status line.
type errProbe struct {
	Error *struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Get fetches url with a bearer token. A 204 yields an empty object,
// not an error. An authorization failure triggers one credential
// refresh and one retry of the identical request; the retry's outcome
// is final and a second 401 body goes back to the caller unmodified.
func (c *Client) Get(ctx context.Context, url string) (json.RawMessage, error) {
	body, status, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if !unauthorized(status, body) {
		return finalize(body, status)
	}

	if err := c.creds.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh credentials: %w", err)
	}

	body, status, err = c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	if unauthorized(status, body) {
		return body, nil
	}
	return finalize(body, status)
}

// do performs a single bearer-authenticated GET and reads the body.
func (c *Client) do(ctx context.Context, url string) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// unauthorized reports whether the response signals an expired or
// invalid token, either on the status line or embedded in the body.
func unauthorized(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	var p errProbe
	if err := json.Unmarshal(body, &p); err != nil {
		return false
	}
	return p.Error != nil && p.Error.Status == http.StatusUnauthorized
}

func finalize(body json.RawMessage, status int) (json.RawMessage, error) {
	if status == http.StatusNoContent {
		return json.RawMessage(`{}`), nil
	}
	if status >= 300 {
		return nil, &APIError{Status: status, Body: string(body)}
	}
	return body, nil
}
