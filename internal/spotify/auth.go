package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2/endpoints"
)

// Credentials holds the current Spotify access token and the long-lived
// refresh token used to mint new ones. No expiry is tracked locally;
// the API's 401 signal decides when a refresh happens.
type Credentials struct {
	clientID     string
	clientSecret string
	tokenURL     string
	http         *http.Client

	mu           sync.RWMutex
	refreshToken string
	accessToken  string
}

// CredentialsOption configures a Credentials store.
type CredentialsOption func(*Credentials)

// WithTokenURL overrides the token endpoint, for tests.
func WithTokenURL(raw string) CredentialsOption {
	return func(c *Credentials) { c.tokenURL = raw }
}

// WithTokenHTTPClient overrides the HTTP client used for refreshes.
func WithTokenHTTPClient(h *http.Client) CredentialsOption {
	return func(c *Credentials) { c.http = h }
}

// NewCredentials creates a credential store. The access token starts
// empty; the first 401 from the API triggers the initial refresh.
func NewCredentials(clientID, clientSecret, refreshToken string, opts ...CredentialsOption) *Credentials {
	c := &Credentials{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     endpoints.Spotify.TokenURL,
		http:         http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the current access token, which may be stale.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetRefreshToken replaces the refresh token, e.g. after a new OAuth
// grant from the connect flow.
func (c *Credentials) SetRefreshToken(tok string) {
	c.mu.Lock()
	c.refreshToken = tok
	c.mu.Unlock()
}

// Refresh exchanges the refresh token for a new access token and
// replaces the stored one. Safe to call redundantly: overlapping
// refreshes each install a valid token and the last writer wins, so
// concurrent callers are not serialized.
func (c *Credentials) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh token failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("refresh token status %d: %s", resp.StatusCode, string(b))
	}

	var tok struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		// Spotify occasionally rotates the refresh token
		c.refreshToken = tok.RefreshToken
	}
	c.mu.Unlock()
	return nil
}
