// Package zoho implements the outbound side of the lead relay: exchanging
// the long-lived refresh credential for short-lived access tokens, caching
// them, and creating lead records through the CRM REST API.
package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lead-relay/internal/common/errors"
	"lead-relay/internal/common/logging"
)

// DefaultSafetyMargin is how early a cached token is treated as expired.
// A token valid at read time could expire before the dependent CRM call
// completes, so the cache under-states the authorization server's TTL.
const DefaultSafetyMargin = 60 * time.Second

// AccessToken is a bearer credential plus its absolute expiry instant.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// Credentials holds the immutable OAuth2 client configuration used for the
// refresh-token exchange. Supplied once at startup from the environment.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// tokenCache holds the current access token. get returns the token only
// while now < expiry; set reserves the safety margin up front so callers
// never see a token that is about to lapse.
type tokenCache struct {
	mu     sync.Mutex
	token  AccessToken
	margin time.Duration
	now    func() time.Time
}

func (c *tokenCache) get() (AccessToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Value == "" || !c.now().Before(c.token.Expiry) {
		return AccessToken{}, false
	}
	return c.token, true
}

func (c *tokenCache) set(value string, ttl time.Duration) AccessToken {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = AccessToken{
		Value:  value,
		Expiry: c.now().Add(ttl - c.margin),
	}
	return c.token
}

func (c *tokenCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = AccessToken{}
}

// tokenResponse maps the authorization server's token endpoint reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	APIDomain   string `json:"api_domain"`
	Error       string `json:"error"`
}

// TokenSource provides valid access tokens for authenticated CRM calls.
type TokenSource interface {
	// Token returns a valid access token, performing a refresh-token
	// exchange when no cached token is usable.
	Token(ctx context.Context) (string, error)
	// Invalidate evicts the cached token so the next Token call performs
	// a fresh exchange. Called when the CRM rejects a token server-side.
	Invalidate()
}

// Provider exchanges the refresh credential for access tokens and caches
// them for their lifetime. Concurrent callers that observe an empty cache
// share a single in-flight exchange instead of issuing redundant ones.
type Provider struct {
	creds      Credentials
	tokenURL   string
	httpClient *http.Client
	cache      *tokenCache
	group      singleflight.Group
	logger     logging.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the HTTP client used for token exchanges.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithSafetyMargin overrides the expiry safety margin.
func WithSafetyMargin(margin time.Duration) ProviderOption {
	return func(p *Provider) {
		p.cache.margin = margin
	}
}

// WithClock injects the time source used for expiry decisions.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.cache.now = now
	}
}

// NewProvider creates a token provider for the given credentials and token
// endpoint URL.
func NewProvider(creds Credentials, tokenURL string, opts ...ProviderOption) *Provider {
	p := &Provider{
		creds:      creds,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache: &tokenCache{
			margin: DefaultSafetyMargin,
			now:    time.Now,
		},
		logger: logging.GetGlobalLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Token returns a valid access token, consulting the cache first. A cache
// hit performs no network call; a miss triggers exactly one exchange even
// under concurrent callers.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if token, ok := p.cache.get(); ok {
		return token.Value, nil
	}

	value, err, _ := p.group.Do("access_token", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited.
		if token, ok := p.cache.get(); ok {
			return token.Value, nil
		}
		return p.exchange(ctx)
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}

// Invalidate evicts the cached token.
func (p *Provider) Invalidate() {
	p.cache.clear()
	p.logger.Debug("Cached access token evicted")
}

// exchange performs the refresh-token grant against the authorization
// server and caches the result. Every failure mode, transport, non-2xx
// status, or malformed body, classifies as an authentication error; a
// partial or default token is never returned.
func (p *Provider) exchange(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("refresh_token", p.creds.RefreshToken)
	form.Set("client_id", p.creds.ClientID)
	form.Set("client_secret", p.creds.ClientSecret)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.AuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.AuthError("token exchange request failed", err)
	}
	defer resp.Body.Close()

	var tokenResp tokenResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&tokenResp); decodeErr != nil {
		return "", errors.AuthError("failed to decode token response", decodeErr)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" || tokenResp.AccessToken == "" {
		p.logger.Error("Token exchange rejected", nil,
			logging.Int("status", resp.StatusCode),
			logging.String("server_error", tokenResp.Error),
		)
		return "", errors.AuthError("token exchange failed", nil).
			WithContext("status", resp.StatusCode).
			WithContext("server_error", tokenResp.Error)
	}

	ttl := time.Duration(tokenResp.ExpiresIn) * time.Second
	token := p.cache.set(tokenResp.AccessToken, ttl)

	p.logger.Debug("Access token refreshed",
		logging.Duration("ttl", ttl),
		logging.Field{Key: "expiry", Value: token.Expiry},
	)

	return token.Value, nil
}
