// Package questrade provides a Go client for the Questrade REST API.
//
// A Client owns one TokenSet. It exchanges a one-time access code for the
// set, refreshes it, and attaches it to every request, refreshing and
// retrying exactly once when the API rejects the access token.
//
// A Client is not safe for concurrent use: refresh tokens are single-use,
// so two goroutines refreshing at once would invalidate each other.
// Serialize access to a Client or give each goroutine its own token chain.
package questrade

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/kofalt/go-memoize"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultTimeout bounds each HTTP call made by the client.
	DefaultTimeout = 30 * time.Second

	// DefaultSymbolCacheTTL is how long symbol lookups are memoized.
	DefaultSymbolCacheTTL = time.Hour

	// DefaultExpirySkew is how early the proactive check treats a token as expired.
	DefaultExpirySkew = 30 * time.Second
)

// Client handles authenticated HTTP requests to the Questrade API.
type Client struct {
	loginURL   string
	httpClient *http.Client
	store      TokenStore
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time

	proactive bool
	skew      time.Duration

	symbols *memoize.Memoizer

	accessCode string
	token      *TokenSet
}

type clientOptions struct {
	accessCode    string
	hasAccessCode bool
	token         *TokenSet
	loginURL      string
	httpClient    *http.Client
	timeout       time.Duration
	store         TokenStore
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
	proactive     bool
	skew          time.Duration
	symbolTTL     time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

// WithAccessCode starts the client from a one-time access code issued by
// the Questrade portal. Call GetAccessToken to exchange it.
func WithAccessCode(code string) Option {
	return func(o *clientOptions) {
		o.accessCode = code
		o.hasAccessCode = true
	}
}

// WithTokenSet starts the client from a previously persisted TokenSet.
func WithTokenSet(token *TokenSet) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithLoginURL overrides the authorization host (DefaultLoginURL).
func WithLoginURL(u string) Option {
	return func(o *clientOptions) { o.loginURL = u }
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithTimeout sets the per-call timeout of the default HTTP client.
// Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithTokenStore persists every newly acquired TokenSet to store.
func WithTokenStore(store TokenStore) Option {
	return func(o *clientOptions) { o.store = store }
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics records request and token exchange counters.
func WithMetrics(m *Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithProactiveRefresh refreshes the token before a request when it is
// within skew of expiring, saving one rejected round trip.
func WithProactiveRefresh(skew time.Duration) Option {
	return func(o *clientOptions) {
		o.proactive = true
		o.skew = skew
	}
}

// WithSymbolCacheTTL sets how long symbol lookups are memoized.
// Zero or negative disables memoization.
func WithSymbolCacheTTL(d time.Duration) Option {
	return func(o *clientOptions) { o.symbolTTL = d }
}

func withClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

// NewClient creates a client from exactly one of WithAccessCode or
// WithTokenSet. Anything else fails with ErrConfiguration.
func NewClient(opts ...Option) (*Client, error) {
	const op = "new client"

	o := clientOptions{
		loginURL:  DefaultLoginURL,
		timeout:   DefaultTimeout,
		skew:      DefaultExpirySkew,
		symbolTTL: DefaultSymbolCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case o.hasAccessCode && o.token != nil:
		return nil, errorf(ErrConfiguration, op, "access code and token set are mutually exclusive")
	case !o.hasAccessCode && o.token == nil:
		return nil, errorf(ErrConfiguration, op, "an access code or a token set is required")
	case o.hasAccessCode && o.accessCode == "":
		return nil, errorf(ErrConfiguration, op, "access code is empty")
	}

	var token *TokenSet
	if o.token != nil {
		if err := o.token.Validate(); err != nil {
			return nil, newError(ErrConfiguration, op, errors.Newf("invalid token set: %v", err))
		}
		cp := *o.token
		cp.APIServer = normalizeAPIServer(cp.APIServer)
		token = &cp
	}

	loginURL, err := url.Parse(o.loginURL)
	if err != nil || loginURL.Scheme == "" || loginURL.Host == "" {
		return nil, errorf(ErrConfiguration, op, "invalid login URL %q", o.loginURL)
	}

	if o.timeout <= 0 {
		return nil, errorf(ErrConfiguration, op, "timeout must be positive, got %s", o.timeout)
	}

	c := &Client{
		loginURL:   normalizeAPIServer(o.loginURL),
		httpClient: o.httpClient,
		store:      o.store,
		logger:     o.logger,
		metrics:    o.metrics,
		now:        o.now,
		proactive:  o.proactive,
		skew:       o.skew,
		accessCode: o.accessCode,
		token:      token,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: o.timeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if o.symbolTTL > 0 {
		c.symbols = memoize.NewMemoizer(o.symbolTTL, 0)
	}

	return c, nil
}

// Authenticated reports whether the client holds a TokenSet.
func (c *Client) Authenticated() bool {
	return c.token != nil
}

// Token returns a copy of the current TokenSet, or nil.
func (c *Client) Token() *TokenSet {
	if c.token == nil {
		return nil
	}
	cp := *c.token
	return &cp
}

// Do performs an authenticated request against api_server + path and
// returns the raw JSON body.
//
// If the API rejects the access token, Do refreshes once and retries once.
// Every other failure is returned immediately.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if c.token == nil {
		return nil, errorf(ErrState, "request", "not authenticated")
	}

	refreshed := false
	if c.proactive && c.token.ExpiredAt(c.now(), c.skew) {
		c.logger.Debug("access token expired, refreshing before request",
			"path", path, "expires_at", c.token.ExpiresAt())
		if _, err := c.RefreshToken(ctx); err != nil {
			return nil, err
		}
		refreshed = true
	}

	body, err := c.send(ctx, method, path, params)
	if err == nil || refreshed || !tokenRejected(err) {
		return body, err
	}

	c.logger.Info("access token rejected, refreshing and retrying", "method", method, "path", path)
	c.metrics.observeRetry()
	if _, err := c.RefreshToken(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, params)
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, params)
}

// GetJSON performs an authenticated GET request and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return newError(ErrUpstream, "decode response", errors.Wrap(err, "failed to decode response"))
	}
	return nil
}

// send performs a single request with the current access token.
func (c *Client) send(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	const op = "request"

	target := c.token.APIServer + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Authorization", c.token.Authorization())
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0)
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "request failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.observeRequest(method, resp.StatusCode)
	c.logger.Debug("api request",
		"method", method, "path", path, "status", resp.StatusCode, "elapsed", c.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		if apiErr.IsUnauthorized() {
			return nil, newError(ErrAuthentication, op, apiErr)
		}
		return nil, newError(ErrUpstream, op, apiErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "failed to read response"))
	}
	if !json.Valid(body) {
		return nil, newError(ErrUpstream, op, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Body:       string(body),
		})
	}

	return body, nil
}

// tokenRejected reports whether err is the API refusing the access token.
func tokenRejected(err error) bool {
	var apiErr *APIError
	return errors.Is(err, ErrAuthentication) && errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}
