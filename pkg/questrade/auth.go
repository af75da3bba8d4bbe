package questrade

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultLoginURL is the authorization host for live accounts.
	DefaultLoginURL = "https://login.questrade.com"

	// PracticeLoginURL is the authorization host for practice accounts.
	PracticeLoginURL = "https://practicelogin.questrade.com"

	tokenPath = "/oauth2/token"

	grantAccessCode = "access_code"
	grantRefresh    = "refresh"
)

// GetAccessToken exchanges the access code the client was created with for
// a TokenSet. Access codes are single-use, so a rejection is returned as
// ErrAuthentication without retrying, and a client that already holds a
// TokenSet fails with ErrState without calling the API.
func (c *Client) GetAccessToken(ctx context.Context) (*TokenSet, error) {
	const op = "get access token"

	if c.token != nil {
		return nil, errorf(ErrState, op, "already authenticated")
	}
	if c.accessCode == "" {
		return nil, errorf(ErrState, op, "no access code to exchange")
	}

	token, err := c.exchange(ctx, op, grantAccessCode, c.accessCode)
	if err != nil {
		return nil, err
	}

	c.accessCode = ""
	c.token = token
	c.persist(token)
	c.logger.Info("access code exchanged", "api_server", token.APIServer, "expires_in", token.ExpiresIn)

	return c.Token(), nil
}

// RefreshToken trades the current refresh token for a new TokenSet and
// replaces every field at once. Refresh tokens rotate, so the old one is
// dead afterwards. On failure the current TokenSet is left untouched; a
// rejected refresh token (ErrAuthentication) means a new access code is
// needed.
func (c *Client) RefreshToken(ctx context.Context) (*TokenSet, error) {
	const op = "refresh token"

	if c.token == nil {
		return nil, errorf(ErrState, op, "not authenticated")
	}
	if c.token.RefreshToken == "" {
		return nil, errorf(ErrState, op, "no refresh token")
	}

	token, err := c.exchange(ctx, op, grantRefresh, c.token.RefreshToken)
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return nil, err
	}

	c.token = token
	c.persist(token)
	c.logger.Info("token refreshed",
		"access_token", RedactToken(token.AccessToken), "expires_in", token.ExpiresIn)

	return c.Token(), nil
}

// exchange calls the token endpoint. Questrade serves both the initial
// access code and later refresh tokens through the refresh_token grant.
func (c *Client) exchange(ctx context.Context, op, grant, credential string) (token *TokenSet, err error) {
	defer func() { c.metrics.observeExchange(grant, err) }()

	q := url.Values{}
	q.Set("grant_type", "refresh_token")
	q.Set("refresh_token", credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.loginURL+tokenPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "token request failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := readAPIError(resp)
		if isRejection(resp.StatusCode) {
			return nil, newError(ErrAuthentication, op, apiErr)
		}
		return nil, newError(ErrUpstream, op, apiErr)
	}

	var payload TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newError(ErrUpstream, op, errors.Wrap(err, "failed to decode token response"))
	}

	payload.APIServer = normalizeAPIServer(payload.APIServer)
	payload.IssuedAt = c.now().Truncate(time.Second)
	if err := payload.Validate(); err != nil {
		return nil, newError(ErrUpstream, op, errors.Newf("malformed token response: %v", err))
	}

	return &payload, nil
}

// persist saves token when a store is configured. A failed save leaves
// the in-memory token valid, so it is logged rather than returned.
func (c *Client) persist(token *TokenSet) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(token); err != nil {
		c.logger.Warn("failed to persist token set; the next run will need a new access code",
			"error", err)
	}
}
