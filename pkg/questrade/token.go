package questrade

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// TokenType is the only credential scheme Questrade issues.
const TokenType = "Bearer"

// TokenSet is the bundle returned by the authorization and refresh
// endpoints. It is either fully populated or absent; Validate rejects
// anything in between.
type TokenSet struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
	APIServer    string `json:"api_server" yaml:"api_server"`
	ExpiresIn    int64  `json:"expires_in" yaml:"expires_in"`
	TokenType    string `json:"token_type" yaml:"token_type"`

	// IssuedAt is recorded when the set is acquired. It is not part of the
	// wire payload; zero means unknown.
	IssuedAt time.Time `json:"-" yaml:"-"`
}

// Validate checks that every field is present and well formed.
func (t *TokenSet) Validate() error {
	if t == nil {
		return newError(ErrValidation, "validate token", errors.New("token set is missing"))
	}

	var missing []string
	if t.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if t.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if t.APIServer == "" {
		missing = append(missing, "api_server")
	}
	if t.TokenType == "" {
		missing = append(missing, "token_type")
	}
	if len(missing) > 0 {
		return errorf(ErrValidation, "validate token", "missing fields: %s", strings.Join(missing, ", "))
	}

	if t.ExpiresIn <= 0 {
		return errorf(ErrValidation, "validate token", "expires_in must be positive, got %d", t.ExpiresIn)
	}
	if !strings.EqualFold(t.TokenType, TokenType) {
		return errorf(ErrValidation, "validate token", "unsupported token_type %q", t.TokenType)
	}
	if !strings.HasPrefix(t.APIServer, "http://") && !strings.HasPrefix(t.APIServer, "https://") {
		return errorf(ErrValidation, "validate token", "api_server %q is not an http(s) URL", t.APIServer)
	}

	return nil
}

// ExpiresAt returns when the access token stops being valid, or the zero
// time when IssuedAt is unknown.
func (t *TokenSet) ExpiresAt() time.Time {
	if t.IssuedAt.IsZero() {
		return time.Time{}
	}
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ExpiredAt reports whether the access token is expired at now, treating
// it as expired skew early. Tokens with unknown issue time never report
// expired.
func (t *TokenSet) ExpiredAt(now time.Time, skew time.Duration) bool {
	exp := t.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return !now.Before(exp.Add(-skew))
}

// Authorization returns the Authorization header value for the access token.
func (t *TokenSet) Authorization() string {
	return t.TokenType + " " + t.AccessToken
}

// normalizeAPIServer strips the escaping and trailing slash the login
// endpoint leaves on api_server.
func normalizeAPIServer(s string) string {
	s = strings.ReplaceAll(s, `\`, "")
	return strings.TrimRight(s, "/")
}

// RedactToken keeps enough of a token to correlate log lines and
// status output.
func RedactToken(s string) string {
	if len(s) <= 4 {
		return "[REDACTED]"
	}
	return s[:4] + "…[REDACTED]"
}
