package questrade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TokenSet)
		wantErr string
	}{
		{name: "complete", mutate: func(*TokenSet) {}},
		{name: "lower-case bearer", mutate: func(ts *TokenSet) { ts.TokenType = "bearer" }},
		{
			name:    "missing access and refresh token",
			mutate:  func(ts *TokenSet) { ts.AccessToken = ""; ts.RefreshToken = "" },
			wantErr: "missing fields: access_token, refresh_token",
		},
		{
			name:    "missing api server",
			mutate:  func(ts *TokenSet) { ts.APIServer = "" },
			wantErr: "missing fields: api_server",
		},
		{
			name:    "zero expiry",
			mutate:  func(ts *TokenSet) { ts.ExpiresIn = 0 },
			wantErr: "expires_in must be positive",
		},
		{
			name:    "unsupported token type",
			mutate:  func(ts *TokenSet) { ts.TokenType = "MAC" },
			wantErr: `unsupported token_type "MAC"`,
		},
		{
			name:    "api server without scheme",
			mutate:  func(ts *TokenSet) { ts.APIServer = "api01.iq.questrade.com" },
			wantErr: "is not an http(s) URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := testToken("https://api01.iq.questrade.com")
			tt.mutate(token)

			err := token.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTokenSet_ValidateNil(t *testing.T) {
	var token *TokenSet
	assert.ErrorIs(t, token.Validate(), ErrValidation)
}

func TestTokenSet_Expiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	token := testToken("https://api.example.com")
	token.IssuedAt = issued

	assert.Equal(t, issued.Add(30*time.Minute), token.ExpiresAt())

	assert.False(t, token.ExpiredAt(issued.Add(29*time.Minute), 0))
	assert.True(t, token.ExpiredAt(issued.Add(30*time.Minute), 0))
	assert.True(t, token.ExpiredAt(issued.Add(29*time.Minute), 2*time.Minute))
}

func TestTokenSet_UnknownIssueTimeNeverExpires(t *testing.T) {
	token := testToken("https://api.example.com")
	token.IssuedAt = time.Time{}

	assert.True(t, token.ExpiresAt().IsZero())
	assert.False(t, token.ExpiredAt(time.Now().Add(24*time.Hour), time.Minute))
}

func TestTokenSet_Authorization(t *testing.T) {
	token := testToken("https://api.example.com")
	assert.Equal(t, "Bearer AT1", token.Authorization())
}

func TestNormalizeAPIServer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://api01.iq.questrade.com/", want: "https://api01.iq.questrade.com"},
		{in: `https:\/\/api01.iq.questrade.com\/`, want: "https://api01.iq.questrade.com"},
		{in: "https://api01.iq.questrade.com", want: "https://api01.iq.questrade.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeAPIServer(tt.in), tt.in)
	}
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactToken("abc"))
	assert.Equal(t, "C3lT…[REDACTED]", RedactToken("C3lTUKuNQrAAmSD"))
}
