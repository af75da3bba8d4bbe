package keyring

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jonandersen/qt/pkg/questrade"
)

const (
	// KeyTokenSet holds the YAML token record.
	KeyTokenSet = "token_set"

	// KeyTokenIssuedAt holds when the token set was issued, RFC 3339.
	KeyTokenIssuedAt = "token_issued_at"
)

// TokenStore keeps a questrade.TokenSet in a keyring Store, using the
// same YAML record as the token file.
type TokenStore struct {
	store   Store
	service string
}

var _ questrade.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a TokenStore backed by store under ServiceName.
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store, service: ServiceName}
}

// Load reads the token set. Returns an error matching ErrNotFound when
// nothing has been saved.
func (s *TokenStore) Load() (*questrade.TokenSet, error) {
	record, err := s.store.Get(s.service, KeyTokenSet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token set from keyring")
	}

	token, err := questrade.UnmarshalToken([]byte(record))
	if err != nil {
		return nil, err
	}

	// Missing or unreadable issue time leaves IssuedAt unknown
	if raw, err := s.store.Get(s.service, KeyTokenIssuedAt); err == nil {
		if issued, err := time.Parse(time.RFC3339, raw); err == nil {
			token.IssuedAt = issued
		}
	}
	return token, nil
}

// Save writes the token set. The record is written before the issue
// time, so a failure between the two leaves a valid record with a stale
// or unknown issue time.
func (s *TokenStore) Save(token *questrade.TokenSet) error {
	record, err := questrade.MarshalToken(token)
	if err != nil {
		return err
	}

	if err := s.store.Set(s.service, KeyTokenSet, string(record)); err != nil {
		return errors.Wrap(err, "failed to write token set to keyring")
	}

	if token.IssuedAt.IsZero() {
		return s.store.Delete(s.service, KeyTokenIssuedAt)
	}
	if err := s.store.Set(s.service, KeyTokenIssuedAt, token.IssuedAt.UTC().Format(time.RFC3339)); err != nil {
		return errors.Wrap(err, "failed to write token issue time to keyring")
	}
	return nil
}

// Clear removes the token set.
func (s *TokenStore) Clear() error {
	if err := s.store.Delete(s.service, KeyTokenSet); err != nil {
		return errors.Wrap(err, "failed to delete token set from keyring")
	}
	return s.store.Delete(s.service, KeyTokenIssuedAt)
}
