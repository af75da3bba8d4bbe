package questrade

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// TokenStore persists a TokenSet between runs. Implementations must write
// all fields or none.
type TokenStore interface {
	Load() (*TokenSet, error)
	Save(token *TokenSet) error
	Clear() error
}

// tokenRecord is the on-disk layout. Field order is the key order written.
type tokenRecord struct {
	AccessToken  string `yaml:"access_token"`
	APIServer    string `yaml:"api_server"`
	ExpiresIn    int64  `yaml:"expires_in"`
	RefreshToken string `yaml:"refresh_token"`
	TokenType    string `yaml:"token_type"`
}

var stringKeys = []string{"access_token", "api_server", "refresh_token", "token_type"}

// MarshalToken encodes the five persisted keys of a TokenSet as YAML.
func MarshalToken(token *TokenSet) ([]byte, error) {
	if err := token.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(tokenRecord{
		AccessToken:  token.AccessToken,
		APIServer:    token.APIServer,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	})
}

// UnmarshalToken decodes a persisted token record. Every key must be
// present with the right type; otherwise it fails with ErrValidation and
// returns no TokenSet. Unknown keys are ignored.
func UnmarshalToken(data []byte) (*TokenSet, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, newError(ErrValidation, "load token", errors.Wrap(err, "invalid token record"))
	}
	if raw == nil {
		return nil, errorf(ErrValidation, "load token", "token record is empty")
	}

	strs := make(map[string]string, len(stringKeys))
	for _, key := range stringKeys {
		v, ok := raw[key]
		if !ok {
			return nil, errorf(ErrValidation, "load token", "missing key %q", key)
		}
		s, ok := v.(string)
		if !ok {
			return nil, errorf(ErrValidation, "load token", "key %q must be a string, got %T", key, v)
		}
		strs[key] = s
	}

	v, ok := raw["expires_in"]
	if !ok {
		return nil, errorf(ErrValidation, "load token", "missing key %q", "expires_in")
	}
	var expiresIn int64
	switch n := v.(type) {
	case int:
		expiresIn = int64(n)
	case int64:
		expiresIn = n
	default:
		return nil, errorf(ErrValidation, "load token", "key %q must be an integer, got %T", "expires_in", v)
	}

	token := &TokenSet{
		AccessToken:  strs["access_token"],
		APIServer:    strs["api_server"],
		ExpiresIn:    expiresIn,
		RefreshToken: strs["refresh_token"],
		TokenType:    strs["token_type"],
	}
	if err := token.Validate(); err != nil {
		return nil, err
	}
	return token, nil
}

// FileStore keeps the token record in a YAML file. The file's
// modification time carries IssuedAt.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the token file. A missing file yields an error matching
// fs.ErrNotExist; a malformed one yields ErrValidation.
func (s *FileStore) Load() (*TokenSet, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token file")
	}

	token, err := UnmarshalToken(data)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(s.Path); err == nil {
		token.IssuedAt = info.ModTime().Truncate(time.Second)
	}
	return token, nil
}

// Save writes the token file atomically: a temp file in the same
// directory is written, synced and renamed over the target.
// Creates parent directories with 0700; the file is 0600.
func (s *FileStore) Save(token *TokenSet) error {
	data, err := MarshalToken(token)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create token directory")
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp token file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write token file")
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to set token file permissions")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to sync token file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close token file")
	}

	if !token.IssuedAt.IsZero() {
		if err := os.Chtimes(tmpPath, token.IssuedAt, token.IssuedAt); err != nil {
			return errors.Wrap(err, "failed to stamp token file")
		}
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return errors.Wrap(err, "failed to replace token file")
	}
	return nil
}

// Clear removes the token file. Returns nil if the file doesn't exist.
func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
