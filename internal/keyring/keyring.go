// Package keyring keeps the Questrade token set in the operating system
// keyring as an alternative to the token file.
package keyring

import (
	"github.com/cockroachdb/errors"
	gokeyring "github.com/zalando/go-keyring"
)

// ServiceName is the keyring service qt stores entries under.
const ServiceName = "com.questrade.qt"

var (
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("secret not found")

	// ErrTooLarge is returned when the platform refuses a value for its size.
	ErrTooLarge = errors.New("secret too large for keyring")
)

// Store is a service/key addressed secret store.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SystemStore is a Store backed by the system keyring.
type SystemStore struct{}

func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if err != nil {
		return "", translate(err, "get", key)
	}
	return secret, nil
}

func (s *SystemStore) Set(service, key, value string) error {
	if err := gokeyring.Set(service, key, value); err != nil {
		return translate(err, "set", key)
	}
	return nil
}

// Delete removes an entry. A missing entry is not an error.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return translate(err, "delete", key)
}

// translate maps go-keyring sentinels onto this package's errors.
func translate(err error, op, key string) error {
	switch {
	case errors.Is(err, gokeyring.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, gokeyring.ErrSetDataTooBig):
		return errors.Wrapf(ErrTooLarge, "keyring %s %s", op, key)
	default:
		return errors.Wrapf(err, "keyring %s %s", op, key)
	}
}
