package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "sprintboard"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
	env  func(string) string
}

// Open returns a Store backed by the system keyring, falling back to an
// encrypted file under dir.
func Open(dir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("sprintboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an existing keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring, env: os.Getenv}
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key string, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// APIKeyName is the keyring key holding a provider's API key.
func APIKeyName(provider string) string {
	return "ai-api-key-" + provider
}

// envVars maps providers to the environment variables that override the
// keyring.
var envVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// APIKey returns the API key for provider, preferring the provider's
// environment variable over the keyring.
func (s *Store) APIKey(provider string) (string, error) {
	if name, ok := envVars[provider]; ok {
		if v := s.env(name); v != "" {
			return v, nil
		}
	}
	return s.Get(APIKeyName(provider))
}

// SetAPIKey stores provider's API key. An empty key deletes it.
func (s *Store) SetAPIKey(provider, key string) error {
	if key == "" {
		return s.Delete(APIKeyName(provider))
	}
	return s.Set(APIKeyName(provider), key)
}
