// Package auth implements the Google login flow, token persistence, and the
// refreshing credential source used by the REST client.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials is the on-disk token record.
type Credentials struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	ObtainedAt   time.Time `yaml:"obtained_at"`
}

// Store persists credentials to a YAML file.
type Store struct {
	path string
}

// NewStore creates a store at the given path. An empty path uses
// ENTERVIU_CREDENTIALS_FILE or the default under the user config directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = os.Getenv("ENTERVIU_CREDENTIALS_FILE")
	}
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "enterviu", "credentials.yaml")
	}
	return &Store{path: path}, nil
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads stored credentials. Returns nil without error when no
// credentials file exists yet.
func (s *Store) Load() (*Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save writes credentials, creating the parent directory with restrictive
// permissions. Tokens are secrets: the file is mode 0600.
func (s *Store) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. Missing files are not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
