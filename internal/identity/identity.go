// Package identity persists the caller UUID sent with every API request.
// The service uses it to attribute apps and riffs to a device; it is an
// opaque identifier, not a credential.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.Dir, "identity")
}

// Load returns the persisted caller UUID, or "" when none exists yet.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read identity: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("corrupt identity file %s: %w", s.path(), err)
	}
	return id, nil
}

// Ensure returns the caller UUID, generating and persisting one on first
// use. RIFFDECK_USER_UUID overrides the stored value without touching it.
func (s *Store) Ensure() (string, error) {
	if env := os.Getenv("RIFFDECK_USER_UUID"); env != "" {
		if _, err := uuid.Parse(env); err != nil {
			return "", fmt.Errorf("RIFFDECK_USER_UUID: %w", err)
		}
		return env, nil
	}

	id, err := s.Load()
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(s.path(), []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}
