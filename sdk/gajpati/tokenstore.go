// Package gajpati is the client SDK for the Gajpati Industries admin backend.
// It owns token persistence, transparent access-token refresh on 401 with
// single-flight coordination, session lifecycle state, and typed CRUD
// wrappers for every admin resource.
package gajpati

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TokenStore abstracts persistence of the single bearer access token.
// An empty token from Load means no session is persisted.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore persists the access token in one named JSON file under the
// auth directory. Absence of the file implies an unauthenticated session and
// is not an error. Unknown sibling keys in the file survive token rewrites.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the persisted access token. A missing file yields an empty token.
func (s *FileTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("token store: read %s failed: %w", s.path, err)
	}
	return strings.TrimSpace(gjson.GetBytes(data, "access_token").String()), nil
}

// Save writes the access token, creating the auth directory on first use.
func (s *FileTokenStore) Save(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token store: refusing to save empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("token store: read existing failed: %w", err)
		}
		existing = []byte("{}")
	}

	updated, err := sjson.SetBytes(existing, "access_token", token)
	if err != nil {
		return fmt.Errorf("token store: encode token failed: %w", err)
	}
	if updated, err = sjson.SetBytes(updated, "saved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("token store: encode timestamp failed: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("token store: create dir failed: %w", err)
	}
	if err = os.WriteFile(s.path, updated, 0o600); err != nil {
		return fmt.Errorf("token store: write failed: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("token store: clear failed: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in process memory only. Used by tests and
// ephemeral runs where nothing should touch the filesystem.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
