package sessionstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"
)

// DefaultStorageDir is the default directory for persisted sessions,
// relative to the user's home directory.
const DefaultStorageDir = ".config/oauthkit/sessions"

// StoredSession wraps a frozen session with the provider it belongs to.
type StoredSession struct {
	// Provider is the configured provider name the session was obtained
	// from. The Profile itself is never persisted; it is rebuilt from
	// configuration and the session rebound to it on thaw.
	Provider string `json:"provider"`

	// Session is the frozen token.
	Session oauth.FrozenSession `json:"session"`

	// UpdatedAt is when the session was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Config configures the session store.
type Config struct {
	// StorageDir is the directory for session files.
	// Defaults to ~/.config/oauthkit/sessions.
	StorageDir string

	// FileMode enables file-based persistence. If false, sessions are
	// in-memory only (used in tests).
	FileMode bool
}

// Store persists frozen sessions per provider.
//
// SECURITY: the store handles bearer and refresh tokens. Files are created
// with 0600 permissions inside a 0700 directory, and token values are never
// logged; only provider names are.
type Store struct {
	mu         sync.RWMutex
	storageDir string
	sessions   map[string]*StoredSession
	fileMode   bool
}

// New creates a session store.
func New(cfg Config) (*Store, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultStorageDir)
	}

	store := &Store{
		storageDir: storageDir,
		sessions:   make(map[string]*StoredSession),
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create session storage directory: %w", err)
		}
	}

	return store, nil
}

// Put stores the session for a provider, replacing any previous one.
func (s *Store) Put(provider string, session oauth.FrozenSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredSession{
		Provider:  provider,
		Session:   session,
		UpdatedAt: time.Now(),
	}
	s.sessions[provider] = stored

	if s.fileMode {
		if err := s.writeSessionFile(provider, stored); err != nil {
			logging.Warn("SessionStore", "Failed to persist session for provider %s: %v", provider, err)
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	logging.Debug("SessionStore", "Stored session for provider %s", provider)
	return nil
}

// Get returns the stored session for a provider, or nil when none exists.
// Expired sessions are returned as-is: a session past its expiry may still
// hold a redeemable refresh token, so the decision is the caller's.
func (s *Store) Get(provider string) (*StoredSession, error) {
	s.mu.RLock()
	if stored, ok := s.sessions[provider]; ok {
		s.mu.RUnlock()
		return stored, nil
	}
	s.mu.RUnlock()

	if !s.fileMode {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.sessions[provider]; ok {
		return stored, nil
	}

	stored, err := s.readSessionFile(provider)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	s.sessions[provider] = stored
	return stored, nil
}

// Delete removes the stored session for a provider.
func (s *Store) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, provider)

	if s.fileMode {
		path := s.sessionPath(provider)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	logging.Debug("SessionStore", "Deleted session for provider %s", provider)
	return nil
}

// List returns all stored sessions sorted by provider name.
func (s *Store) List() ([]*StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileMode {
		entries, err := os.ReadDir(s.storageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read session storage directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			stored, err := s.readSessionPath(filepath.Join(s.storageDir, entry.Name()))
			if err != nil {
				logging.Warn("SessionStore", "Skipping unreadable session file %s: %v", entry.Name(), err)
				continue
			}
			if _, ok := s.sessions[stored.Provider]; !ok {
				s.sessions[stored.Provider] = stored
			}
		}
	}

	sessions := make([]*StoredSession, 0, len(s.sessions))
	for _, stored := range s.sessions {
		sessions = append(sessions, stored)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Provider < sessions[j].Provider
	})
	return sessions, nil
}

// sessionPath builds the file path for a provider. The file name is a
// SHA256-derived identifier so that arbitrary provider names are
// filesystem-safe.
func (s *Store) sessionPath(provider string) string {
	hash := sha256.Sum256([]byte(provider))
	return filepath.Join(s.storageDir, hex.EncodeToString(hash[:16])+".json")
}

func (s *Store) writeSessionFile(provider string, stored *StoredSession) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Owner read/write only.
	if err := os.WriteFile(s.sessionPath(provider), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (s *Store) readSessionFile(provider string) (*StoredSession, error) {
	return s.readSessionPath(s.sessionPath(provider))
}

func (s *Store) readSessionPath(path string) (*StoredSession, error) {
	// #nosec G304 -- path is constructed from the storage dir, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var stored StoredSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &stored, nil
}
