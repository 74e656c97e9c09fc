// Package credentials persists the shared admin session (token + display
// name) in a small JSON file next to the process. The token is an opaque
// secret issued out of band; it is attached verbatim to admin calls and
// never derived or rotated here.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type session struct {
	AdminToken string `json:"admin_token"`
	AdminName  string `json:"admin_name"`
}

// Store is a file-backed admin session. Reads are concurrent; saves are
// last-write-wins and atomic (tmp + rename).
type Store struct {
	mu      sync.RWMutex
	path    string
	current session
}

// Open loads the session file at path. A missing file yields an empty
// session; a malformed file is an error.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("session file path is empty")
	}

	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return s, nil
}

// Token returns the stored admin token, empty when unconfigured.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AdminToken
}

// Name returns the stored admin display name.
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AdminName
}

// Configured reports whether a non-empty token is stored.
func (s *Store) Configured() bool {
	return s.Token() != ""
}

// MaskedToken returns the token with all but the last four characters hidden.
func (s *Store) MaskedToken() string {
	token := s.Token()
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// Save replaces the stored session and persists it. An empty token is
// allowed and clears the session.
func (s *Store) Save(token, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session{
		AdminToken: strings.TrimSpace(token),
		AdminName:  strings.TrimSpace(name),
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
