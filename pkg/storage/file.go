package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	plainFileName = "state.json"
	secureDirName = "secure"

	dirPerm  = 0o700
	filePerm = 0o600
)

// FileStore is an on-device implementation of both tiers. The plain tier is
// a single JSON document rewritten atomically on every Set; the secure tier
// is one 0600 file per key under a 0700 directory. Hosts with a real
// platform keychain should inject their own SecureStore instead.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	data map[string]json.RawMessage
}

// NewFileStore opens (or creates) a file store rooted at dir. An existing
// plain-tier document that fails to decode is treated as absent: the store
// starts empty rather than refusing to open.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, secureDirName), dirPerm); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	s := &FileStore{dir: dir, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(filepath.Join(dir, plainFileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// first run
	case err != nil:
		return nil, fmt.Errorf("storage: reading state: %w", err)
	default:
		if jsonErr := json.Unmarshal(raw, &s.data); jsonErr != nil {
			s.data = make(map[string]json.RawMessage)
		}
	}

	return s, nil
}

// Get unmarshals the plain-tier value for key into out.
func (s *FileStore) Get(_ context.Context, key string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

// Set marshals value under key and rewrites the document atomically.
func (s *FileStore) Set(_ context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw
	return s.flushLocked()
}

// Delete removes key and rewrites the document.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// flushLocked writes the document via temp-file rename so a crash mid-write
// never leaves a truncated snapshot behind.
func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}

	target := filepath.Join(s.dir, plainFileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, filePerm); err != nil {
		return fmt.Errorf("storage: writing state: %w", err)
	}
	return os.Rename(tmp, target)
}

// GetSecure returns the secret for key, or ErrNotFound.
func (s *FileStore) GetSecure(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	raw, err := os.ReadFile(s.securePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: reading secret: %w", err)
	}
	return string(raw), nil
}

// SetSecure writes a secret to its own 0600 file.
func (s *FileStore) SetSecure(_ context.Context, key, value string) error {
	if key == "" || value == "" {
		return ErrInvalidKey
	}
	if err := os.WriteFile(s.securePath(key), []byte(value), filePerm); err != nil {
		return fmt.Errorf("storage: writing secret: %w", err)
	}
	return nil
}

// DeleteSecure removes a secret file. Missing files are not an error.
func (s *FileStore) DeleteSecure(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := os.Remove(s.securePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: deleting secret: %w", err)
	}
	return nil
}

func (s *FileStore) securePath(key string) string {
	// Keys are fixed constants, but sanitize anyway so a hostile key can
	// never escape the secure directory.
	return filepath.Join(s.dir, secureDirName, filepath.Base(key))
}

// Verify interface compliance.
var (
	_ Store       = (*FileStore)(nil)
	_ SecureStore = (*FileStore)(nil)
)
