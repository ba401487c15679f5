package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory implements both tiers in process memory. It is the default store
// for tests and for hosts that inject their own durable stores.
type Memory struct {
	mu     sync.RWMutex
	secure map[string]string
	plain  map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		secure: make(map[string]string),
		plain:  make(map[string][]byte),
	}
}

// GetSecure returns the secret for key, or ErrNotFound.
func (m *Memory) GetSecure(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.secure[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetSecure stores a secret.
func (m *Memory) SetSecure(_ context.Context, key, value string) error {
	if key == "" || value == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.secure[key] = value
	return nil
}

// DeleteSecure removes a secret.
func (m *Memory) DeleteSecure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.secure, key)
	return nil
}

// Get unmarshals the plain-tier value for key into out.
func (m *Memory) Get(_ context.Context, key string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.plain[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

// Set marshals value into the plain tier under key.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.plain[key] = raw
	return nil
}

// Delete removes a plain-tier key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.plain, key)
	return nil
}

// Verify interface compliance.
var (
	_ SecureStore = (*Memory)(nil)
	_ Store       = (*Memory)(nil)
)
