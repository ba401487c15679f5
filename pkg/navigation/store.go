// Package navigation persists lightweight UI routing state, currently the
// onboarding-completed flag. Kept separate from auth so clearing a session
// does not re-show onboarding.
package navigation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/flaitravel/mobile-core/pkg/storage"
)

const slogKeyError = "error"

// Store holds navigation state backed by the plain tier.
type Store struct {
	plain storage.Store

	mu                  sync.RWMutex
	onboardingCompleted bool
}

// NewStore creates a navigation store.
func NewStore(plain storage.Store) *Store {
	return &Store{plain: plain}
}

// Initialize restores persisted navigation state. It never fails: missing
// or unreadable state means onboarding has not been completed.
func (s *Store) Initialize(ctx context.Context) {
	var completed bool
	if err := s.plain.Get(ctx, storage.KeyOnboardingCompleted, &completed); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("navigation: reading onboarding flag", slogKeyError, err)
		}
		return
	}

	s.mu.Lock()
	s.onboardingCompleted = completed
	s.mu.Unlock()
}

// HasCompletedOnboarding reports whether the user finished onboarding.
func (s *Store) HasCompletedOnboarding() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboardingCompleted
}

// SetOnboardingCompleted records the flag and persists it. A write failure
// is logged; the in-memory flag still flips so the current run behaves
// correctly.
func (s *Store) SetOnboardingCompleted(ctx context.Context, completed bool) {
	s.mu.Lock()
	s.onboardingCompleted = completed
	s.mu.Unlock()

	if err := s.plain.Set(ctx, storage.KeyOnboardingCompleted, completed); err != nil {
		slog.Warn("navigation: persisting onboarding flag", slogKeyError, err)
	}
}
