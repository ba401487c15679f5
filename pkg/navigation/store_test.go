package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flaitravel/mobile-core/pkg/storage"
)

func TestOnboardingFlag_Defaults(t *testing.T) {
	store := NewStore(storage.NewMemory())
	store.Initialize(context.Background())
	assert.False(t, store.HasCompletedOnboarding())
}

func TestOnboardingFlag_PersistsAcrossRestart(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	store := NewStore(mem)
	store.Initialize(ctx)
	store.SetOnboardingCompleted(ctx, true)
	assert.True(t, store.HasCompletedOnboarding())

	restored := NewStore(mem)
	restored.Initialize(ctx)
	assert.True(t, restored.HasCompletedOnboarding())
}

func TestOnboardingFlag_CanBeReset(t *testing.T) {
	mem := storage.NewMemory()
	ctx := context.Background()

	store := NewStore(mem)
	store.SetOnboardingCompleted(ctx, true)
	store.SetOnboardingCompleted(ctx, false)

	restored := NewStore(mem)
	restored.Initialize(ctx)
	assert.False(t, restored.HasCompletedOnboarding())
}
