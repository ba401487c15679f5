package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SecureRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetSecure(ctx, KeyAuthToken, "tok-123"))

	got, err := m.GetSecure(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got)
}

func TestMemory_SecureNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.GetSecure(context.Background(), KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SecureRejectsEmpty(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, m.SetSecure(ctx, "", "v"), ErrInvalidKey)
	assert.ErrorIs(t, m.SetSecure(ctx, KeyAuthToken, ""), ErrInvalidKey)
}

func TestMemory_DeleteSecureMissingKey(t *testing.T) {
	m := NewMemory()
	assert.NoError(t, m.DeleteSecure(context.Background(), KeyRefreshToken))
}

func TestMemory_PlainRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type snapshot struct {
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	require.NoError(t, m.Set(ctx, KeyChatSnapshot, snapshot{Count: 2, Tags: []string{"a", "b"}}))

	var got snapshot
	require.NoError(t, m.Get(ctx, KeyChatSnapshot, &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
}

func TestMemory_PlainNotFound(t *testing.T) {
	m := NewMemory()

	var out string
	assert.ErrorIs(t, m.Get(context.Background(), KeyUserID, &out), ErrNotFound)
}

func TestClearSecrets(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SetSecure(ctx, KeyAuthToken, "a"))
	require.NoError(t, m.SetSecure(ctx, KeyRefreshToken, "r"))
	require.NoError(t, m.SetSecure(ctx, KeyDeviceID, "d"))

	require.NoError(t, ClearSecrets(ctx, m))

	for _, key := range []string{KeyAuthToken, KeyRefreshToken, KeyDeviceID, KeyPushToken} {
		_, err := m.GetSecure(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
}

func TestMemory_ConcurrentAccess(_ *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.SetSecure(ctx, KeyAuthToken, "tok")
				_, _ = m.GetSecure(ctx, KeyAuthToken)
				_ = m.Set(ctx, KeyUserID, "user-1")
				var out string
				_ = m.Get(ctx, KeyUserID, &out)
				_ = m.Delete(ctx, KeyTheme)
			}
		}()
	}
	wg.Wait()
}
