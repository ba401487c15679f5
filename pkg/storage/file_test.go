package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PlainRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyUserID, "mobile:abc"))

	var got string
	require.NoError(t, s.Get(ctx, KeyUserID, &got))
	assert.Equal(t, "mobile:abc", got)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	require.NoError(t, s.SetSecure(ctx, KeyAuthToken, "tok-1"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	var theme string
	require.NoError(t, reopened.Get(ctx, KeyTheme, &theme))
	assert.Equal(t, "dark", theme)

	tok, err := reopened.GetSecure(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestFileStore_CorruptStateStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0o600))

	s, err := NewFileStore(dir)
	require.NoError(t, err, "corrupt state must not fail open")

	var out string
	assert.ErrorIs(t, s.Get(context.Background(), KeyUserID, &out), ErrNotFound)
}

func TestFileStore_DeletePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyUserID, "u"))
	require.NoError(t, s.Delete(ctx, KeyUserID))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	var out string
	assert.ErrorIs(t, reopened.Get(ctx, KeyUserID, &out), ErrNotFound)
}

func TestFileStore_SecretFilePermissions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetSecure(ctx, KeyRefreshToken, "secret"))

	info, err := os.Stat(filepath.Join(dir, "secure", KeyRefreshToken))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_DeleteSecureMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.DeleteSecure(context.Background(), KeyPushToken))
}

func TestFileStore_SecureKeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetSecure(ctx, "../escape", "v"))

	_, statErr := os.Stat(filepath.Join(dir, "escape"))
	assert.True(t, os.IsNotExist(statErr), "secret must stay inside the secure dir")
}
