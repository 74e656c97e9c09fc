package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	assert.False(t, store.Configured())
	assert.Empty(t, store.Token())
	assert.Empty(t, store.Name())
}

func TestOpenEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := Open(path)
	require.NoError(t, err)
	assert.False(t, store.Configured())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("secreto-123", "Raúl"))

	assert.True(t, store.Configured())
	assert.Equal(t, "secreto-123", store.Token())
	assert.Equal(t, "Raúl", store.Name())

	// a fresh store sees the persisted session
	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "secreto-123", reopened.Token())
	assert.Equal(t, "Raúl", reopened.Name())

	// no leftover tmp file after the atomic swap
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveTrimsAndClears(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Save("  tok  ", "  Ana  "))
	assert.Equal(t, "tok", store.Token())
	assert.Equal(t, "Ana", store.Name())

	require.NoError(t, store.Save("", ""))
	assert.False(t, store.Configured())
}

func TestMaskedToken(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	assert.Equal(t, "", store.MaskedToken())

	require.NoError(t, store.Save("abc", ""))
	assert.Equal(t, "***", store.MaskedToken())

	require.NoError(t, store.Save("super-secret-token", ""))
	masked := store.MaskedToken()
	assert.Equal(t, "**************oken", masked)
	assert.Len(t, masked, len("super-secret-token"))
}
