package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_FallbackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := newFallback(dir)

	_, err := v.Get(KeyOpenAI)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, v.Set(KeyOpenAI, "sk-test"))
	require.NoError(t, v.Set(KeyOllama, "http://localhost:11434"))

	got, err := v.Get(KeyOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)

	info, err := os.Stat(filepath.Join(dir, "secrets.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, v.Delete(KeyOpenAI))
	_, err = v.Get(KeyOpenAI)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = v.Get(KeyOllama)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", got)

	require.NoError(t, v.Delete(KeyGithubModels))
}
