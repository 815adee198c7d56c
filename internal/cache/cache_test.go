package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/domain"
)

func newTestCache(t *testing.T) *FileCache {
	t.Helper()
	return NewFileCache(filepath.Join(t.TempDir(), "index.json"))
}

func TestGet_MissingFileIsNotAnError(t *testing.T) {
	c := newTestCache(t)

	name, ok, err := c.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestSetThenGet(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set("fingerprint-a"))
	name, ok, err := c.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fingerprint-a", name)
}

func TestSet_ReplacesPreviousEntry(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set("fingerprint-a"))
	require.NoError(t, c.Set("fingerprint-b"))

	name, ok, err := c.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fingerprint-b", name, "only one fingerprint is ever remembered")
}

func TestEvict(t *testing.T) {
	c := newTestCache(t)

	// Evicting an empty cache is safe.
	require.NoError(t, c.Evict())

	require.NoError(t, c.Set("fingerprint-a"))
	require.NoError(t, c.Evict())
	_, ok, err := c.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	c := NewFileCache(path)

	_, _, err := c.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheRead)
}
