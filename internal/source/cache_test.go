package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/puppetenv/internal/source"
)

const repo = "git::https://git.example.com/puppet.git//puppetenv.yaml"

func writeConfig(dest string) error {
	return os.WriteFile(filepath.Join(dest, source.FileName), []byte("apiVersion: v1\n"), 0o644)
}

func TestCache_GetOrFetch_ColdCache(t *testing.T) {
	t.Parallel()

	cache := source.NewCache(t.TempDir(), nil)

	fetchCalled := false
	path, err := cache.GetOrFetch(repo, "v1.0.0", func(dest string) error {
		fetchCalled = true

		return writeConfig(dest)
	})
	require.NoError(t, err)

	assert.True(t, fetchCalled)
	assert.FileExists(t, filepath.Join(path, source.FileName))
}

func TestCache_GetOrFetch_WarmAndStale(t *testing.T) {
	t.Parallel()

	cache := source.NewCache(t.TempDir(), nil)

	fetchCount := 0
	fetchFn := func(dest string) error {
		fetchCount++

		return writeConfig(dest)
	}

	_, err := cache.GetOrFetch(repo, "v1.0.0", fetchFn)
	require.NoError(t, err)

	_, err = cache.GetOrFetch(repo, "v1.0.0", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, 1, fetchCount, "should not fetch again for same ref")

	_, err = cache.GetOrFetch(repo, "v2.0.0", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, 2, fetchCount, "should re-fetch for different ref")
}

func TestCache_GetOrFetch_FailureCleansUp(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	cache := source.NewCache(base, nil)

	var fetchedInto string

	_, err := cache.GetOrFetch(repo, "", func(dest string) error {
		fetchedInto = dest

		return errors.New("connection refused")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching source")
	assert.NoDirExists(t, fetchedInto)
}

func TestCache_InvalidateAndClean(t *testing.T) {
	t.Parallel()

	cache := source.NewCache(t.TempDir(), nil)

	path, err := cache.GetOrFetch(repo, "", writeConfig)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(repo))
	assert.NoDirExists(t, path)
	require.NoError(t, cache.Invalidate("https://example.com/never-cached.yaml"))

	_, err = cache.GetOrFetch(repo, "", writeConfig)
	require.NoError(t, err)
	_, err = cache.GetOrFetch("https://example.com/other.yaml", "", writeConfig)
	require.NoError(t, err)

	removed, err := cache.Clean()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = cache.Clean()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCache_List(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	cache := source.NewCache(base, nil)

	entries, err := cache.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	before := time.Now().Add(-time.Second)

	_, err = cache.GetOrFetch("https://example.com/site.yaml", "", writeConfig)
	require.NoError(t, err)
	path, err := cache.GetOrFetch(repo, "v2.0.0", writeConfig)
	require.NoError(t, err)

	// Leftovers of an interrupted fetch carry no metadata.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "sources", "partial"), 0o750))

	entries, err = cache.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, repo, entries[0].URL)
	assert.Equal(t, "v2.0.0", entries[0].Ref)
	assert.Equal(t, filepath.Join(path, source.FileName), entries[0].Path)
	assert.True(t, entries[0].FetchedAt.After(before))
	assert.Equal(t, "https://example.com/site.yaml", entries[1].URL)
}
