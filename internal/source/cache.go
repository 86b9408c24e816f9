package source

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

const (
	cacheMetaFile = ".puppetenv-cache-meta"
	sourcesDir    = "sources"
)

// Entry describes one cached config source.
type Entry struct {
	URL       string    `yaml:"url"`
	Ref       string    `yaml:"ref"`
	FetchedAt time.Time `yaml:"fetched_at"`
	// Path is the cached config file. Not stored.
	Path string `yaml:"-"`
}

// Cache manages locally cached config sources.
type Cache struct {
	baseDir string
	logger  *slog.Logger
}

// NewCache creates a Cache rooted at baseDir, typically $XDG_CACHE_HOME/puppetenv.
func NewCache(baseDir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		baseDir: baseDir,
		logger:  logger,
	}
}

// GetOrFetch returns the cache directory for url. When the directory is
// missing or was fetched for another ref, fetchFn repopulates it.
func (c *Cache) GetOrFetch(url, ref string, fetchFn func(dest string) error) (string, error) {
	cacheDir := c.dir(url)
	metaPath := filepath.Join(cacheDir, cacheMetaFile)

	if meta, err := readCacheMeta(metaPath); err == nil {
		if meta.Ref == ref {
			c.logger.Debug("cache hit", "url", url, "ref", ref)

			return cacheDir, nil
		}

		c.logger.Debug("cache stale", "url", url, "cached_ref", meta.Ref, "requested_ref", ref)
	}

	if err := os.RemoveAll(cacheDir); err != nil {
		return "", fmt.Errorf("removing stale cache %s: %w", cacheDir, err)
	}

	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return "", fmt.Errorf("creating cache directory %s: %w", cacheDir, err)
	}

	if err := fetchFn(cacheDir); err != nil {
		if removeErr := os.RemoveAll(cacheDir); removeErr != nil {
			c.logger.Warn("failed to clean up cache on fetch failure", "err", removeErr)
		}

		return "", fmt.Errorf("fetching source %s: %w", url, err)
	}

	if err := writeCacheMeta(metaPath, &Entry{URL: url, Ref: ref, FetchedAt: time.Now().UTC()}); err != nil {
		return "", fmt.Errorf("writing cache metadata: %w", err)
	}

	return cacheDir, nil
}

// Invalidate removes the cached content for url.
func (c *Cache) Invalidate(url string) error {
	if err := os.RemoveAll(c.dir(url)); err != nil {
		return fmt.Errorf("invalidating cache for %s: %w", url, err)
	}

	c.logger.Debug("cache invalidated", "url", url)

	return nil
}

// List returns the cached sources sorted by URL. Directories without
// readable metadata are skipped.
func (c *Cache) List() ([]Entry, error) {
	root := filepath.Join(c.baseDir, sourcesDir)

	dirs, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", root, err)
	}

	var entries []Entry

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}

		dir := filepath.Join(root, d.Name())

		meta, err := readCacheMeta(filepath.Join(dir, cacheMetaFile))
		if err != nil {
			c.logger.Debug("skipping cache entry", "dir", dir, "err", err)

			continue
		}

		meta.Path = filepath.Join(dir, FileName)
		entries = append(entries, *meta)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })

	return entries, nil
}

// Clean removes every cached source and returns how many were removed.
func (c *Cache) Clean() (int, error) {
	root := filepath.Join(c.baseDir, sourcesDir)

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading cache %s: %w", root, err)
	}

	if err := os.RemoveAll(root); err != nil {
		return 0, fmt.Errorf("removing cache %s: %w", root, err)
	}

	return len(entries), nil
}

// dir returns the cache directory for url, named by the first 8 bytes of its BLAKE3 hash.
func (c *Cache) dir(url string) string {
	sum := blake3.Sum256([]byte(url))

	return filepath.Join(c.baseDir, sourcesDir, hex.EncodeToString(sum[:8]))
}

func readCacheMeta(path string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var meta Entry
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func writeCacheMeta(path string, meta *Entry) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
