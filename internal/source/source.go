// Package source resolves the config location given on the command line,
// fetching remote files through go-getter into a local cache.
package source

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/donaldgifford/puppetenv/internal/getter"
)

// FileName is the name remote config files are stored under in the cache.
const FileName = "puppetenv.yaml"

// Fetcher downloads a single file.
type Fetcher interface {
	FetchFile(ctx context.Context, src, dest, ref string) error
}

// Opts configures a Resolver.
type Opts struct {
	CacheDir string
	Logger   *slog.Logger
	// Fetcher defaults to a go-getter client.
	Fetcher Fetcher
}

// Resolver maps config locations to local file paths.
type Resolver struct {
	cache   *Cache
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(opts *Opts) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = getter.New(logger)
	}

	return &Resolver{
		cache:   NewCache(opts.CacheDir, logger),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Resolve returns a local path for loc. Local paths are returned unchanged;
// remote locations are fetched once per ref and served from the cache after.
func (r *Resolver) Resolve(ctx context.Context, loc, ref string) (string, error) {
	if !IsRemote(loc) {
		return loc, nil
	}

	dir, err := r.cache.GetOrFetch(loc, ref, func(dest string) error {
		return r.fetcher.FetchFile(ctx, loc, filepath.Join(dest, FileName), ref)
	})
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, FileName), nil
}

// Refresh drops the cached copy of loc so the next Resolve fetches it again.
func (r *Resolver) Refresh(loc string) error {
	if !IsRemote(loc) {
		return nil
	}

	return r.cache.Invalidate(loc)
}

// remotePrefixes are the host shorthands go-getter detects without a scheme.
var remotePrefixes = []string{
	"github.com/",
	"gitlab.com/",
	"bitbucket.org/",
	"git@",
}

// remoteHosts are object store hosts go-getter detects anywhere in a
// scheme-less location, e.g. "bucket.s3.amazonaws.com/puppetenv.yaml".
var remoteHosts = []string{
	"amazonaws.com/",
	"googleapis.com/",
}

// IsRemote reports whether loc needs fetching: a URL, a forced getter
// ("git::…"), a VCS host shorthand or an S3/GCS object path.
func IsRemote(loc string) bool {
	if strings.Contains(loc, "::") || strings.Contains(loc, "://") {
		return true
	}

	for _, p := range remotePrefixes {
		if strings.HasPrefix(loc, p) {
			return true
		}
	}

	if filepath.IsAbs(loc) || strings.HasPrefix(loc, ".") {
		return false
	}

	for _, h := range remoteHosts {
		if strings.Contains(loc, h) {
			return true
		}
	}

	return false
}
