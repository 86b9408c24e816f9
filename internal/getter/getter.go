// Package getter wraps hashicorp/go-getter for fetching remote config files.
package getter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	getter "github.com/hashicorp/go-getter/v2"
)

// Getter fetches files over git, HTTP, S3 and the other go-getter protocols.
type Getter struct {
	client *getter.Client
	logger *slog.Logger
}

// New creates a Getter with default configuration.
func New(logger *slog.Logger) *Getter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Getter{
		client: &getter.Client{
			DisableSymlinks: true,
		},
		logger: logger,
	}
}

// FetchFile downloads a single file from src to dest. A non-empty ref is
// passed to git sources as ?ref=.
func (g *Getter) FetchFile(ctx context.Context, src, dest, ref string) error {
	fullSrc := WithRef(src, ref)
	g.logger.Debug("fetching file", "src", fullSrc, "dest", dest)

	req := &getter.Request{
		Src:             fullSrc,
		Dst:             dest,
		GetMode:         getter.ModeFile,
		DisableSymlinks: true,
	}

	if _, err := g.client.Get(ctx, req); err != nil {
		return fmt.Errorf("fetching file %s: %w", src, err)
	}

	return nil
}

// WithRef appends a ref query parameter to a go-getter URL.
//
//	WithRef("git::https://git.example.com/puppet.git//puppetenv.yaml", "v2")
//	→ "git::https://git.example.com/puppet.git//puppetenv.yaml?ref=v2"
func WithRef(src, ref string) string {
	if ref == "" {
		return src
	}

	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}

	return src + sep + "ref=" + ref
}
