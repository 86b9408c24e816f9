package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/platform"
	"github.com/donaldgifford/puppetenv/internal/site"
	"github.com/donaldgifford/puppetenv/internal/source"
)

// configFetcher overrides the go-getter client used for remote configs.
var configFetcher source.Fetcher

// loadConfig resolves --config, fetching remote locations into the cache.
func loadConfig(ctx context.Context, logger *slog.Logger) (*config.Config, error) {
	loc := cfgFile
	if loc == "" {
		loc = config.DefaultConfigPath()
	}

	resolver := source.NewResolver(&source.Opts{
		CacheDir: config.DefaultCacheDir(),
		Logger:   logger,
		Fetcher:  configFetcher,
	})

	if cfgRefresh {
		if err := resolver.Refresh(loc); err != nil {
			return nil, fmt.Errorf("refreshing config %s: %w", loc, err)
		}
	}

	path, err := resolver.Resolve(ctx, loc, cfgRef)
	if err != nil {
		return nil, fmt.Errorf("resolving config %s: %w", loc, err)
	}

	logger.Debug("loading config", "location", loc, "path", path)

	return config.Load(path)
}

// hostFacts layers flag overrides over configured facts, then fills the
// remaining gaps from the running host.
func hostFacts(cfg *config.Config, logger *slog.Logger) platform.Facts {
	facts := platform.MergeFacts(platform.Facts{OSFamily: osFamily, PuppetVersion: puppetVersion}, cfg.Facts)

	if facts.OSFamily != "" && facts.OSMajorRelease != "" {
		return facts
	}

	detected, err := platform.DetectFacts(platform.DefaultOSReleasePath)
	if err != nil {
		logger.Debug("fact detection failed", "err", err)

		return facts
	}

	return platform.MergeFacts(facts, detected)
}

// loadPlan loads the config and computes the plan for this host.
func loadPlan(ctx context.Context, logger *slog.Logger) (*config.Config, *site.Plan, error) {
	cfg, err := loadConfig(ctx, logger)
	if err != nil {
		return nil, nil, err
	}

	facts := hostFacts(cfg, logger)

	plan, err := site.Build(&site.Opts{Config: cfg, Facts: &facts, Logger: logger})
	if err != nil {
		return nil, nil, err
	}

	return cfg, plan, nil
}
