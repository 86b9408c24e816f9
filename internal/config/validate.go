package config

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/puppetenv/internal/backup"
	"github.com/donaldgifford/puppetenv/internal/env"
)

// Validate checks a Config for required fields and valid values. Environment
// parameters are checked against the configured deployment mode.
func Validate(cfg *Config) error {
	if cfg.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion %q, expected %q", cfg.APIVersion, APIVersion)
	}

	if strings.ContainsAny(cfg.Server.User, ": \n") {
		return fmt.Errorf("server.user %q is not a valid user name", cfg.Server.User)
	}

	if strings.ContainsAny(cfg.Server.Group, ": \n") {
		return fmt.Errorf("server.group %q is not a valid group name", cfg.Server.Group)
	}

	if strings.Contains(cfg.Server.ConfigVersion, "\n") {
		return fmt.Errorf("server.config_version must not contain newlines")
	}

	if _, err := backup.ParseStrategy(cfg.Apply.Backup); err != nil {
		return fmt.Errorf("apply.backup: %w", err)
	}

	ctx := env.Context{DirectoryEnvironments: cfg.Server.UseDirectoryEnvironments()}
	seen := make(map[string]bool, len(cfg.Environments))

	for i := range cfg.Environments {
		e := &cfg.Environments[i]

		if err := env.ValidateName(e.Name); err != nil {
			return fmt.Errorf("environments[%d]: %w", i, err)
		}

		if seen[e.Name] {
			return fmt.Errorf("environments[%d]: duplicate environment %q", i, e.Name)
		}

		seen[e.Name] = true

		if err := e.Params.Validate(ctx); err != nil {
			return fmt.Errorf("environments[%d] (%s): %w", i, e.Name, err)
		}
	}

	return nil
}
