package config

import (
	"os"
	"path/filepath"
)

// Defaults for file locations.
const (
	DefaultFileName  = "puppetenv.yaml"
	DefaultStateFile = "/var/lib/puppetenv/state.yaml"
	configEnvVar     = "PUPPETENV_CONFIG"
)

// DefaultConfigPath returns $PUPPETENV_CONFIG, or puppetenv.yaml in the working directory.
func DefaultConfigPath() string {
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}

	return DefaultFileName
}

// DefaultCacheDir returns the cache directory for fetched config sources,
// respecting XDG_CACHE_HOME.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "puppetenv")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "puppetenv")
	}

	return filepath.Join(home, ".cache", "puppetenv")
}

// StateFile returns the configured state file path or the default.
func (c *Config) StateFile() string {
	if c.Apply.StateFile != "" {
		return c.Apply.StateFile
	}

	return DefaultStateFile
}
