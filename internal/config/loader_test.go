package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/env"
)

func TestLoad_DirectoryEnvironments(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(testdataPath(t, "directory.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, "RedHat", cfg.Facts.OSFamily)
	assert.Equal(t, "7", cfg.Facts.OSMajorRelease)
	assert.Equal(t, "4.10.12", cfg.Facts.PuppetVersion)
	assert.True(t, cfg.Server.UseDirectoryEnvironments())
	assert.True(t, cfg.Server.ShouldManagePuppetConf())
	assert.Contains(t, cfg.Server.ConfigVersion, "rev-parse HEAD")
	assert.Equal(t, "zstd", cfg.Apply.Backup)
	assert.Equal(t, "/var/lib/puppetenv/state.yaml", cfg.StateFile())

	require.Len(t, cfg.Environments, 4)

	production := cfg.Environments[0].Params
	assert.Equal(t, "production", cfg.Environments[0].Name)
	assert.True(t, production.ModulePath.IsUnset())
	assert.True(t, production.ConfigVersion.IsUnset())

	timeout, ok := cfg.Environments[1].Params.EnvironmentTimeout.Get()
	assert.True(t, ok)
	assert.Equal(t, "unlimited", timeout)

	paths, ok := cfg.Environments[2].Params.ModulePath.Get()
	assert.True(t, ok)
	assert.Equal(t, []string{
		"/etc/puppetlabs/code/example/modules",
		"/etc/puppetlabs/code/vendor/modules",
	}, paths)

	bare := cfg.Environments[3].Params
	assert.True(t, bare.ModulePath.IsNull())
	assert.True(t, bare.ConfigVersion.IsNull())
	assert.True(t, bare.Manifest.IsUnset())
}

func TestLoad_ConfigEnvironments(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(testdataPath(t, "config.yaml"))
	require.NoError(t, err)

	assert.False(t, cfg.Server.UseDirectoryEnvironments())
	assert.Equal(t, "puppet", cfg.Server.User)
	assert.Equal(t, config.DefaultStateFile, cfg.StateFile())

	manifestDir, ok := cfg.Environments[0].Params.ManifestDir.Get()
	assert.True(t, ok)
	assert.Equal(t, "/etc/puppet/manifests", manifestDir)

	paths, ok := cfg.Environments[1].Params.ModulePath.Get()
	assert.True(t, ok)
	assert.Equal(t, []string{"/srv/staging/modules", "/srv/shared/modules"}, paths)
	assert.Equal(t, env.Set, cfg.Environments[1].Params.ConfigVersion.State())
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/puppetenv.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "puppetenv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestParse_WrongOptionType(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte(`
apiVersion: v1
environments:
  - name: foo
    manifest: [a, b]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `environment "foo": manifest`)
}

func TestParse_ValidationError(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("environments: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiVersion")
}

func TestParse_ScalarConfigVersion(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
apiVersion: v1
server:
  directory_environments: false
  manage_puppet_conf: false
environments:
  - name: foo
    config_version: 42
`))
	require.NoError(t, err)
	assert.False(t, cfg.Server.ShouldManagePuppetConf())

	v, ok := cfg.Environments[0].Params.ConfigVersion.Get()
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func testdataPath(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join("..", "..", "testdata", "config", name)
	absPath, err := filepath.Abs(path)
	require.NoError(t, err)

	return absPath
}
