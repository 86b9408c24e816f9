package apply_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/puppetenv/internal/apply"
	"github.com/donaldgifford/puppetenv/internal/backup"
	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/env"
	"github.com/donaldgifford/puppetenv/internal/platform"
	"github.com/donaldgifford/puppetenv/internal/site"
	"github.com/donaldgifford/puppetenv/internal/state"
)

const (
	puppetConf = "/etc/puppetlabs/puppet/puppet.conf"
	fooConf    = "/etc/puppetlabs/code/environments/foo/environment.conf"
)

func testPlan(t *testing.T) *site.Plan {
	t.Helper()

	plan, err := site.Build(&site.Opts{Config: &config.Config{
		APIVersion: config.APIVersion,
		Facts:      platform.Facts{OSFamily: "Debian", PuppetVersion: "5.5.22"},
		Environments: []config.Environment{
			{Name: "production"},
			{Name: "foo", Params: env.Params{ConfigVersion: env.Some("bar")}},
		},
	}})
	require.NoError(t, err)

	return plan
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
}

func run(t *testing.T, opts *apply.Opts) *apply.Result {
	t.Helper()

	opts.NoChown = true
	opts.Now = fixedNow

	result, err := apply.Run(context.Background(), opts)
	require.NoError(t, err)

	return result
}

func TestRun_CreatesEverything(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stateFile := filepath.Join(root, "state.yaml")
	plan := testPlan(t)

	result := run(t, &apply.Opts{Plan: plan, Root: root, StateFile: stateFile})

	assert.Len(t, result.Created, len(plan.Paths()))
	assert.Empty(t, result.Updated)
	assert.True(t, result.Changed())

	info, err := os.Stat(filepath.Join(root, "etc/puppetlabs/code/environments/production/manifests"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	content, err := os.ReadFile(filepath.Join(root, fooConf))
	require.NoError(t, err)
	assert.Equal(t, "config_version = bar\n", string(content))

	conf, err := os.ReadFile(filepath.Join(root, puppetConf))
	require.NoError(t, err)
	assert.Contains(t, string(conf), "environmentpath = /etc/puppetlabs/code/environments")

	recorded, err := state.Read(stateFile)
	require.NoError(t, err)
	assert.Equal(t, platform.ProfileModern, recorded.Profile)
	assert.True(t, fixedNow().Equal(recorded.AppliedAt))
	assert.Equal(t, state.ContentHash(content), recorded.Entries[fooConf].Hash)
	assert.Equal(t, "0644", recorded.Entries[fooConf].Mode)
	assert.Equal(t, "puppet", recorded.Entries[fooConf].Owner)
	assert.Empty(t, recorded.Entries[puppetConf].Owner)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	plan := testPlan(t)

	run(t, &apply.Opts{Plan: plan, Root: root})
	second := run(t, &apply.Opts{Plan: plan, Root: root})

	assert.Empty(t, second.Created)
	assert.Empty(t, second.Updated)
	assert.Len(t, second.Unchanged, len(plan.Paths()))
	assert.False(t, second.Changed())
}

func TestRun_ReplacesDriftWithBackup(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	plan := testPlan(t)

	run(t, &apply.Opts{Plan: plan, Root: root})

	drifted := []byte("config_version = hand-edited\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, fooConf), drifted, 0o644))

	result := run(t, &apply.Opts{Plan: plan, Root: root, Backup: backup.Zstd})
	assert.Equal(t, []string{fooConf}, result.Updated)
	require.Len(t, result.Backups, 1)
	assert.Equal(t, filepath.Join(root, fooConf)+".20261018080000.bak.zst", result.Backups[0])

	restored, err := backup.Read(result.Backups[0])
	require.NoError(t, err)
	assert.Equal(t, drifted, restored)

	content, err := os.ReadFile(filepath.Join(root, fooConf))
	require.NoError(t, err)
	assert.Equal(t, "config_version = bar\n", string(content))
}

func TestRun_FixesMode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	plan := testPlan(t)

	run(t, &apply.Opts{Plan: plan, Root: root})
	require.NoError(t, os.Chmod(filepath.Join(root, puppetConf), 0o600))

	result := run(t, &apply.Opts{Plan: plan, Root: root, Backup: backup.Plain})
	assert.Equal(t, []string{puppetConf}, result.Updated)
	assert.Empty(t, result.Backups)

	info, err := os.Stat(filepath.Join(root, puppetConf))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stateFile := filepath.Join(root, "state.yaml")
	plan := testPlan(t)

	result := run(t, &apply.Opts{Plan: plan, Root: root, DryRun: true, StateFile: stateFile})
	assert.Len(t, result.Created, len(plan.Paths()))

	assert.NoDirExists(t, filepath.Join(root, "etc"))
	assert.NoFileExists(t, stateFile)
}

func TestRun_TypeConflict(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "etc/puppetlabs/code")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "environments"), []byte("not a dir"), 0o644))

	_, err := apply.Run(context.Background(), &apply.Opts{Plan: testPlan(t), Root: root, NoChown: true})
	require.ErrorIs(t, err, apply.ErrTypeConflict)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := apply.Run(ctx, &apply.Opts{Plan: testPlan(t), Root: t.TempDir(), NoChown: true})
	require.ErrorIs(t, err, context.Canceled)
}
