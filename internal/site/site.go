// Package site plans the desired state of a whole Puppet server from its config.
package site

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/env"
	"github.com/donaldgifford/puppetenv/internal/platform"
	"github.com/donaldgifford/puppetenv/internal/resource"
	tmpl "github.com/donaldgifford/puppetenv/internal/template"
)

// Fragment orders of the site sections in puppet.conf.
const (
	MainOrder   = 10
	MasterOrder = 30
)

// Plan is the computed desired state.
type Plan struct {
	Profile   platform.Profile
	Context   env.Context
	Resources *resource.Set
}

// Opts configures planning.
type Opts struct {
	Config *config.Config

	// Facts overrides cfg.Facts when non-zero. Used after fact detection.
	Facts *platform.Facts

	// Logger for debug output.
	Logger *slog.Logger
}

// Build computes the plan. Environments are defined in config order.
func Build(opts *Opts) (*Plan, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := opts.Config

	facts := cfg.Facts
	if opts.Facts != nil {
		facts = *opts.Facts
	}

	profile, err := platform.Resolve(facts)
	if err != nil {
		return nil, fmt.Errorf("resolving platform: %w", err)
	}

	logger.Debug("resolved platform", "profile", profile.Name, "os_family", facts.OSFamily, "puppet_version", facts.PuppetVersion)

	ctx := NewContext(profile, &cfg.Server)

	renderer, err := tmpl.NewRenderer()
	if err != nil {
		return nil, err
	}

	set := resource.NewSet()

	for _, dir := range []string{
		path.Join(profile.CodeDir, env.EnvironmentsDir),
		env.Dir(profile.CodeDir, env.CommonEnvironment),
	} {
		if err := set.Add(resource.Directory(dir, ctx.Owner, ctx.Group)); err != nil {
			return nil, err
		}
	}

	if cfg.Server.ShouldManagePuppetConf() {
		if err := addSiteSections(set, renderer, ctx); err != nil {
			return nil, err
		}
	}

	definer, err := env.NewDefiner()
	if err != nil {
		return nil, err
	}

	for i := range cfg.Environments {
		e := &cfg.Environments[i]

		envSet, err := definer.Define(e.Name, e.Params, ctx)
		if err != nil {
			return nil, err
		}

		if err := set.Merge(envSet); err != nil {
			return nil, fmt.Errorf("environment %s: %w", e.Name, err)
		}

		logger.Debug("defined environment", "name", e.Name, "resources", envSet.Len())
	}

	return &Plan{Profile: profile, Context: ctx, Resources: set}, nil
}

// NewContext builds the environment context from server settings.
func NewContext(profile platform.Profile, server *config.Server) env.Context {
	owner := server.User
	if owner == "" {
		owner = resource.DefaultOwner
	}

	return env.Context{
		Profile:               profile,
		DirectoryEnvironments: server.UseDirectoryEnvironments(),
		ServerConfigVersion:   server.ConfigVersion,
		Owner:                 owner,
		Group:                 server.Group,
	}
}

// addSiteSections adds [main] and, for directory environments, [master].
func addSiteSections(set *resource.Set, renderer *tmpl.Renderer, ctx env.Context) error {
	target := path.Join(ctx.Profile.ConfDir, env.PuppetConfFile)

	main, err := renderer.Section(tmpl.SectionData{
		Name: "main",
		Settings: []tmpl.Setting{
			{Key: "logdir", Value: ctx.Profile.LogDir},
			{Key: "rundir", Value: ctx.Profile.RunDir},
			{Key: "ssldir", Value: ctx.Profile.SSLDir},
			{Key: "vardir", Value: ctx.Profile.VarDir},
		},
	})
	if err != nil {
		return fmt.Errorf("rendering main section: %w", err)
	}

	if err := set.Add(resource.Fragment(target, MainOrder, "main", main)); err != nil {
		return err
	}

	if !ctx.DirectoryEnvironments {
		return nil
	}

	master, err := renderer.Section(tmpl.SectionData{
		Name: "master",
		Settings: []tmpl.Setting{
			{Key: "environmentpath", Value: path.Join(ctx.Profile.CodeDir, env.EnvironmentsDir)},
		},
		Separated: true,
	})
	if err != nil {
		return fmt.Errorf("rendering master section: %w", err)
	}

	return set.Add(resource.Fragment(target, MasterOrder, "master", master))
}
