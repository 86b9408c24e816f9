// Package env computes the desired state of one Puppet server environment.
//
// With directory environments an environment is a directory tree under
// <codedir>/environments with an optional environment.conf. With config
// environments it is a section of puppet.conf, emitted as a fragment at
// order 40.
package env

import (
	"fmt"
	"path"
	"strings"

	"github.com/donaldgifford/puppetenv/internal/resource"
	tmpl "github.com/donaldgifford/puppetenv/internal/template"
)

// FragmentOrder is the position of environment sections within puppet.conf.
const FragmentOrder = 40

// Well-known names below the environments directory.
const (
	EnvironmentsDir     = "environments"
	CommonEnvironment   = "common"
	EnvironmentConfFile = "environment.conf"
	PuppetConfFile      = "puppet.conf"
)

// Definer turns environment parameters into resources.
type Definer struct {
	renderer *tmpl.Renderer
}

// NewDefiner creates a Definer with the embedded templates.
func NewDefiner() (*Definer, error) {
	r, err := tmpl.NewRenderer()
	if err != nil {
		return nil, err
	}

	return &Definer{renderer: r}, nil
}

// Define returns the resources for environment name. The result depends only
// on the arguments.
func (d *Definer) Define(name string, p Params, c Context) (*resource.Set, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	if c.Profile.CodeDir == "" || c.Profile.ConfDir == "" {
		return nil, fmt.Errorf("environment %s: platform profile has no codedir/confdir", name)
	}

	if err := p.Validate(c); err != nil {
		return nil, fmt.Errorf("environment %s: %w", name, err)
	}

	set := resource.NewSet()
	envDir := Dir(c.Profile.CodeDir, name)
	owner := c.owner()

	dirs := []string{envDir}
	if c.DirectoryEnvironments {
		dirs = append(dirs, path.Join(envDir, "manifests"))
	}

	dirs = append(dirs, path.Join(envDir, "modules"))

	for _, dir := range dirs {
		if err := set.Add(resource.Directory(dir, owner, c.Group)); err != nil {
			return nil, err
		}
	}

	var extra *resource.Resource

	var err error

	if c.DirectoryEnvironments {
		extra, err = d.environmentConf(name, p, c)
	} else {
		extra, err = d.section(name, p, c)
	}

	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", name, err)
	}

	if extra != nil {
		if err := set.Add(extra); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// environmentConf returns the environment.conf file, or nil when no setting is set.
func (d *Definer) environmentConf(name string, p Params, c Context) (*resource.Resource, error) {
	settings := DirectorySettings(p, c)
	if len(settings) == 0 {
		return nil, nil
	}

	content, err := d.renderer.EnvironmentConf(settings)
	if err != nil {
		return nil, err
	}

	confPath := path.Join(Dir(c.Profile.CodeDir, name), EnvironmentConfFile)

	return resource.File(confPath, c.owner(), c.Group, content), nil
}

// section returns the puppet.conf fragment for a config environment.
func (d *Definer) section(name string, p Params, c Context) (*resource.Resource, error) {
	content, err := d.renderer.Section(tmpl.SectionData{
		Name:      name,
		Settings:  SectionSettings(name, p, c),
		Separated: true,
	})
	if err != nil {
		return nil, err
	}

	target := path.Join(c.Profile.ConfDir, PuppetConfFile)

	return resource.Fragment(target, FragmentOrder, name, content), nil
}

// DirectorySettings returns the environment.conf lines in file order.
// Modulepath is only written when given explicitly.
func DirectorySettings(p Params, c Context) []tmpl.Setting {
	var settings []tmpl.Setting

	settings = appendString(settings, "manifest", p.Manifest)

	if paths, ok := p.ModulePath.Get(); ok && len(paths) > 0 {
		settings = append(settings, tmpl.Setting{Key: "modulepath", Value: strings.Join(paths, ":")})
	}

	settings = appendString(settings, "environment_timeout", p.EnvironmentTimeout)

	if v := p.configVersion(c); v != "" {
		settings = append(settings, tmpl.Setting{Key: "config_version", Value: v})
	}

	return settings
}

// SectionSettings returns the puppet.conf section lines for a config
// environment. Modulepath falls back to DefaultModulePath when unset.
func SectionSettings(name string, p Params, c Context) []tmpl.Setting {
	var settings []tmpl.Setting

	settings = appendString(settings, "manifest", p.Manifest)
	settings = appendString(settings, "manifestdir", p.ManifestDir)

	modulePath := p.ModulePath.Or(nil)
	if p.ModulePath.IsUnset() {
		modulePath = DefaultModulePath(c.Profile.CodeDir, c.Profile.ShareDir, name)
	}

	if len(modulePath) > 0 {
		settings = append(settings, tmpl.Setting{Key: "modulepath", Value: strings.Join(modulePath, ":")})
	}

	settings = appendString(settings, "templatedir", p.TemplateDir)
	settings = appendString(settings, "environment_timeout", p.EnvironmentTimeout)

	if v := p.configVersion(c); v != "" {
		settings = append(settings, tmpl.Setting{Key: "config_version", Value: v})
	}

	return settings
}

// DefaultModulePath is the environment's own modules, the shared common
// modules, the global modules and the packaged modules, in that order.
func DefaultModulePath(codeDir, shareDir, name string) []string {
	return []string{
		path.Join(Dir(codeDir, name), "modules"),
		Dir(codeDir, CommonEnvironment),
		path.Join(codeDir, "modules"),
		path.Join(shareDir, "modules"),
	}
}

// Dir returns the directory of environment name.
func Dir(codeDir, name string) string {
	return path.Join(codeDir, EnvironmentsDir, name)
}

func appendString(settings []tmpl.Setting, key string, o Optional[string]) []tmpl.Setting {
	if v, ok := o.Get(); ok && v != "" {
		return append(settings, tmpl.Setting{Key: key, Value: v})
	}

	return settings
}
