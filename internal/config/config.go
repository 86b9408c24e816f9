// Package config handles parsing and validation of puppetenv.yaml.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/puppetenv/internal/env"
	"github.com/donaldgifford/puppetenv/internal/platform"
)

// APIVersion is the only supported config schema version.
const APIVersion = "v1"

// Config is the root of puppetenv.yaml.
type Config struct {
	APIVersion   string         `yaml:"apiVersion"`
	Facts        platform.Facts `yaml:"facts"`
	Server       Server         `yaml:"server"`
	Environments []Environment  `yaml:"environments"`
	Apply        Apply          `yaml:"apply"`
}

// Server holds the settings shared by every environment.
type Server struct {
	// DirectoryEnvironments defaults to true.
	DirectoryEnvironments *bool  `yaml:"directory_environments"`
	ConfigVersion         string `yaml:"config_version"`
	User                  string `yaml:"user"`
	Group                 string `yaml:"group"`
	// ManagePuppetConf controls the [main] and [master] sections; defaults to true.
	ManagePuppetConf *bool `yaml:"manage_puppet_conf"`
}

// Apply configures how resources are written to disk.
type Apply struct {
	StateFile string `yaml:"state_file"`
	Backup    string `yaml:"backup"`
}

// UseDirectoryEnvironments reports the effective deployment mode.
func (s *Server) UseDirectoryEnvironments() bool {
	return s.DirectoryEnvironments == nil || *s.DirectoryEnvironments
}

// ShouldManagePuppetConf reports whether the site sections of puppet.conf are managed.
func (s *Server) ShouldManagePuppetConf() bool {
	return s.ManagePuppetConf == nil || *s.ManagePuppetConf
}

// Environment is one entry of the environments list.
//
// Optional keys distinguish "absent" from an explicit YAML null: a missing
// modulepath key keeps the default, "modulepath: ~" clears it.
type Environment struct {
	Name   string
	Params env.Params
}

// rawEnvironment captures each optional key as a node so explicit nulls survive decoding.
type rawEnvironment struct {
	Name               string    `yaml:"name"`
	ConfigVersion      yaml.Node `yaml:"config_version"`
	ModulePath         yaml.Node `yaml:"modulepath"`
	Manifest           yaml.Node `yaml:"manifest"`
	EnvironmentTimeout yaml.Node `yaml:"environment_timeout"`
	ManifestDir        yaml.Node `yaml:"manifestdir"`
	TemplateDir        yaml.Node `yaml:"templatedir"`
}

// UnmarshalYAML decodes an environment entry, keeping the tri-state of each option.
func (e *Environment) UnmarshalYAML(node *yaml.Node) error {
	var raw rawEnvironment
	if err := node.Decode(&raw); err != nil {
		return err
	}

	e.Name = raw.Name

	var err error

	options := []struct {
		key  string
		node *yaml.Node
		dst  *env.Optional[string]
	}{
		{"config_version", &raw.ConfigVersion, &e.Params.ConfigVersion},
		{"manifest", &raw.Manifest, &e.Params.Manifest},
		{"environment_timeout", &raw.EnvironmentTimeout, &e.Params.EnvironmentTimeout},
		{"manifestdir", &raw.ManifestDir, &e.Params.ManifestDir},
		{"templatedir", &raw.TemplateDir, &e.Params.TemplateDir},
	}

	for _, o := range options {
		if *o.dst, err = decodeOptional[string](o.node); err != nil {
			return fmt.Errorf("environment %q: %s: %w", raw.Name, o.key, err)
		}
	}

	if e.Params.ModulePath, err = decodeModulePath(&raw.ModulePath); err != nil {
		return fmt.Errorf("environment %q: modulepath: %w", raw.Name, err)
	}

	return nil
}

func decodeOptional[T any](n *yaml.Node) (env.Optional[T], error) {
	switch {
	case n.Kind == 0:
		return env.Optional[T]{}, nil
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null":
		return env.None[T](), nil
	}

	var v T
	if err := n.Decode(&v); err != nil {
		return env.Optional[T]{}, err
	}

	return env.Some(v), nil
}

// decodeModulePath also accepts a single colon-separated string.
func decodeModulePath(n *yaml.Node) (env.Optional[[]string], error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		var s string
		if err := n.Decode(&s); err != nil {
			return env.Optional[[]string]{}, err
		}

		return env.Some(splitPath(s)), nil
	}

	return decodeOptional[[]string](n)
}

func splitPath(s string) []string {
	var out []string

	for _, dir := range strings.Split(s, ":") {
		if dir != "" {
			out = append(out, dir)
		}
	}

	return out
}
