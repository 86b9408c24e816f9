package env

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/donaldgifford/puppetenv/internal/platform"
	"github.com/donaldgifford/puppetenv/internal/resource"
)

// Validation errors.
var (
	ErrInvalidName  = errors.New("invalid environment name")
	ErrInvalidParam = errors.New("invalid environment parameter")
)

// validName is the environment name rule enforced by the Puppet server.
var validName = regexp.MustCompile(`^[a-z0-9_]+$`)

// reservedNames are puppet.conf section names that cannot name an environment.
var reservedNames = map[string]bool{
	"main":   true,
	"master": true,
	"agent":  true,
	"user":   true,
}

// validTimeout accepts "unlimited" or a number of seconds with an optional unit.
var validTimeout = regexp.MustCompile(`^(unlimited|[0-9]+[smhdy]?)$`)

// Params are the per-environment settings. Every field is optional.
type Params struct {
	ConfigVersion      Optional[string]
	ModulePath         Optional[[]string]
	Manifest           Optional[string]
	EnvironmentTimeout Optional[string]

	// ManifestDir and TemplateDir are only valid with config environments.
	ManifestDir Optional[string]
	TemplateDir Optional[string]
}

// Context carries the server-wide settings shared by every environment.
type Context struct {
	Profile platform.Profile

	// DirectoryEnvironments selects one directory per environment with its own
	// environment.conf. When false, each environment is a puppet.conf section.
	DirectoryEnvironments bool

	// ServerConfigVersion is the default config_version for all environments.
	ServerConfigVersion string

	// Owner and Group own the managed directories. Owner defaults to "puppet".
	Owner string
	Group string
}

func (c Context) owner() string {
	if c.Owner == "" {
		return resource.DefaultOwner
	}

	return c.Owner
}

// ValidateName checks an environment name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidName, name, validName.String())
	}

	if reservedNames[name] {
		return fmt.Errorf("%w %q: reserved puppet.conf section name", ErrInvalidName, name)
	}

	return nil
}

// Validate checks params against the deployment mode of c.
func (p *Params) Validate(c Context) error {
	if v, ok := p.EnvironmentTimeout.Get(); ok && v != "" && !validTimeout.MatchString(v) {
		return fmt.Errorf("%w: environment_timeout %q must be \"unlimited\" or a duration like 3m", ErrInvalidParam, v)
	}

	if paths, ok := p.ModulePath.Get(); ok {
		for i, dir := range paths {
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("%w: modulepath[%d] is empty", ErrInvalidParam, i)
			}

			if strings.ContainsAny(dir, ":\n") {
				return fmt.Errorf("%w: modulepath[%d] %q must not contain ':' or newlines", ErrInvalidParam, i, dir)
			}
		}
	}

	if c.DirectoryEnvironments {
		if p.ManifestDir.IsSet() {
			return fmt.Errorf("%w: manifestdir is only supported with config environments", ErrInvalidParam)
		}

		if p.TemplateDir.IsSet() {
			return fmt.Errorf("%w: templatedir is only supported with config environments", ErrInvalidParam)
		}
	}

	return nil
}

// configVersion resolves config_version: the environment value wins, an
// explicit null suppresses the server default.
func (p *Params) configVersion(c Context) string {
	switch p.ConfigVersion.State() {
	case Set:
		return p.ConfigVersion.value
	case Null:
		return ""
	default:
		return c.ServerConfigVersion
	}
}
