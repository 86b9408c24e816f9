// Package platform resolves the Puppet directory layout for a host from its facts.
package platform

import (
	"errors"
	"fmt"
	"sort"

	version "github.com/hashicorp/go-version"
)

// ErrUnsupportedPlatform is returned when no profile matches the host facts.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Facts describes the host as reported by the fact-gathering layer.
type Facts struct {
	OSFamily       string `yaml:"os_family" json:"os_family"`
	OSMajorRelease string `yaml:"os_major_release" json:"os_major_release"`
	PuppetVersion  string `yaml:"puppet_version" json:"puppet_version"`
}

// Profile holds the root paths of one Puppet installation layout.
type Profile struct {
	Name     string `yaml:"name" json:"name"`
	CodeDir  string `yaml:"codedir" json:"codedir"`
	ConfDir  string `yaml:"confdir" json:"confdir"`
	LogDir   string `yaml:"logdir" json:"logdir"`
	RunDir   string `yaml:"rundir" json:"rundir"`
	SSLDir   string `yaml:"ssldir" json:"ssldir"`
	VarDir   string `yaml:"vardir" json:"vardir"`
	ShareDir string `yaml:"sharedir" json:"sharedir"`
}

// Profile names.
const (
	ProfileLegacy = "legacy"
	ProfileModern = "modern"
	ProfileBSD    = "bsd"
)

var profiles = map[string]Profile{
	ProfileLegacy: {
		Name:     ProfileLegacy,
		CodeDir:  "/etc/puppet",
		ConfDir:  "/etc/puppet",
		LogDir:   "/var/log/puppet",
		RunDir:   "/var/run/puppet",
		SSLDir:   "/var/lib/puppet/ssl",
		VarDir:   "/var/lib/puppet",
		ShareDir: "/usr/share/puppet",
	},
	ProfileModern: {
		Name:     ProfileModern,
		CodeDir:  "/etc/puppetlabs/code",
		ConfDir:  "/etc/puppetlabs/puppet",
		LogDir:   "/var/log/puppetlabs/puppet",
		RunDir:   "/var/run/puppetlabs",
		SSLDir:   "/etc/puppetlabs/puppet/ssl",
		VarDir:   "/opt/puppetlabs/puppet/cache",
		ShareDir: "/opt/puppetlabs/puppet",
	},
	ProfileBSD: {
		Name:     ProfileBSD,
		CodeDir:  "/usr/local/etc/puppet",
		ConfDir:  "/usr/local/etc/puppet",
		LogDir:   "/var/log/puppet",
		RunDir:   "/var/run/puppet",
		SSLDir:   "/var/puppet/ssl",
		VarDir:   "/var/puppet",
		ShareDir: "/usr/local/share/puppet",
	},
}

// bucket splits Puppet releases at the 4.0 packaging change.
type bucket string

const (
	bucketLegacy bucket = "puppet<4"
	bucketModern bucket = "puppet>=4"
)

type profileKey struct {
	family string
	bucket bucket
}

var profileTable = map[profileKey]string{
	{"RedHat", bucketLegacy}:    ProfileLegacy,
	{"RedHat", bucketModern}:    ProfileModern,
	{"Debian", bucketLegacy}:    ProfileLegacy,
	{"Debian", bucketModern}:    ProfileModern,
	{"Suse", bucketLegacy}:      ProfileLegacy,
	{"Suse", bucketModern}:      ProfileModern,
	{"Archlinux", bucketLegacy}: ProfileLegacy,
	{"Archlinux", bucketModern}: ProfileModern,
	{"FreeBSD", bucketLegacy}:   ProfileBSD,
	{"FreeBSD", bucketModern}:   ProfileBSD,
}

var modernCutoff = version.Must(version.NewVersion("4.0.0"))

// Resolve selects the profile for the given facts.
func Resolve(f Facts) (Profile, error) {
	if f.OSFamily == "" {
		return Profile{}, fmt.Errorf("%w: os family is required", ErrUnsupportedPlatform)
	}

	b, err := versionBucket(f.PuppetVersion)
	if err != nil {
		return Profile{}, err
	}

	name, ok := profileTable[profileKey{family: f.OSFamily, bucket: b}]
	if !ok {
		return Profile{}, fmt.Errorf("%w: os family %q with %s", ErrUnsupportedPlatform, f.OSFamily, b)
	}

	return profiles[name], nil
}

// Lookup returns a profile by name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown profile %q", ErrUnsupportedPlatform, name)
	}

	return p, nil
}

// Profiles returns all known profiles sorted by name.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Families returns the supported OS families sorted by name.
func Families() []string {
	seen := make(map[string]bool)
	for k := range profileTable {
		seen[k.family] = true
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}

	sort.Strings(out)

	return out
}

func versionBucket(raw string) (bucket, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: puppet version is required", ErrUnsupportedPlatform)
	}

	v, err := version.NewVersion(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parsing puppet version %q: %w", ErrUnsupportedPlatform, raw, err)
	}

	if v.LessThan(modernCutoff) {
		return bucketLegacy, nil
	}

	return bucketModern, nil
}
