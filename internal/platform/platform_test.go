package platform_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/puppetenv/internal/platform"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		facts    platform.Facts
		expected string
		codeDir  string
		shareDir string
	}{
		{
			name:     "redhat puppet 3",
			facts:    platform.Facts{OSFamily: "RedHat", OSMajorRelease: "7", PuppetVersion: "3.8.7"},
			expected: platform.ProfileLegacy,
			codeDir:  "/etc/puppet",
			shareDir: "/usr/share/puppet",
		},
		{
			name:     "debian puppet 4",
			facts:    platform.Facts{OSFamily: "Debian", OSMajorRelease: "8", PuppetVersion: "4.10.12"},
			expected: platform.ProfileModern,
			codeDir:  "/etc/puppetlabs/code",
			shareDir: "/opt/puppetlabs/puppet",
		},
		{
			name:     "release candidate stays legacy",
			facts:    platform.Facts{OSFamily: "Suse", PuppetVersion: "4.0.0-rc1"},
			expected: platform.ProfileLegacy,
			codeDir:  "/etc/puppet",
			shareDir: "/usr/share/puppet",
		},
		{
			name:     "freebsd overrides puppet 4",
			facts:    platform.Facts{OSFamily: "FreeBSD", OSMajorRelease: "10", PuppetVersion: "4.2.0"},
			expected: platform.ProfileBSD,
			codeDir:  "/usr/local/etc/puppet",
			shareDir: "/usr/local/share/puppet",
		},
		{
			name:     "freebsd puppet 3",
			facts:    platform.Facts{OSFamily: "FreeBSD", PuppetVersion: "3.7.0"},
			expected: platform.ProfileBSD,
			codeDir:  "/usr/local/etc/puppet",
			shareDir: "/usr/local/share/puppet",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := platform.Resolve(tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Name)
			assert.Equal(t, tt.codeDir, p.CodeDir)
			assert.Equal(t, tt.shareDir, p.ShareDir)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		facts   platform.Facts
		message string
	}{
		{"missing family", platform.Facts{PuppetVersion: "4.0.0"}, "os family is required"},
		{"unknown family", platform.Facts{OSFamily: "Solaris", PuppetVersion: "4.0.0"}, `os family "Solaris"`},
		{"missing version", platform.Facts{OSFamily: "RedHat"}, "puppet version is required"},
		{"bad version", platform.Facts{OSFamily: "RedHat", PuppetVersion: "four"}, "parsing puppet version"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := platform.Resolve(tt.facts)
			require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	p, err := platform.Lookup(platform.ProfileModern)
	require.NoError(t, err)
	assert.Equal(t, "/etc/puppetlabs/puppet", p.ConfDir)
	assert.Equal(t, "/var/log/puppetlabs/puppet", p.LogDir)

	_, err = platform.Lookup("solaris")
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
}

func TestProfiles_Sorted(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, 3)
	for _, p := range platform.Profiles() {
		p := p
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"bsd", "legacy", "modern"}, names)
	assert.Equal(t, []string{"Archlinux", "Debian", "FreeBSD", "RedHat", "Suse"}, platform.Families())
}

func TestDetectFacts(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "freebsd" {
		t.Skip("os-release is not consulted on FreeBSD")
	}

	tests := []struct {
		name    string
		content string
		family  string
		major   string
	}{
		{
			name:    "rocky via id",
			content: "NAME=\"Rocky Linux\"\nID=\"rocky\"\nID_LIKE=\"rhel centos fedora\"\nVERSION_ID=\"9.3\"\n",
			family:  "RedHat",
			major:   "9",
		},
		{
			name:    "mint via id_like",
			content: "ID=linuxmint\nID_LIKE=\"ubuntu debian\"\nVERSION_ID=\"21.2\"\n",
			family:  "Debian",
			major:   "21",
		},
		{
			name:    "comments and blanks",
			content: "# generated\n\nID=arch\n",
			family:  "Archlinux",
			major:   "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "os-release")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			f, err := platform.DetectFacts(path)
			require.NoError(t, err)
			assert.Equal(t, tt.family, f.OSFamily)
			assert.Equal(t, tt.major, f.OSMajorRelease)
			assert.Empty(t, f.PuppetVersion)
		})
	}
}

func TestDetectFacts_Unknown(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "freebsd" {
		t.Skip("os-release is not consulted on FreeBSD")
	}

	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte("ID=plan9\n"), 0o644))

	_, err := platform.DetectFacts(path)
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)

	_, err = platform.DetectFacts(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}

func TestMergeFacts(t *testing.T) {
	t.Parallel()

	merged := platform.MergeFacts(
		platform.Facts{PuppetVersion: "4.10.0", OSFamily: "Debian"},
		platform.Facts{OSFamily: "RedHat", OSMajorRelease: "7"},
	)

	assert.Equal(t, platform.Facts{OSFamily: "Debian", OSMajorRelease: "7", PuppetVersion: "4.10.0"}, merged)
}
