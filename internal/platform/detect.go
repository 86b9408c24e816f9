package platform

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultOSReleasePath is the standard location of the os-release file.
const DefaultOSReleasePath = "/etc/os-release"

// osFamilies maps os-release IDs to the family names used by the profile table.
var osFamilies = map[string]string{
	"rhel":      "RedHat",
	"centos":    "RedHat",
	"fedora":    "RedHat",
	"rocky":     "RedHat",
	"almalinux": "RedHat",
	"ol":        "RedHat",
	"debian":    "Debian",
	"ubuntu":    "Debian",
	"sles":      "Suse",
	"opensuse":  "Suse",
	"suse":      "Suse",
	"arch":      "Archlinux",
	"freebsd":   "FreeBSD",
}

// DetectFacts fills OS family and major release from an os-release file.
// The Puppet version is left empty; it must come from configuration.
func DetectFacts(osReleasePath string) (Facts, error) {
	if runtime.GOOS == "freebsd" {
		return Facts{OSFamily: "FreeBSD"}, nil
	}

	data, err := os.ReadFile(filepath.Clean(osReleasePath))
	if err != nil {
		return Facts{}, fmt.Errorf("reading %s: %w", osReleasePath, err)
	}

	return parseOSRelease(data)
}

// MergeFacts returns detected values for every field left empty in configured.
func MergeFacts(configured, detected Facts) Facts {
	if configured.OSFamily == "" {
		configured.OSFamily = detected.OSFamily
	}

	if configured.OSMajorRelease == "" {
		configured.OSMajorRelease = detected.OSMajorRelease
	}

	if configured.PuppetVersion == "" {
		configured.PuppetVersion = detected.PuppetVersion
	}

	return configured
}

func parseOSRelease(data []byte) (Facts, error) {
	fields := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		fields[key] = strings.Trim(value, `"'`)
	}

	if err := scanner.Err(); err != nil {
		return Facts{}, fmt.Errorf("scanning os-release: %w", err)
	}

	candidates := append([]string{fields["ID"]}, strings.Fields(fields["ID_LIKE"])...)

	var f Facts

	for _, id := range candidates {
		if family, ok := osFamilies[strings.ToLower(id)]; ok {
			f.OSFamily = family

			break
		}
	}

	if f.OSFamily == "" {
		return Facts{}, fmt.Errorf("%w: os-release ID %q", ErrUnsupportedPlatform, fields["ID"])
	}

	f.OSMajorRelease, _, _ = strings.Cut(fields["VERSION_ID"], ".")

	return f, nil
}
