// Package state records what puppetenv last applied so drift can be detected.
package state

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Version is the current state file schema version.
const Version = "v1"

// State is the content of the state file.
type State struct {
	Version   string           `yaml:"version"`
	Profile   string           `yaml:"profile"`
	AppliedAt time.Time        `yaml:"applied_at"`
	Entries   map[string]Entry `yaml:"entries"`
}

// Entry describes one applied path.
type Entry struct {
	Kind  string `yaml:"kind"`
	Mode  string `yaml:"mode"`
	Owner string `yaml:"owner,omitempty"`
	Hash  string `yaml:"hash,omitempty"`
}

// New returns an empty state.
func New() *State {
	return &State{Version: Version, Entries: map[string]Entry{}}
}

// Read loads a state file. A missing file yields an empty state.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}

		return nil, fmt.Errorf("reading state %s: %w", path, err)
	}

	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing state %s: %w", path, err)
	}

	if s.Version == "" {
		s.Version = Version
	}

	if s.Entries == nil {
		s.Entries = map[string]Entry{}
	}

	return &s, nil
}

// Write saves a state file, creating parent directories.
func Write(path string, s *State) error {
	if s.Version == "" {
		s.Version = Version
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing state %s: %w", path, err)
	}

	return nil
}

// Paths returns the recorded paths in sorted order.
func (s *State) Paths() []string {
	paths := make([]string, 0, len(s.Entries))
	for p := range s.Entries {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// ContentHash returns the hex BLAKE3 digest of content, prefixed with the algorithm.
func ContentHash(content []byte) string {
	sum := blake3.Sum256(content)

	return "blake3:" + hex.EncodeToString(sum[:])
}
