// Package resource models the desired-state resources computed for a Puppet server.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrDuplicateDeclaration is returned when two different resources share an ID.
var ErrDuplicateDeclaration = errors.New("duplicate declaration")

// Kind identifies the type of a desired resource.
type Kind string

// Resource kinds.
const (
	KindDirectory Kind = "directory"
	KindFile      Kind = "file"
	KindFragment  Kind = "fragment"
)

// Default ownership and permissions for managed paths.
const (
	DefaultOwner   = "puppet"
	DirectoryMode  = fs.FileMode(0o755)
	FileMode       = fs.FileMode(0o644)
	FragmentTarget = "puppet.conf"
)

// Resource is a single piece of desired state.
//
// Directories and files are identified by their absolute path. Fragments are
// identified by "<target basename>+<order>-<name>" and carry the file they are
// merged into as Target.
type Resource struct {
	Kind    Kind        `yaml:"kind" json:"kind"`
	ID      string      `yaml:"id" json:"id"`
	Path    string      `yaml:"path,omitempty" json:"path,omitempty"`
	Owner   string      `yaml:"owner,omitempty" json:"owner,omitempty"`
	Group   string      `yaml:"group,omitempty" json:"group,omitempty"`
	Mode    fs.FileMode `yaml:"-" json:"-"`
	Content string      `yaml:"content,omitempty" json:"content,omitempty"`
	Target  string      `yaml:"target,omitempty" json:"target,omitempty"`
	Order   int         `yaml:"order,omitempty" json:"order,omitempty"`
}

// Directory returns a directory resource.
func Directory(p, owner, group string) *Resource {
	return &Resource{
		Kind:  KindDirectory,
		ID:    p,
		Path:  p,
		Owner: owner,
		Group: group,
		Mode:  DirectoryMode,
	}
}

// File returns a regular file resource with the given content.
func File(p, owner, group, content string) *Resource {
	return &Resource{
		Kind:    KindFile,
		ID:      p,
		Path:    p,
		Owner:   owner,
		Group:   group,
		Mode:    FileMode,
		Content: content,
	}
}

// Fragment returns a fragment merged into target at the given order.
func Fragment(target string, order int, name, content string) *Resource {
	return &Resource{
		Kind:    KindFragment,
		ID:      FragmentID(target, order, name),
		Target:  target,
		Order:   order,
		Content: content,
	}
}

// FragmentID builds the identifier of a fragment, e.g. "puppet.conf+40-production".
func FragmentID(target string, order int, name string) string {
	return fmt.Sprintf("%s+%02d-%s", path.Base(target), order, name)
}

// ModeString returns the permission bits in the 4-digit octal form used by Puppet.
func (r *Resource) ModeString() string {
	if r.Kind == KindFragment {
		return ""
	}

	return fmt.Sprintf("%04o", r.Mode.Perm())
}

// Equal reports whether two resources declare the same state.
func (r *Resource) Equal(other *Resource) bool {
	return *r == *other
}

// MarshalYAML adds the octal mode to the encoded form.
func (r Resource) MarshalYAML() (any, error) {
	type plain Resource

	return struct {
		plain `yaml:",inline"`
		Mode  string `yaml:"mode,omitempty"`
	}{plain(r), r.ModeString()}, nil
}

// MarshalJSON adds the octal mode to the encoded form.
func (r Resource) MarshalJSON() ([]byte, error) {
	type plain Resource

	return json.Marshal(struct {
		plain
		Mode string `json:"mode,omitempty"`
	}{plain(r), r.ModeString()})
}
