package site

import (
	"io/fs"
	"sort"

	"github.com/donaldgifford/puppetenv/internal/concat"
	"github.com/donaldgifford/puppetenv/internal/resource"
)

// Path is a filesystem object the plan manages, with fragments already
// assembled into their target file.
type Path struct {
	Path    string
	Kind    resource.Kind
	Mode    fs.FileMode
	Owner   string
	Group   string
	Content []byte
}

// Paths flattens the plan into directories followed by files, each sorted by
// path so parents come before children. Fragment targets keep their existing
// ownership.
func (p *Plan) Paths() []Path {
	var dirs, files []Path

	for _, r := range p.Resources.OfKind(resource.KindDirectory) {
		dirs = append(dirs, Path{Path: r.Path, Kind: r.Kind, Mode: r.Mode, Owner: r.Owner, Group: r.Group})
	}

	for _, r := range p.Resources.OfKind(resource.KindFile) {
		files = append(files, Path{
			Path:    r.Path,
			Kind:    r.Kind,
			Mode:    r.Mode,
			Owner:   r.Owner,
			Group:   r.Group,
			Content: []byte(r.Content),
		})
	}

	for _, target := range p.Resources.Targets() {
		files = append(files, Path{
			Path:    target,
			Kind:    resource.KindFile,
			Mode:    resource.FileMode,
			Content: concat.Target(p.Resources, target),
		})
	}

	byPath := func(s []Path) {
		sort.Slice(s, func(i, j int) bool { return s[i].Path < s[j].Path })
	}
	byPath(dirs)
	byPath(files)

	return append(dirs, files...)
}
