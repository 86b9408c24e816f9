// Package apply converges the filesystem onto a computed plan.
package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/donaldgifford/puppetenv/internal/backup"
	"github.com/donaldgifford/puppetenv/internal/resource"
	"github.com/donaldgifford/puppetenv/internal/site"
	"github.com/donaldgifford/puppetenv/internal/state"
)

// ErrTypeConflict is returned when a managed path exists with the wrong type.
var ErrTypeConflict = errors.New("path exists with a different type")

// Opts configures an apply run.
type Opts struct {
	Plan *site.Plan

	// Root is prepended to every managed path. Empty means the real root.
	Root string

	// DryRun reports changes without touching the filesystem.
	DryRun bool

	// Backup controls how replaced files are preserved.
	Backup backup.Strategy

	// NoChown leaves ownership untouched even when running as root.
	NoChown bool

	// StateFile is where the applied state is recorded. Empty disables it.
	StateFile string

	Logger *slog.Logger

	// Now is used for backup names and the state timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Result lists the managed paths by outcome.
type Result struct {
	Created   []string
	Updated   []string
	Unchanged []string
	Backups   []string
	State     *state.State
}

// Changed reports whether the run created or updated anything.
func (r *Result) Changed() bool {
	return len(r.Created) > 0 || len(r.Updated) > 0
}

// Run applies every path of the plan in order. It stops at the first error.
func Run(ctx context.Context, opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	result := &Result{State: state.New()}
	result.State.Profile = opts.Plan.Profile.Name
	a := &applier{opts: opts, logger: logger, now: now, result: result}

	for _, p := range opts.Plan.Paths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		if p.Kind == resource.KindDirectory {
			err = a.directory(&p)
		} else {
			err = a.file(&p)
		}

		if err != nil {
			return nil, err
		}
	}

	if opts.DryRun || opts.StateFile == "" {
		return result, nil
	}

	result.State.AppliedAt = now().UTC()

	if err := state.Write(opts.StateFile, result.State); err != nil {
		return nil, fmt.Errorf("recording state: %w", err)
	}

	logger.Debug("recorded state", "path", opts.StateFile, "entries", len(result.State.Entries))

	return result, nil
}

type applier struct {
	opts   *Opts
	logger *slog.Logger
	now    func() time.Time
	result *Result
}

func (a *applier) hostPath(p string) string {
	return filepath.Join(a.opts.Root, filepath.FromSlash(p))
}

func (a *applier) directory(p *site.Path) error {
	dst := a.hostPath(p.Path)
	a.record(p, "")

	info, err := os.Stat(dst)
	switch {
	case os.IsNotExist(err):
		a.result.Created = append(a.result.Created, p.Path)
		if a.opts.DryRun {
			return nil
		}

		if err := os.MkdirAll(dst, p.Mode); err != nil {
			return fmt.Errorf("creating directory %s: %w", dst, err)
		}
	case err != nil:
		return fmt.Errorf("inspecting %s: %w", dst, err)
	case !info.IsDir():
		return fmt.Errorf("%s: %w", p.Path, ErrTypeConflict)
	case info.Mode().Perm() != p.Mode:
		a.result.Updated = append(a.result.Updated, p.Path)
		if a.opts.DryRun {
			return nil
		}
	default:
		a.result.Unchanged = append(a.result.Unchanged, p.Path)
	}

	// MkdirAll is subject to umask.
	if err := os.Chmod(dst, p.Mode); err != nil {
		return fmt.Errorf("setting mode of %s: %w", dst, err)
	}

	return a.chown(dst, p)
}

func (a *applier) file(p *site.Path) error {
	dst := a.hostPath(p.Path)
	a.record(p, state.ContentHash(p.Content))

	info, err := os.Stat(dst)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("inspecting %s: %w", dst, err)
	}

	if err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", p.Path, ErrTypeConflict)
	}

	exists := err == nil

	var existing []byte
	if exists {
		if existing, err = os.ReadFile(filepath.Clean(dst)); err != nil {
			return fmt.Errorf("reading %s: %w", dst, err)
		}
	}

	switch {
	case !exists:
		a.result.Created = append(a.result.Created, p.Path)
	case !bytes.Equal(existing, p.Content):
		a.result.Updated = append(a.result.Updated, p.Path)
	case info.Mode().Perm() != p.Mode:
		a.result.Updated = append(a.result.Updated, p.Path)
		if a.opts.DryRun {
			return nil
		}

		return a.finish(dst, p)
	default:
		a.result.Unchanged = append(a.result.Unchanged, p.Path)

		return a.chown(dst, p)
	}

	if a.opts.DryRun {
		return nil
	}

	if exists {
		backupPath, err := backup.Write(dst, existing, a.opts.Backup, a.now())
		if err != nil {
			return err
		}

		if backupPath != "" {
			a.result.Backups = append(a.result.Backups, backupPath)
			a.logger.Debug("backed up file", "path", dst, "backup", backupPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}

	if err := os.WriteFile(dst, p.Content, p.Mode); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}

	return a.finish(dst, p)
}

func (a *applier) finish(dst string, p *site.Path) error {
	if err := os.Chmod(dst, p.Mode); err != nil {
		return fmt.Errorf("setting mode of %s: %w", dst, err)
	}

	return a.chown(dst, p)
}

func (a *applier) chown(dst string, p *site.Path) error {
	if a.opts.NoChown || (p.Owner == "" && p.Group == "") {
		return nil
	}

	if os.Geteuid() != 0 {
		a.logger.Debug("not root, leaving ownership", "path", dst, "owner", p.Owner)

		return nil
	}

	uid, gid, err := lookupIDs(p.Owner, p.Group)
	if err != nil {
		return fmt.Errorf("resolving owner of %s: %w", p.Path, err)
	}

	if err := os.Lchown(dst, uid, gid); err != nil {
		return fmt.Errorf("setting owner of %s: %w", dst, err)
	}

	return nil
}

func (a *applier) record(p *site.Path, hash string) {
	a.result.State.Entries[p.Path] = state.Entry{
		Kind:  string(p.Kind),
		Mode:  fmt.Sprintf("%04o", p.Mode.Perm()),
		Owner: p.Owner,
		Hash:  hash,
	}
}
