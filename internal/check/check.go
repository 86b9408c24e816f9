// Package check compares the managed paths on disk against the plan and the last applied state.
package check

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/donaldgifford/puppetenv/internal/resource"
	"github.com/donaldgifford/puppetenv/internal/site"
	"github.com/donaldgifford/puppetenv/internal/state"
)

// Opts configures the check operation.
type Opts struct {
	Plan *site.Plan
	// Root is prepended to every managed path.
	Root string
	// State is the last applied state. When nil, only disk and plan are compared.
	State *state.State
	// OutputFormat is "text" or "json".
	OutputFormat string
	// Writer is the output destination.
	Writer io.Writer
}

// PathStatus indicates the drift state of a managed path.
type PathStatus string

// Drift statuses.
const (
	StatusUpToDate        PathStatus = "up-to-date"
	StatusMissing         PathStatus = "missing"
	StatusModified        PathStatus = "modified"
	StatusModeMismatch    PathStatus = "mode-mismatch"
	StatusModifiedLocally PathStatus = "modified-locally"
	StatusUpstreamChanged PathStatus = "upstream-changed"
	StatusBothChanged     PathStatus = "both-changed"
)

// PathUpdate describes the drift state of one managed path.
type PathUpdate struct {
	Path   string        `json:"path"`
	Kind   resource.Kind `json:"kind"`
	Status PathStatus    `json:"status"`
}

// Result holds the comparison results in plan order.
type Result struct {
	Paths []PathUpdate `json:"paths"`
}

// Drifted reports whether any path is not up to date.
func (r *Result) Drifted() bool {
	for i := range r.Paths {
		if r.Paths[i].Status != StatusUpToDate {
			return true
		}
	}

	return false
}

// Run executes the check and renders the result to opts.Writer.
func Run(opts *Opts) (*Result, error) {
	result := &Result{}

	for _, p := range opts.Plan.Paths() {
		var entry *state.Entry
		if opts.State != nil {
			if e, ok := opts.State.Entries[p.Path]; ok {
				entry = &e
			}
		}

		status, err := checkPath(filepath.Join(opts.Root, filepath.FromSlash(p.Path)), &p, entry)
		if err != nil {
			return nil, err
		}

		result.Paths = append(result.Paths, PathUpdate{Path: p.Path, Kind: p.Kind, Status: status})
	}

	if opts.Writer == nil {
		return result, nil
	}

	return result, renderResult(opts.Writer, opts.OutputFormat, result)
}

// checkPath determines the status of one path. The applied entry, when
// present, separates local edits from plan changes.
func checkPath(hostPath string, p *site.Path, applied *state.Entry) (PathStatus, error) {
	info, err := os.Stat(hostPath)
	if os.IsNotExist(err) {
		return StatusMissing, nil
	}

	if err != nil {
		return "", fmt.Errorf("inspecting %s: %w", hostPath, err)
	}

	if p.Kind == resource.KindDirectory {
		switch {
		case !info.IsDir():
			return StatusModified, nil
		case info.Mode().Perm() != p.Mode:
			return StatusModeMismatch, nil
		default:
			return StatusUpToDate, nil
		}
	}

	if info.IsDir() {
		return StatusModified, nil
	}

	content, err := os.ReadFile(filepath.Clean(hostPath))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", hostPath, err)
	}

	currentHash := state.ContentHash(content)
	desiredHash := state.ContentHash(p.Content)

	if currentHash == desiredHash {
		if info.Mode().Perm() != p.Mode {
			return StatusModeMismatch, nil
		}

		return StatusUpToDate, nil
	}

	if applied == nil || applied.Hash == "" {
		return StatusModified, nil
	}

	localChanged := currentHash != applied.Hash
	upstreamChanged := desiredHash != applied.Hash

	switch {
	case localChanged && upstreamChanged:
		return StatusBothChanged, nil
	case localChanged:
		return StatusModifiedLocally, nil
	default:
		return StatusUpstreamChanged, nil
	}
}

func renderResult(w io.Writer, format string, result *Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(result)
	default:
		return renderText(w, result)
	}
}

func renderText(w io.Writer, result *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "PATH\tKIND\tSTATUS"); err != nil {
		return err
	}

	for i := range result.Paths {
		u := &result.Paths[i]
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Path, u.Kind, statusLabel(u.Status)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func statusLabel(s PathStatus) string {
	switch s {
	case StatusUpToDate:
		return "ok"
	case StatusMissing:
		return "MISSING"
	default:
		return string(s)
	}
}
