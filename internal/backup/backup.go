// Package backup keeps a copy of files before they are replaced.
package backup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Strategy names how a replaced file is preserved.
type Strategy string

// Backup strategies.
const (
	None  Strategy = "none"
	Plain Strategy = "plain"
	Zstd  Strategy = "zstd"
	Xz    Strategy = "xz"
)

// ParseStrategy converts a config value to a Strategy. Empty means None.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", None:
		return None, nil
	case Plain, Zstd, Xz:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown backup strategy %q", s)
	}
}

// Extension returns the suffix appended to backup files.
func (s Strategy) Extension() string {
	switch s {
	case Zstd:
		return ".bak.zst"
	case Xz:
		return ".bak.xz"
	default:
		return ".bak"
	}
}

// Write stores content next to path as "<path>.<timestamp><ext>" and returns
// the backup path. It returns "" for None.
func Write(path string, content []byte, s Strategy, now time.Time) (string, error) {
	if s == None || s == "" {
		return "", nil
	}

	data, err := encode(content, s)
	if err != nil {
		return "", fmt.Errorf("compressing backup of %s: %w", path, err)
	}

	backupPath := path + "." + now.UTC().Format("20060102150405") + s.Extension()

	if err := os.MkdirAll(filepath.Dir(backupPath), 0o750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", backupPath, err)
	}

	return backupPath, nil
}

// Read returns the original content of a backup file.
func Read(backupPath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(backupPath))
	if err != nil {
		return nil, fmt.Errorf("reading backup %s: %w", backupPath, err)
	}

	switch filepath.Ext(backupPath) {
	case ".zst":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()

		return dec.DecodeAll(data, nil)
	case ".xz":
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening xz backup %s: %w", backupPath, err)
		}

		return io.ReadAll(r)
	default:
		return data, nil
	}
}

func encode(content []byte, s Strategy) ([]byte, error) {
	switch s {
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()

		return enc.EncodeAll(content, nil), nil
	case Xz:
		var buf bytes.Buffer

		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}

		if _, err := w.Write(content); err != nil {
			return nil, err
		}

		if err := w.Close(); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	default:
		return content, nil
	}
}
