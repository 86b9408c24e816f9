// Package ui renders puppetenv's human-facing output.
package ui

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// Action is what apply did, or would do, to a managed path.
type Action string

// Path actions.
const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
)

// Writer writes styled messages to stdout and stderr. Color is dropped when
// disabled or when NO_COLOR is set.
type Writer struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// NewWriter creates a Writer that writes to stdout/stderr.
func NewWriter(noColor bool) *Writer {
	return &Writer{
		out:     os.Stdout,
		errOut:  os.Stderr,
		noColor: noColor || os.Getenv("NO_COLOR") != "",
	}
}

// NewWriterWithOutputs creates a Writer with custom output destinations.
func NewWriterWithOutputs(out, errOut io.Writer, noColor bool) *Writer {
	return &Writer{
		out:     out,
		errOut:  errOut,
		noColor: noColor,
	}
}

// Out is the plain stdout stream, for tables and encoded documents.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Success prints a message with a green checkmark.
func (w *Writer) Success(msg string) {
	writeLine(w.out, w.styled(colorGreen, "✓"), msg)
}

// Warning prints a message to stderr with a yellow prefix.
func (w *Writer) Warning(msg string) {
	writeLine(w.errOut, w.styled(colorYellow, "warning:"), msg)
}

// Error prints a message to stderr with a red prefix.
func (w *Writer) Error(msg string) {
	writeLine(w.errOut, w.styled(colorRed, "error:"), msg)
}

// Info prints a message with a cyan prefix.
func (w *Writer) Info(msg string) {
	writeLine(w.out, w.styled(colorCyan, "info:"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Infof prints a formatted informational message.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

// Change prints one path with a marker for its action: "+" created,
// "~" updated, "=" unchanged.
func (w *Writer) Change(action Action, path string) {
	var marker string

	switch action {
	case ActionCreate:
		marker = w.styled(colorGreen, "+")
	case ActionUpdate:
		marker = w.styled(colorYellow, "~")
	default:
		marker = w.styled(colorDim, "=")
	}

	writeLine(w.out, marker, path)
}

func (w *Writer) styled(color, text string) string {
	if w.noColor {
		return text
	}

	return color + text + colorReset
}

func writeLine(out io.Writer, prefix, msg string) {
	if _, err := fmt.Fprintf(out, "%s %s\n", prefix, msg); err != nil {
		return
	}
}
