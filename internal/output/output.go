// Package output provides the CLI's own user-facing output.
//
// This is the wrapper's voice (usage errors, hints), kept separate from
// the child's prefixed output stream, and testable via io.Writer
// injection.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/sean-/tsout/internal/terminal"
)

// Status symbols
const (
	XMark    = "✗" // ✗
	InfoMark = "ℹ" // ℹ
)

// Writer handles CLI output.
type Writer struct {
	Out io.Writer
	Err io.Writer

	terminal *terminal.Info

	errorColor *color.Color
	infoColor  *color.Color
}

// Default returns a Writer configured for stdout/stderr.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter creates a Writer with custom writers and terminal info.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:        out,
		Err:        err,
		terminal:   term,
		errorColor: color.New(color.FgRed),
		infoColor:  color.New(color.FgCyan),
	}

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// Terminal returns the terminal info.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// SetNoColor disables colored output.
func (w *Writer) SetNoColor(disabled bool) {
	w.terminal.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

func (w *Writer) writeStatus(writer io.Writer, tone *color.Color, mark, message string) {
	if w.terminal.ColorEnabled() {
		tone.Fprint(writer, mark+" ")
		fmt.Fprintln(writer, message)
	} else {
		fmt.Fprintln(writer, mark+" "+message)
	}
}

// Failure writes an error message with an X mark.
func (w *Writer) Failure(format string, args ...interface{}) {
	w.writeStatus(w.Err, w.errorColor, XMark, fmt.Sprintf(format, args...))
}

// Info writes an info message.
func (w *Writer) Info(format string, args ...interface{}) {
	w.writeStatus(w.Err, w.infoColor, InfoMark, fmt.Sprintf(format, args...))
}
