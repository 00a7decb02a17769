// Package terminal provides terminal detection and attribute restoration.
//
// This package handles:
//   - TTY detection for stdin/stdout
//   - NO_COLOR environment variable support
//   - Saving and unconditionally restoring terminal attributes
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Info holds terminal capability information.
type Info struct {
	IsTTY     bool
	NoColor   bool
	ForceFlag bool // Set when -C is used
}

// Detect returns terminal information for the current environment.
func Detect() *Info {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	// Check NO_COLOR environment variable (https://no-color.org/)
	_, noColor := os.LookupEnv("NO_COLOR")

	// Treat TERM=dumb as no-color (terminals that don't support escape sequences)
	if os.Getenv("TERM") == "dumb" {
		noColor = true
	}

	return &Info{
		IsTTY:   isTTY,
		NoColor: noColor,
	}
}

// ColorEnabled returns true if prefixes should carry color codes. Unlike a
// status UI, prefix color is not gated on the output being a TTY: piped
// output keeps its colors unless NO_COLOR, TERM=dumb, or -C says otherwise.
func (t *Info) ColorEnabled() bool {
	if t.ForceFlag {
		return false
	}

	return !t.NoColor
}

// SavedState is a snapshot of a terminal's attributes, taken before the
// child runs so they can be restored no matter what the child did to them.
type SavedState struct {
	fd    int
	state *term.State
}

// Save captures the attributes of fd if it is a terminal. Returns nil (and
// no error) when fd is not a terminal; Restore on a nil SavedState is a
// no-op, so callers can defer it unconditionally.
func Save(fd int) (*SavedState, error) {
	if !term.IsTerminal(fd) {
		return nil, nil
	}

	state, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}

	return &SavedState{fd: fd, state: state}, nil
}

// Restore puts the saved attributes back.
func (s *SavedState) Restore() error {
	if s == nil {
		return nil
	}

	return term.Restore(s.fd, s.state)
}
