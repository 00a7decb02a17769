// Package prefix builds the timestamp prefixes prepended to each line of
// child output.
//
// A prefix is [color start][stream id + joiner][timestamp][delimiter][color
// reset], with the id and color parts optional. Building is a pure function
// of the display configuration and an instant, so the reader loop can stamp
// each batch of output with the moment it arrived.
package prefix

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Mode selects how an instant is rendered.
type Mode int

const (
	// ModeRelative renders seconds since session start (the default).
	ModeRelative Mode = iota
	// ModeUnix renders absolute seconds since the Unix epoch.
	ModeUnix
	// ModeUTC renders an absolute UTC wall-clock date-time.
	ModeUTC
)

// utcLayout is the fixed human-readable layout for ModeUTC.
const utcLayout = "2006-01-02 15:04:05.000000"

// Stream identifies which child output stream a line came from. The values
// are the child's file descriptor numbers, which is what -v displays.
type Stream int

const (
	Stdout Stream = 1
	Stderr Stream = 2
)

// String returns the conventional name of the stream.
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}

	return "stdout"
}

// Format renders t according to mode. All modes use microsecond precision
// with exactly six fractional digits.
func Format(t time.Time, mode Mode, start time.Time) string {
	switch mode {
	case ModeUTC:
		return t.UTC().Format(utcLayout)
	case ModeUnix:
		return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
	default:
		return strconv.FormatFloat(t.Sub(start).Seconds(), 'f', 6, 64)
	}
}

// Config is the display configuration, resolved once at startup and
// immutable for the life of the session.
type Config struct {
	Mode       Mode
	Start      time.Time // session start, used by ModeRelative
	Color      bool
	Verbose    bool // show the stream's fd number
	SpaceDelim bool // single space instead of ": " after the timestamp
}

// Builder builds prefixes for a fixed Config.
type Builder struct {
	cfg    Config
	stdout *color.Color
	stderr *color.Color
}

// NewBuilder returns a Builder for cfg. Colors are forced on at the
// instance level so the result depends only on cfg, never on whether the
// process itself is attached to a terminal.
func NewBuilder(cfg Config) *Builder {
	stdout := color.New(color.Bold, color.FgHiWhite)
	stderr := color.New(color.Bold, color.FgHiYellow)
	stdout.EnableColor()
	stderr.EnableColor()

	return &Builder{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
	}
}

// Build returns the prefix bytes for one line of output from stream s
// observed at instant t.
func (b *Builder) Build(s Stream, t time.Time) []byte {
	var sb strings.Builder

	if b.cfg.Verbose {
		sb.WriteString(strconv.Itoa(int(s)))

		if b.cfg.SpaceDelim {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte('@')
		}
	}

	sb.WriteString(Format(t, b.cfg.Mode, b.cfg.Start))

	if b.cfg.SpaceDelim {
		sb.WriteByte(' ')
	} else {
		sb.WriteString(": ")
	}

	if !b.cfg.Color {
		return []byte(sb.String())
	}

	return []byte(b.colorFor(s).Sprint(sb.String()))
}

func (b *Builder) colorFor(s Stream) *color.Color {
	if s == Stderr {
		return b.stderr
	}

	return b.stdout
}
