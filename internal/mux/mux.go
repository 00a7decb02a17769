// Package mux implements the multiplexed reader and line assembler at the
// heart of tsout.
//
// A single loop waits for readability across both child output channels,
// reads whatever is available without blocking, splits it into complete
// lines plus a trailing partial line, and writes each line to the real
// output stream behind a freshly built timestamp prefix. Partial lines are
// flushed immediately and marked in progress so their continuation is never
// prefixed twice.
//
// The readiness wait is abstracted behind Poller and each channel's read
// behind a function field, so tests drive the loop with synthetic byte
// sequences and scripted wake-ups instead of real descriptors.
package mux

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sean-/tsout/internal/prefix"
)

// ReadChunk is the maximum number of bytes consumed from a channel per
// readiness wake.
const ReadChunk = 4096

// State tracks a channel through its lifecycle.
type State int

const (
	// StateOpen means the descriptor is in the wait set.
	StateOpen State = iota
	// StateHalfClosed means EOF was seen and the descriptor released, but
	// the final drain has not run yet.
	StateHalfClosed
	// StateClosed means the channel is fully finished.
	StateClosed
)

// Channel is one child output stream: a readable endpoint, the real output
// stream it forwards to, and the line-assembly state carried across reads.
type Channel struct {
	kind  prefix.Stream
	fd    int
	out   io.Writer
	state State

	buf            []byte
	lineInProgress bool

	readFn  func(p []byte) (int, error)
	closeFn func() error
}

// NewFileChannel builds a channel over a file whose descriptor has been
// marked non-blocking. The file is closed when the channel sees EOF.
func NewFileChannel(kind prefix.Stream, f *os.File, out io.Writer) *Channel {
	fd := int(f.Fd())

	return &Channel{
		kind:    kind,
		fd:      fd,
		out:     out,
		readFn:  func(p []byte) (int, error) { return unix.Read(fd, p) },
		closeFn: f.Close,
	}
}

// NewSyntheticChannel builds a channel whose reads come from readFn instead
// of a descriptor. fd only has to be unique within the loop's wait set.
func NewSyntheticChannel(kind prefix.Stream, fd int, out io.Writer, readFn func(p []byte) (int, error)) *Channel {
	return &Channel{
		kind:    kind,
		fd:      fd,
		out:     out,
		readFn:  readFn,
		closeFn: func() error { return nil },
	}
}

// State returns the channel's lifecycle state.
func (c *Channel) State() State { return c.state }

func (c *Channel) close() {
	if c.state != StateOpen {
		return
	}

	c.state = StateHalfClosed

	if err := c.closeFn(); err != nil {
		slog.Debug("channel close failed",
			slog.String("stream", c.kind.String()),
			slog.String("error", err.Error()))
	}
}

// Poller waits for readability on a set of descriptors. Wait blocks with no
// timeout and returns the readable subset; it must not consume any data.
type Poller interface {
	Wait(fds []int) ([]int, error)
}

// Loop runs the multiplexed read loop over both channels.
type Loop struct {
	// channels in emission-priority order: stderr before stdout, so that
	// when one wake reports both ready, error output surfaces first.
	channels []*Channel
	poller   Poller
	builder  *prefix.Builder
	now      func() time.Time
	readBuf  []byte
}

// New builds a loop over the two channels. Emission priority within a
// single readiness wake is stderr first, regardless of argument order.
func New(stdout, stderr *Channel, builder *prefix.Builder, poller Poller, now func() time.Time) *Loop {
	if now == nil {
		now = time.Now
	}

	return &Loop{
		channels: []*Channel{stderr, stdout},
		poller:   poller,
		builder:  builder,
		now:      now,
		readBuf:  make([]byte, ReadChunk),
	}
}

// Run services both channels until each has reported end-of-stream. Only
// the readiness wait blocks; reads never do.
func (l *Loop) Run() error {
	for {
		fds := make([]int, 0, len(l.channels))

		for _, ch := range l.channels {
			if ch.state == StateOpen {
				fds = append(fds, ch.fd)
			}
		}

		if len(fds) == 0 {
			return nil
		}

		ready, err := l.poller.Wait(fds)
		if err != nil {
			return err
		}

		for _, ch := range l.channels {
			if ch.state == StateOpen && containsFD(ready, ch.fd) {
				l.service(ch)
			}
		}
	}
}

// service performs one non-blocking read on ch and emits the result.
func (l *Loop) service(ch *Channel) {
	n, err := ch.readFn(l.readBuf)

	if err == unix.EAGAIN || err == unix.EINTR {
		// Spurious wake; the data will be back on the next one.
		return
	}

	if err != nil || n == 0 {
		// EOF and read errors both terminate the channel. A pty master
		// reports EIO once the child's side is gone, so this is the
		// normal end of a stream, not a failure.
		if err != nil && err != io.EOF {
			slog.Debug("channel read error treated as end of stream",
				slog.String("stream", ch.kind.String()),
				slog.String("error", err.Error()))
		}

		ch.close()

		return
	}

	ch.buf = append(ch.buf, l.readBuf[:n]...)
	l.emit(ch, l.now())
}

// emit splits ch's accumulated bytes into lines and writes them out. The
// same batch timestamp stamps every line delivered by one read.
func (l *Loop) emit(ch *Channel, now time.Time) {
	pfx := l.builder.Build(ch.kind, now)

	lines := bytes.Split(ch.buf, []byte{'\n'})
	complete := lines[:len(lines)-1]
	partial := lines[len(lines)-1]

	for _, line := range complete {
		if !ch.lineInProgress {
			l.write(ch, pfx)
		}

		l.write(ch, line)
		l.write(ch, []byte{'\n'})
		ch.lineInProgress = false
	}

	if len(partial) > 0 {
		// Flush the partial line now so it shows up on the terminal
		// immediately; the continuation must not be prefixed again.
		if !ch.lineInProgress {
			l.write(ch, pfx)
		}

		l.write(ch, partial)
		ch.lineInProgress = true
	}

	ch.buf = ch.buf[:0]
}

// Drain flushes any bytes still held by a channel after the loop has
// finished, stderr first for consistency with the in-loop tie-break. The
// final flush is always newline terminated.
func (l *Loop) Drain(now time.Time) {
	for _, ch := range l.channels {
		if len(ch.buf) > 0 {
			if !ch.lineInProgress {
				l.write(ch, l.builder.Build(ch.kind, now))
			}

			l.write(ch, ch.buf)
			l.write(ch, []byte{'\n'})
			ch.buf = ch.buf[:0]
			ch.lineInProgress = false
		}

		ch.state = StateClosed
	}
}

// write forwards bytes to the channel's real output stream. Write failures
// on the wrapper's own stdout/stderr are not recoverable mid-stream, so
// they are logged and otherwise ignored.
func (l *Loop) write(ch *Channel, p []byte) {
	if _, err := ch.out.Write(p); err != nil {
		slog.Debug("output write failed",
			slog.String("stream", ch.kind.String()),
			slog.String("error", err.Error()))
	}
}

func containsFD(fds []int, fd int) bool {
	for _, f := range fds {
		if f == fd {
			return true
		}
	}

	return false
}
