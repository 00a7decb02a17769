//go:build unix

// Package ptyexec launches a child command with its stdout and stderr
// wired to two independent pseudo-terminal pairs.
//
// Giving each stream its own pty (rather than a pipe, or one shared pty)
// keeps the child's stdio line-buffered the way it would be on a real
// terminal, while still letting the parent tell the two streams apart.
package ptyexec

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// openPTY is swapped out in tests so Spawn can be exercised without
// allocating real pseudo-terminals.
var openPTY = pty.Open

// ErrAllocate marks a failed pseudo-terminal allocation, so callers can
// tell it apart from a command that would not start.
var ErrAllocate = errors.New("pty allocation")

// Child is a launched command plus the parent ends of its two ptys.
type Child struct {
	cmd *exec.Cmd

	// Stdout and Stderr are the parent (master) ends, non-blocking.
	Stdout *os.File
	Stderr *os.File
}

// Spawn allocates two pty pairs, starts argv with its output and error
// streams on the child ends, and returns the parent ends ready for a
// readiness-multiplexed reader.
//
// The child starts in its own session so terminal signals aimed at the
// wrapper do not reach it directly. When color is disabled the child sees
// TERM=dumb, which makes well-behaved programs drop their own ANSI output.
func Spawn(argv []string, colorEnabled bool) (*Child, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	outMaster, outSlave, err := openPTY()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pty: %w", ErrAllocate, err)
	}

	errMaster, errSlave, err := openPTY()
	if err != nil {
		_ = outMaster.Close()
		_ = outSlave.Close()

		return nil, fmt.Errorf("%w: stderr pty: %w", ErrAllocate, err)
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // wrapping arbitrary commands is the entire point
	cmd.Stdin = os.Stdin
	cmd.Stdout = outSlave
	cmd.Stderr = errSlave
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if !colorEnabled {
		cmd.Env = append(os.Environ(), "TERM=dumb")
	}

	if err := cmd.Start(); err != nil {
		_ = outMaster.Close()
		_ = outSlave.Close()
		_ = errMaster.Close()
		_ = errSlave.Close()

		return nil, err
	}

	// The child ends live on in the child process; the parent only needs
	// the masters, marked non-blocking so reads after a readiness wake
	// never stall.
	_ = outSlave.Close()
	_ = errSlave.Close()

	for _, f := range []*os.File{outMaster, errMaster} {
		if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
			slog.Debug("set nonblock failed", slog.String("error", err.Error()))
		}
	}

	slog.Debug("child started",
		slog.String("command", argv[0]),
		slog.Int("pid", cmd.Process.Pid))

	return &Child{
		cmd:    cmd,
		Stdout: outMaster,
		Stderr: errMaster,
	}, nil
}

// PID returns the child's process id.
func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Signal forwards sig to the child process.
func (c *Child) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

// Wait blocks until the child exits and returns its exit code. A child
// killed by a signal reports 128 plus the signal number, the shell
// convention; an unreadable status reports 1.
func (c *Child) Wait() int {
	err := c.cmd.Wait()
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}

		return exitErr.ExitCode()
	}

	slog.Debug("wait failed", slog.String("error", err.Error()))

	return 1
}

// Close releases the parent pty ends. Safe to call after the reader loop
// has already closed them.
func (c *Child) Close() {
	_ = c.Stdout.Close()
	_ = c.Stderr.Close()
}
