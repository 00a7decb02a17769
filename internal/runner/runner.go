//go:build unix

// Package runner ties a tsout session together: it saves the invoking
// terminal's state, launches the child under two ptys, drives the
// multiplexed reader loop, and propagates the child's exit status.
package runner

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	clierrors "github.com/sean-/tsout/internal/errors"
	"github.com/sean-/tsout/internal/mux"
	"github.com/sean-/tsout/internal/prefix"
	"github.com/sean-/tsout/internal/ptyexec"
	"github.com/sean-/tsout/internal/terminal"
)

// exitFn is swapped out in tests so the interrupt path can be exercised
// without terminating the test process.
var exitFn = os.Exit

// Config is the resolved display configuration for one session.
type Config struct {
	Mode       prefix.Mode
	Color      bool
	Verbose    bool
	SpaceDelim bool

	// Stdout and Stderr are the real output streams. Nil means the
	// process's own.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes argv under tsout and returns the exit code the wrapper
// should exit with: the child's own status, or 1 if the session could not
// be set up. An interrupt exits the process directly with status 130.
func Run(cfg Config, argv []string) (int, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	// Terminal attributes are restored on every exit path, including the
	// interrupt path below. A nil state (stdin not a terminal) restores
	// as a no-op.
	saved, err := terminal.Save(int(os.Stdin.Fd()))
	if err != nil {
		slog.Debug("terminal state save failed", slog.String("error", err.Error()))
	}

	defer func() { _ = saved.Restore() }()

	child, err := ptyexec.Spawn(argv, cfg.Color)
	if err != nil {
		return clierrors.ExitGeneral, spawnError(argv[0], err)
	}

	start := time.Now()
	builder := prefix.NewBuilder(prefix.Config{
		Mode:       cfg.Mode,
		Start:      start,
		Color:      cfg.Color,
		Verbose:    cfg.Verbose,
		SpaceDelim: cfg.SpaceDelim,
	})

	stdoutCh := mux.NewFileChannel(prefix.Stdout, child.Stdout, cfg.Stdout)
	stderrCh := mux.NewFileChannel(prefix.Stderr, child.Stderr, cfg.Stderr)
	loop := mux.New(stdoutCh, stderrCh, builder, mux.NewSelectPoller(), nil)

	// An interrupt is a controlled teardown, not a crash: forward SIGTERM
	// to the child, put the terminal back, and exit 130 without draining.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}

		slog.Debug("interrupt received, forwarding to child",
			slog.String("signal", sig.String()),
			slog.Int("pid", child.PID()))

		_ = child.Signal(syscall.SIGTERM)
		_ = saved.Restore()
		exitFn(clierrors.ExitInterrupt)
	}()

	if err := loop.Run(); err != nil {
		_ = child.Signal(syscall.SIGTERM)
		child.Wait()

		return clierrors.ExitGeneral, clierrors.Wrap(clierrors.ExitGeneral, "readiness wait failed", err)
	}

	code := child.Wait()
	loop.Drain(time.Now())

	slog.Debug("child exited", slog.Int("code", code))

	return code, nil
}

// spawnError classifies a launch failure: a pty that could not be
// allocated is reported as such, anything else as the command failing to
// start.
func spawnError(command string, err error) *clierrors.CLIError {
	if errors.Is(err, ptyexec.ErrAllocate) {
		return clierrors.PTYAllocation(err)
	}

	return clierrors.SpawnFailed(command, err)
}
