//go:build unix

package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sean-/tsout/internal/ansi"
	clierrors "github.com/sean-/tsout/internal/errors"
	"github.com/sean-/tsout/internal/prefix"
	"github.com/sean-/tsout/internal/ptyexec"
)

var relativeLine = regexp.MustCompile(`^\d+\.\d{6}: `)

func TestRunSingleStdoutLine(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Mode: prefix.ModeRelative, Stdout: &out, Stderr: &errOut},
		[]string{"sh", "-c", "echo hello"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	// The pty's line discipline turns \n into \r\n on the way through.
	got := strings.ReplaceAll(out.String(), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	if len(lines) != 1 {
		t.Fatalf("stdout lines = %d (%q), want 1", len(lines), got)
	}

	if !relativeLine.MatchString(lines[0]) || !strings.HasSuffix(lines[0], "hello") {
		t.Errorf("line = %q, want prefixed 'hello'", lines[0])
	}

	if errOut.Len() != 0 {
		t.Errorf("stderr = %q, want empty", errOut.String())
	}
}

func TestRunStderrGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Mode: prefix.ModeRelative, Verbose: true, SpaceDelim: true, Stdout: &out, Stderr: &errOut},
		[]string{"sh", "-c", "echo oops 1>&2"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	got := strings.ReplaceAll(errOut.String(), "\r\n", "\n")
	if !regexp.MustCompile(`^2 \d+\.\d{6} oops\n$`).MatchString(got) {
		t.Errorf("stderr = %q, want '2 <timestamp> oops'", got)
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Mode: prefix.ModeRelative, Stdout: &out, Stderr: &errOut},
		[]string{"sh", "-c", "exit 3"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestRunColorPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Mode: prefix.ModeRelative, Color: true, Stdout: &out, Stderr: &errOut},
		[]string{"sh", "-c", "echo tinted"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	if !strings.Contains(out.String(), "\x1b[1;97m") {
		t.Errorf("stdout = %q, want bold bright white prefix", out.String())
	}

	stripped := strings.ReplaceAll(ansi.Strip(out.String()), "\r\n", "\n")
	if !relativeLine.MatchString(stripped) || !strings.Contains(stripped, "tinted") {
		t.Errorf("stripped output = %q, want prefixed 'tinted'", stripped)
	}
}

func TestRunMultiLineKeepsOrder(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Mode: prefix.ModeRelative, Stdout: &out, Stderr: &errOut},
		[]string{"sh", "-c", "echo one; echo two; echo three"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	got := strings.ReplaceAll(out.String(), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("stdout lines = %d (%q), want 3", len(lines), got)
	}

	for i, want := range []string{"one", "two", "three"} {
		if !relativeLine.MatchString(lines[i]) || !strings.HasSuffix(lines[i], want) {
			t.Errorf("line %d = %q, want prefixed %q", i, lines[i], want)
		}
	}
}

// lockedBuffer lets the test goroutine read output while the session
// goroutine is still writing it.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.b.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", what)
}

func TestRunInterruptForwardsTermAndExits130(t *testing.T) {
	exitCodes := make(chan int, 1)

	orig := exitFn
	exitFn = func(code int) { exitCodes <- code }

	t.Cleanup(func() { exitFn = orig })

	var out, errOut lockedBuffer

	done := make(chan int, 1)

	go func() {
		// The background sleep keeps the session alive; it writes to
		// /dev/null so the pty masters see EOF as soon as the shell's
		// trap fires.
		code, _ := Run(Config{Mode: prefix.ModeRelative, Stdout: &out, Stderr: &errOut},
			[]string{"sh", "-c", `trap 'echo got-term; exit 0' TERM; echo ready; sleep 5 >/dev/null 2>&1 & wait`})
		done <- code
	}()

	waitFor(t, "child startup", func() bool { return strings.Contains(out.String(), "ready") })

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send SIGINT: %v", err)
	}

	select {
	case code := <-exitCodes:
		if code != clierrors.ExitInterrupt {
			t.Errorf("interrupt exit code = %d, want %d", code, clierrors.ExitInterrupt)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("interrupt handler never ran")
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("session never finished after the forwarded SIGTERM")
	}

	if !strings.Contains(out.String(), "got-term") {
		t.Errorf("stdout = %q, want evidence the child received SIGTERM", out.String())
	}
}

func TestSpawnErrorClassification(t *testing.T) {
	allocErr := fmt.Errorf("%w: stdout pty: %w", ptyexec.ErrAllocate, errors.New("out of ptys"))

	if got := spawnError("true", allocErr); got.Code != clierrors.ExitGeneral ||
		!strings.Contains(got.Message, "pseudo-terminal") {
		t.Errorf("spawnError(alloc) = %+v, want pty allocation failure", got)
	}

	startErr := errors.New("executable file not found in $PATH")
	if got := spawnError("nosuchbinary", startErr); got.Code != clierrors.ExitGeneral ||
		!strings.Contains(got.Message, "nosuchbinary") {
		t.Errorf("spawnError(start) = %+v, want start failure naming the command", got)
	}
}

func TestRunMissingCommand(t *testing.T) {
	var out, errOut bytes.Buffer

	code, err := Run(Config{Stdout: &out, Stderr: &errOut},
		[]string{"/nonexistent/tsout-test-binary"})
	if err == nil {
		t.Fatal("Run() should fail for an unstartable command")
	}

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
