package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCLIErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *CLIError
		want string
	}{
		{
			name: "message only",
			err:  New(ExitGeneral, "launch failed"),
			want: "launch failed",
		},
		{
			name: "message with cause",
			err:  Wrap(ExitGeneral, "launch failed", fmt.Errorf("no such device")),
			want: "launch failed: no such device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(ExitGeneral, "wrapped", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestAs(t *testing.T) {
	var cliErr *CLIError

	wrapped := fmt.Errorf("outer: %w", New(ExitUsage, "inner"))
	if !As(wrapped, &cliErr) {
		t.Fatal("As should unwrap to CLIError")
	}

	if cliErr.Code != ExitUsage {
		t.Errorf("code = %d, want %d", cliErr.Code, ExitUsage)
	}
}

func TestConflictingTimestampFlags(t *testing.T) {
	err := ConflictingTimestampFlags()

	if err.Code != ExitUsage {
		t.Errorf("code = %d, want %d (ExitUsage)", err.Code, ExitUsage)
	}

	if !strings.Contains(err.Message, "-T") || !strings.Contains(err.Message, "-u") {
		t.Errorf("message = %q, want to name both flags", err.Message)
	}
}

func TestMissingCommand(t *testing.T) {
	err := MissingCommand()

	if err.Code != ExitGeneral {
		t.Errorf("code = %d, want %d (ExitGeneral)", err.Code, ExitGeneral)
	}

	if !strings.Contains(err.Hint, "tsout") {
		t.Errorf("hint = %q, want usage line", err.Hint)
	}
}

func TestSpawnFailed(t *testing.T) {
	err := SpawnFailed("nosuchbinary", errors.New("executable file not found in $PATH"))

	if err.Code != ExitGeneral {
		t.Errorf("code = %d, want %d", err.Code, ExitGeneral)
	}

	if !strings.Contains(err.Error(), "nosuchbinary") {
		t.Errorf("Error() = %q, want to contain command name", err.Error())
	}

	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error() = %q, want to contain cause", err.Error())
	}
}
