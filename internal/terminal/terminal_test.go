package terminal

import (
	"os"
	"testing"
)

func devNullFD(t *testing.T) int {
	t.Helper()

	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}

	t.Cleanup(func() { _ = f.Close() })

	return int(f.Fd())
}

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{
			name: "default on even without tty",
			info: Info{IsTTY: false},
			want: true,
		},
		{
			name: "no_color env disables",
			info: Info{IsTTY: true, NoColor: true},
			want: false,
		},
		{
			name: "force flag wins",
			info: Info{IsTTY: true, ForceFlag: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ColorEnabled(); got != tt.want {
				t.Errorf("ColorEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if info := Detect(); !info.NoColor {
		t.Error("Detect() should honor NO_COLOR")
	}
}

func TestDetectDumbTerm(t *testing.T) {
	t.Setenv("TERM", "dumb")

	if info := Detect(); !info.NoColor {
		t.Error("Detect() should treat TERM=dumb as no-color")
	}
}

func TestSaveNonTerminal(t *testing.T) {
	// A pipe is not a terminal; Save should decline without error and the
	// nil state's Restore should be a no-op.
	state, err := Save(devNullFD(t))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if state != nil {
		t.Fatal("Save() on a non-terminal should return nil state")
	}

	if err := state.Restore(); err != nil {
		t.Errorf("Restore() on nil state = %v, want nil", err)
	}
}
