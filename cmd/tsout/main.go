// Package main is the entry point for the tsout CLI.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sean-/tsout/internal/buildinfo"
	"github.com/sean-/tsout/internal/config"
	clierrors "github.com/sean-/tsout/internal/errors"
	"github.com/sean-/tsout/internal/observability"
	"github.com/sean-/tsout/internal/output"
	"github.com/sean-/tsout/internal/prefix"
	"github.com/sean-/tsout/internal/runner"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	buildinfo.Version = version
	buildinfo.Commit = commit

	out := output.Default()

	exitCode := 0

	rootCmd := newRootCmd(out, &exitCode)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		return handleError(out, err)
	}

	return exitCode
}

// handleError formats and displays a CLI error, returning the appropriate
// exit code. CLIErrors carry their own code and hint; raw Cobra flag
// errors are treated as usage errors.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		return cliErr.Code
	}

	errStr := err.Error()

	// Safety net — flag errors are normally wrapped as CLIError by
	// SetFlagErrorFunc, but may still reach here.
	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") {
		out.Failure("%s", errStr)
		out.Info("Run 'tsout --help' for usage")

		return clierrors.ExitUsage
	}

	out.Failure("%s", errStr)

	return clierrors.ExitGeneral
}

func newRootCmd(out *output.Writer, exitCode *int) *cobra.Command {
	var (
		unixTimestamps bool
		utcTimestamps  bool
		verbose        bool
		noColor        bool
		spaceDelim     bool
	)

	rootCmd := &cobra.Command{
		Use:   "tsout [flags] [--] command [args...]",
		Short: "Timestamp stdout/stderr output with microsecond precision",
		Long: `tsout runs a command with each of its output streams attached to its own
pseudo-terminal, and prefixes every line with a high-precision timestamp.
stdout and stderr stay separate, keep their relative order, and partial
lines are shown as soon as they arrive.

Examples:
  tsout make test              Time since start (default)
  tsout -T curl example.com    Absolute Unix timestamps
  tsout -u -v -- sh -c 'ls'    UTC timestamps with stream ids`,
		Version:       buildinfo.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if unixTimestamps && utcTimestamps {
				return clierrors.ConflictingTimestampFlags()
			}

			if len(args) == 0 {
				_ = cmd.Help()
				return clierrors.MissingCommand()
			}

			cfg := config.Load()

			logger, cleanup, err := observability.NewLogger(&observability.Config{
				Level:     cfg.LogLevel(),
				Format:    cfg.LogFormat(),
				LogFile:   cfg.LogFile(),
				SessionID: uuid.NewString(),
				Version:   buildinfo.Version,
			})
			if err != nil {
				return clierrors.Wrap(clierrors.ExitUsage, "Invalid logging configuration", err).
					WithHint("Set TSOUT_LOG_LEVEL (error|warn|info|debug) and TSOUT_LOG_FORMAT (json|text)")
			}

			slog.SetDefault(logger)

			defer func() { _ = cleanup() }()

			if noColor {
				out.SetNoColor(true)
			}

			runCfg := runner.Config{
				Mode:       resolveMode(unixTimestamps, utcTimestamps, cfg.Timestamps()),
				Color:      out.Terminal().ColorEnabled() && cfg.Color(),
				Verbose:    verbose || cfg.Verbose(),
				SpaceDelim: spaceDelim || cfg.SpaceDelim(),
			}

			code, err := runner.Run(runCfg, args)
			if err != nil {
				return err
			}

			*exitCode = code

			return nil
		},
	}

	flags := rootCmd.Flags()

	// Everything after the first positional belongs to the child command.
	flags.SetInterspersed(false)

	flags.BoolVarP(&unixTimestamps, "unix", "T", false, "Show Unix timestamps")
	flags.BoolVarP(&utcTimestamps, "utc", "u", false, "Show UTC timestamps")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show file descriptor numbers")
	flags.BoolVarP(&noColor, "no-color", "C", false, "Disable color output")
	flags.BoolVarP(&spaceDelim, "space", "s", false, "Use space as delimiter")

	// Wrap Cobra's raw flag errors in CLIError so they get styled output
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.New(clierrors.ExitUsage, err.Error()).
			WithHint("Run 'tsout --help' for available flags")
	})

	return rootCmd
}

// resolveMode folds the two timestamp flags and the configured default
// into a display mode. Flags win over config.
func resolveMode(unixFlag, utcFlag bool, configured string) prefix.Mode {
	switch {
	case unixFlag:
		return prefix.ModeUnix
	case utcFlag:
		return prefix.ModeUTC
	}

	switch configured {
	case config.TimestampsUnix:
		return prefix.ModeUnix
	case config.TimestampsUTC:
		return prefix.ModeUTC
	default:
		return prefix.ModeRelative
	}
}
