package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hasheq/internal/trace"
	"hasheq/internal/version"
)

// errDiagnostics is returned after diagnostics with errors have been printed.
var errDiagnostics = errors.New("diagnostics reported errors")

// session holds what outlives a single command run.
type session struct {
	cleanup func()
	tracer  trace.Tracer
}

func (s *session) finish() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

func newRootCmd(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hasheq",
		Short: "Generate Equal and HashCode methods for Go value types",
		Long: `hasheq reads the structs of Go packages and writes Equal and HashCode
methods for every type that opts in with //hasheq:generate or uses the
include/ignore field markers.`,
		Version:       version.Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			stopProfiling, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			stopTracing, err := setupTracing(cmd)
			if err != nil {
				stopProfiling()
				return err
			}
			s.cleanup = func() {
				stopTracing()
				stopProfiling()
			}
			s.tracer = trace.FromContext(cmd.Context())
			return nil
		},
	}

	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "path to hasheq.toml (default: search upwards from the package)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
	return rootCmd
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	s := &session{}
	defer s.dumpTraceOnPanic(stderr)

	rootCmd := newRootCmd(s)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	// PersistentPostRun is not called when RunE fails
	s.finish()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDiagnostics):
		return 1
	default:
		fmt.Fprintf(stderr, "hasheq: %v\n", err)
		return 1
	}
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for output written to w.
func useColor(cmd *cobra.Command, w io.Writer) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(w), nil
	default:
		return false, fmt.Errorf("unknown color value %q (expected auto|on|off)", colorFlag)
	}
}
