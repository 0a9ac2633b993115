// Package cmd wires forge's pipeline stages into one cobra command per
// stage (validate, toolchain, build, run, graph), plus version.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/internal/model"
)

var version = "dev"

// SetVersion sets the version string, called from main with the
// ldflags-injected build version.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "JSON-driven native build orchestrator",
	Long: `forge turns a validated project description plus a resolved
compiler toolchain into correctly ordered, incrementally rebuilt
binaries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(versionCmd, validateCmd, toolchainCmd, buildCmd, runCmd, graphCmd)
}

// Execute runs the root command, printing a colored ERROR: line before
// returning the error for main to translate into an exit code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("ERROR: ")+err.Error())
	}
	return err
}

// cliError wraps a schema/CLI-input error so ExitCodeFor maps it to exit
// code 2 instead of the generic 1.
type cliError struct{ err error }

func (e cliError) Error() string { return e.err.Error() }
func (e cliError) Unwrap() error { return e.err }

func newCLIError(format string, args ...any) error {
	return cliError{err: fmt.Errorf(format, args...)}
}

// exitCodeError carries a child process's exit code through to main, so
// `forge run` exits with the target's own status.
type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string { return e.err.Error() }
func (e exitCodeError) Unwrap() error { return e.err }

// ExitCodeFor maps an error to one of the four exit codes: 0
// success, 1 generic failure, 2 invalid input, 130 cancelled by signal.
// Exit codes forwarded from a `forge run` child pass through verbatim.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	var forwarded exitCodeError
	if errors.As(err, &forwarded) {
		return forwarded.code
	}
	var cli cliError
	if errors.As(err, &cli) {
		return 2
	}
	return 1
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print forge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func printDiagnostics(diags model.Diagnostics) {
	for _, d := range diags {
		if d.Severity == model.SeverityError {
			fmt.Fprintln(os.Stderr, color.RedString("ERROR: ")+d.Error())
		} else {
			fmt.Fprintln(os.Stderr, color.YellowString("WARN: ")+d.Error())
		}
	}
}
