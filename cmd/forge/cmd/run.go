package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/internal/driver"
	"github.com/forgebuild/forge/internal/forgepaths"
	"github.com/forgebuild/forge/internal/model"
)

var (
	runPlatform      string
	runConfiguration string
	runPreset        string
	runJobs          int
)

var runCmd = &cobra.Command{
	Use:   "run <file> [target]",
	Short: "Build and run an executable target",
	Long: `Run builds the project, then executes the named target — or, when
no target is given, the one whose run configuration is marked as the
primary runnable (falling back to the only executable target). The
target's configured run arguments are passed through, and its exit code
becomes forge's exit code.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPlatform, "platform", defaultPlatform(), "target platform: windows, macos, linux")
	runCmd.Flags().StringVar(&runConfiguration, "configuration", "Debug", "active configuration name")
	runCmd.Flags().StringVar(&runPreset, "preset", "", "toolchain preset: msvc, llvm, apple-llvm, gcc (autodetected if empty)")
	runCmd.Flags().IntVar(&runJobs, "jobs", 0, "max parallel jobs (0 = hardware concurrency)")
}

func runRun(cmd *cobra.Command, args []string) error {
	file := args[0]

	ws, diags, err := loadWorkspace(file, runPlatform, runConfiguration)
	printDiagnostics(diags)
	if err != nil {
		return newCLIError("%s: %w", file, err)
	}

	target, err := pickRunnable(ws, args[1:])
	if err != nil {
		return newCLIError("%w", err)
	}

	req, err := buildToolchainRequest(runPreset, "", "", "", "")
	if err != nil {
		return newCLIError("%w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := driver.New()
	tc, err := d.Resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}
	defer d.Resolver.EnvScope().Restore()

	if err := d.Build(ctx, driver.BuildRequest{
		Workspace:     ws,
		Platform:      model.Platform(runPlatform),
		Configuration: runConfiguration,
		Toolchain:     tc,
		MaxJobs:       runJobs,
		ColorTerminal: true,
		ExtraHashes:   extraHashes(file, tc),
	}); err != nil {
		return err
	}

	outDir := forgepaths.ConfigOutputDir(ws.WorkDir, runConfiguration)
	binary := filepath.Join(outDir, target.Source.OutputFileName(target.Name, model.Platform(runPlatform)))

	var runArgs []string
	if target.Source.Run != nil {
		runArgs = target.Source.Run.Args
	}
	child := exec.CommandContext(ctx, binary, runArgs...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Dir = ws.WorkDir
	child.WaitDelay = 5 * time.Second
	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return exitCodeError{code: exitErr.ExitCode(), err: err}
		}
		return err
	}
	return nil
}

// pickRunnable selects the target to execute: an explicit name, the
// primary runnable, or the sole executable target.
func pickRunnable(ws *model.Workspace, args []string) (*model.Target, error) {
	if len(args) == 1 {
		t, ok := ws.TargetByName(args[0])
		if !ok {
			return nil, fmt.Errorf("unknown target %q", args[0])
		}
		if !t.IsExecutable() {
			return nil, fmt.Errorf("target %q is not an executable", args[0])
		}
		return t, nil
	}

	var executables []*model.Target
	for i := range ws.Targets {
		t := &ws.Targets[i]
		if !t.IsExecutable() {
			continue
		}
		if t.Source.Run != nil && t.Source.Run.IsPrimaryRunnable {
			return t, nil
		}
		executables = append(executables, t)
	}
	if len(executables) == 1 {
		return executables[0], nil
	}
	if len(executables) == 0 {
		return nil, fmt.Errorf("workspace has no executable target")
	}
	return nil, fmt.Errorf("multiple executable targets; name one or mark a primary runnable")
}
