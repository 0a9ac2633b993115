package cmd

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/internal/cache"
	"github.com/forgebuild/forge/internal/driver"
	"github.com/forgebuild/forge/internal/model"
	"github.com/forgebuild/forge/internal/schema"
	"github.com/forgebuild/forge/internal/toolchain"
)

var (
	buildPlatform      string
	buildConfiguration string
	buildPreset        string
	buildStrategy      string
	buildJobs          int
	buildTimeout       time.Duration
	buildColor         bool
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Validate, resolve a toolchain, and build",
	Long: `Build runs the full pipeline: load and validate the project
description, resolve the compiler toolchain, linearize the target graph,
and drive the strategy-appropriate backend with incremental caching.

An interrupt (SIGINT) or termination (SIGTERM) signal cancels the build
in flight; forge exits 130 once in-flight subprocesses have been killed
and cleaned up.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildPlatform, "platform", defaultPlatform(), "target platform: windows, macos, linux")
	buildCmd.Flags().StringVar(&buildConfiguration, "configuration", "Debug", "active configuration name")
	buildCmd.Flags().StringVar(&buildPreset, "preset", "", "toolchain preset: msvc, llvm, apple-llvm, gcc (autodetected if empty)")
	buildCmd.Flags().StringVar(&buildStrategy, "strategy", "Native", "backend strategy: Makefile, Ninja, Native")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", runtime.NumCPU(), "max parallel jobs")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 0, "overall build timeout (0 disables)")
	buildCmd.Flags().BoolVar(&buildColor, "color", true, "colorize backend output")
}

func runBuild(cmd *cobra.Command, args []string) error {
	file := args[0]

	ws, diags, err := loadWorkspace(file, buildPlatform, buildConfiguration)
	printDiagnostics(diags)
	if err != nil {
		return newCLIError("%s: %w", file, err)
	}

	req, err := buildToolchainRequest(buildPreset, "", "", "", buildStrategy)
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

	buildReq := driver.BuildRequest{
		Workspace:     ws,
		Platform:      model.Platform(buildPlatform),
		Configuration: buildConfiguration,
		Toolchain:     tc,
		MaxJobs:       buildJobs,
		GlobalTimeout: buildTimeout,
		ColorTerminal: buildColor,
		ExtraHashes:   extraHashes(file, tc),
	}

	if err := d.Build(ctx, buildReq); err != nil {
		return err
	}
	return nil
}

// extraHashes folds the auxiliary validation inputs into every cache
// entry: the project description itself, the embedded schema it was
// validated against, and the supported-flag probe file. A change to any
// of them invalidates all targets, since the description can change
// target membership globally.
func extraHashes(descriptionFile string, tc model.ToolchainDescriptor) map[string]string {
	out := make(map[string]string, 3)
	if h, err := cache.HashFile(descriptionFile); err == nil {
		out["description"] = h
	}
	if schemaBytes, err := schema.EmbeddedSchema(); err == nil {
		out["schema"] = cache.HashStrings(string(schemaBytes))
	}
	if h, err := cache.HashFile(toolchain.FlagCachePath(tc)); err == nil {
		out["flagProbe"] = h
	}
	return out
}
