package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/internal/model"
	"github.com/forgebuild/forge/internal/toolchain"
)

var (
	toolchainPreset   string
	toolchainCompiler string
	toolchainCxx      string
	toolchainArch     string
	toolchainStrategy string
	toolchainJSON     bool
)

var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Resolve and print the active compiler toolchain",
	Long: `Toolchain resolves a preset or explicit compiler override into a
fully identified compiler family, version, archiver, linker, and
build-backend strategy, activating the MSVC developer environment first
when the preset requires it.`,
	RunE: runToolchain,
}

func init() {
	toolchainCmd.Flags().StringVar(&toolchainPreset, "preset", "", "toolchain preset: msvc, llvm, apple-llvm, gcc (autodetected if empty)")
	toolchainCmd.Flags().StringVar(&toolchainCompiler, "cc", "", "override C compiler path")
	toolchainCmd.Flags().StringVar(&toolchainCxx, "cxx", "", "override C++ compiler path")
	toolchainCmd.Flags().StringVar(&toolchainArch, "arch", "", "target architecture (host if empty)")
	toolchainCmd.Flags().StringVar(&toolchainStrategy, "strategy", "", "backend strategy: Makefile, Ninja, Native")
	toolchainCmd.Flags().BoolVar(&toolchainJSON, "json", false, "print as JSON")
}

func runToolchain(cmd *cobra.Command, args []string) error {
	req, err := buildToolchainRequest(toolchainPreset, toolchainCompiler, toolchainCxx, toolchainArch, toolchainStrategy)
	if err != nil {
		return newCLIError("%w", err)
	}

	r := toolchain.NewResolver()
	desc, err := r.Resolve(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("resolving toolchain: %w", err)
	}
	defer r.EnvScope().Restore()

	if toolchainJSON {
		enc, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	fmt.Printf("type:      %s\n", desc.Type)
	fmt.Printf("version:   %s\n", desc.Version)
	fmt.Printf("cc:        %s\n", desc.CompilerC)
	fmt.Printf("cxx:       %s\n", desc.CompilerCpp)
	fmt.Printf("archiver:  %s\n", desc.Archiver)
	fmt.Printf("linker:    %s\n", desc.Linker)
	fmt.Printf("strategy:  %s\n", desc.Strategy)
	fmt.Printf("arch:      %s\n", desc.Architecture.TargetTriple)
	return nil
}

func buildToolchainRequest(preset, cc, cxx, arch, strategy string) (toolchain.Request, error) {
	req := toolchain.Request{
		Preset:              toolchain.Preset(preset),
		CompilerCOverride:   cc,
		CompilerCppOverride: cxx,
		Architecture:        arch,
	}
	switch model.BackendStrategy(strategy) {
	case "":
		req.Strategy = model.StrategyNative
	case model.StrategyMakefile, model.StrategyNinja, model.StrategyNative:
		req.Strategy = model.BackendStrategy(strategy)
	default:
		return toolchain.Request{}, fmt.Errorf("unknown backend strategy %q", strategy)
	}
	return req, nil
}
