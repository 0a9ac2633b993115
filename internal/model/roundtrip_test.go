package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// The typed model must survive a JSON round trip unchanged, so cached
// state and external consumers can re-hydrate it faithfully.
func TestWorkspace_JSONRoundTrip(t *testing.T) {
	rtti := false
	ws := &Workspace{
		Name:    "Demo",
		Version: "1.0",
		WorkDir: "/work",
		Configurations: map[string]BuildConfiguration{
			"Release": {Name: "Release", OptimizationLevel: Opt3, StripSymbols: true},
		},
		Targets: []Target{
			{
				Name: "core",
				Kind: TargetSource,
				Source: &SourceTarget{
					Kind:              SourceSharedLibrary,
					Language:          LanguageCpp,
					Standard:          "17",
					Locations:         []string{"src"},
					IncludeDirs:       []string{"include"},
					Defines:           []string{"CORE=1"},
					WarningPreset:     WarningStrict,
					PrecompiledHeader: "src/pch.hpp",
					RTTI:              &rtti,
					ThreadModel:       ThreadModelPosix,
					Run:               &RunConfig{Args: []string{"-v"}, IsPrimaryRunnable: true},
				},
				Condition: Condition{OnlyInPlatform: []Platform{PlatformLinux}},
			},
			{
				Name:   "gen",
				Kind:   TargetScript,
				Script: &ScriptTarget{Path: "tools/gen.py", Interpreter: InterpreterPython, Args: []string{"--fast"}},
			},
		},
		Distribution: []DistributionItem{
			{Name: "bundle", Kind: DistributionBundle, Bundle: &BundleItem{MainProject: "core"}},
		},
		ExternalDeps: []ExternalDependency{{Name: "fmt", Repo: "https://example.com/fmt.git", Ref: "10.0.0"}},
	}

	data, err := json.Marshal(ws)
	require.NoError(t, err)

	var back Workspace
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, *ws, back)
}

func TestToolchainDescriptor_JSONRoundTrip(t *testing.T) {
	d := ToolchainDescriptor{
		Type:           ToolchainLLVM,
		CompilerC:      "/usr/bin/clang",
		CompilerCpp:    "/usr/bin/clang++",
		Linker:         "/usr/bin/clang++",
		Archiver:       "/usr/bin/llvm-ar",
		Version:        "17.0.1",
		Strategy:       StrategyNative,
		BuildPathStyle: PathStyleTargetTriple,
		Architecture: Architecture{
			HostTriple:   "x86_64-pc-linux-gnu",
			TargetTriple: "x86_64-pc-linux-gnu",
			CPU:          CPUX64,
		},
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	var back ToolchainDescriptor
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, d, back)
}
