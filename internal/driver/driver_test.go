package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/model"
)

// fakeCompiler writes a shell script that mimics a GCC-style driver just
// enough for scheduling tests: it touches the -o output, writes the -MF
// dependency file, and appends one line per invocation to the log file
// named by FORGE_FAKE_CC_LOG.
const fakeCompiler = `#!/bin/sh
[ -n "$FORGE_FAKE_CC_LOG" ] && echo "$@" >> "$FORGE_FAKE_CC_LOG"
out=""; mf=""; src=""
prev=""
for a in "$@"; do
  case "$prev" in
    -o) out="$a";;
    -MF) mf="$a";;
    -c) src="$a";;
  esac
  prev="$a"
done
[ -n "$out" ] && : > "$out"
if [ -n "$mf" ] && [ -n "$src" ]; then
  printf '%s: %s\n' "$out" "$src" > "$mf"
fi
exit 0
`

func writeFakeCompiler(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cc.sh")
	require.NoError(t, os.WriteFile(path, []byte(fakeCompiler), 0o755))
	return path
}

func singleTargetWorkspace(t *testing.T) *model.Workspace {
	t.Helper()
	workDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "src", "a.cpp"), []byte("int main(){return 0;}"), 0o644))

	return &model.Workspace{
		Name:           "ws",
		WorkDir:        workDir,
		Configurations: map[string]model.BuildConfiguration{"Debug": {Name: "Debug", OptimizationLevel: model.OptNone}},
		Targets: []model.Target{
			{
				Name: "app",
				Kind: model.TargetSource,
				Source: &model.SourceTarget{
					Kind:            model.SourceConsoleApp,
					Language:        model.LanguageCpp,
					Locations:       []string{"src"},
					ExtensionFilter: []string{".cpp"},
				},
			},
		},
	}
}

func fakeToolchain(cc string) model.ToolchainDescriptor {
	return model.ToolchainDescriptor{
		Type:        model.ToolchainGNU,
		CompilerCpp: cc,
		CompilerC:   cc,
		Archiver:    "true",
		Linker:      cc,
		Strategy:    model.StrategyNative,
	}
}

func countInvocations(t *testing.T, logPath string) int {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestDriver_Build_SecondRunDoesNothing(t *testing.T) {
	cc := writeFakeCompiler(t)
	logPath := filepath.Join(t.TempDir(), "cc.log")
	t.Setenv("FORGE_FAKE_CC_LOG", logPath)

	ws := singleTargetWorkspace(t)
	req := BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Debug",
		Toolchain:     fakeToolchain(cc),
		MaxJobs:       2,
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), req))
	firstRun := countInvocations(t, logPath)
	require.Equal(t, 2, firstRun) // one compile, one link

	outputPath := filepath.Join(ws.WorkDir, "build", "Debug", "app")
	require.FileExists(t, outputPath)

	require.NoError(t, d.Build(context.Background(), req))
	require.Equal(t, firstRun, countInvocations(t, logPath)) // zero new subprocesses
}

func TestDriver_Build_TouchedSourceRecompiles(t *testing.T) {
	cc := writeFakeCompiler(t)
	logPath := filepath.Join(t.TempDir(), "cc.log")
	t.Setenv("FORGE_FAKE_CC_LOG", logPath)

	ws := singleTargetWorkspace(t)
	req := BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Debug",
		Toolchain:     fakeToolchain(cc),
		MaxJobs:       1,
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), req))
	afterFirst := countInvocations(t, logPath)

	// Grow the file so the size component of the fingerprint changes
	// even on filesystems with coarse mtimes.
	src := filepath.Join(ws.WorkDir, "src", "a.cpp")
	require.NoError(t, os.WriteFile(src, []byte("int main(){return 1;}\n// changed"), 0o644))

	require.NoError(t, d.Build(context.Background(), req))
	require.Equal(t, afterFirst+2, countInvocations(t, logPath)) // recompile + relink
}

func TestDriver_Build_ToolchainChangeInvalidates(t *testing.T) {
	cc := writeFakeCompiler(t)
	logPath := filepath.Join(t.TempDir(), "cc.log")
	t.Setenv("FORGE_FAKE_CC_LOG", logPath)

	ws := singleTargetWorkspace(t)
	req := BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Debug",
		Toolchain:     fakeToolchain(cc),
		MaxJobs:       1,
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), req))
	afterFirst := countInvocations(t, logPath)

	req.Toolchain.Version = "new-version"
	require.NoError(t, d.Build(context.Background(), req))
	require.Equal(t, afterFirst+2, countInvocations(t, logPath))
}

func TestDriver_Build_SharedLibraryNaming(t *testing.T) {
	cc := writeFakeCompiler(t)
	workDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "src", "lib.cpp"), []byte(""), 0o644))

	ws := &model.Workspace{
		Name:           "ws",
		WorkDir:        workDir,
		Configurations: map[string]model.BuildConfiguration{"Release": {Name: "Release"}},
		Targets: []model.Target{
			{
				Name: "core",
				Kind: model.TargetSource,
				Source: &model.SourceTarget{
					Kind:            model.SourceSharedLibrary,
					Language:        model.LanguageCpp,
					Locations:       []string{"src"},
					ExtensionFilter: []string{".cpp"},
				},
			},
		},
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Release",
		Toolchain:     fakeToolchain(cc),
		MaxJobs:       1,
	}))
	require.FileExists(t, filepath.Join(workDir, "build", "Release", "libcore.so"))
}

func TestDriver_Build_TouchedPCHRebuildsEverything(t *testing.T) {
	cc := writeFakeCompiler(t)
	logPath := filepath.Join(t.TempDir(), "cc.log")
	t.Setenv("FORGE_FAKE_CC_LOG", logPath)

	ws := singleTargetWorkspace(t)
	pch := filepath.Join(ws.WorkDir, "src", "pch.hpp")
	require.NoError(t, os.WriteFile(pch, []byte("#pragma once"), 0o644))
	ws.Targets[0].Source.PrecompiledHeader = "src/pch.hpp"

	req := BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Debug",
		Toolchain:     fakeToolchain(cc),
		MaxJobs:       1,
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), req))
	afterFirst := countInvocations(t, logPath)
	require.Equal(t, 3, afterFirst) // pch, compile, link

	require.NoError(t, d.Build(context.Background(), req))
	require.Equal(t, afterFirst, countInvocations(t, logPath))

	require.NoError(t, os.WriteFile(pch, []byte("#pragma once\n// touched"), 0o644))
	require.NoError(t, d.Build(context.Background(), req))
	require.Equal(t, afterFirst+3, countInvocations(t, logPath)) // pch + object + link again
}

func TestDriver_Build_UnknownConfiguration(t *testing.T) {
	ws := &model.Workspace{
		Name:           "ws",
		WorkDir:        t.TempDir(),
		Configurations: map[string]model.BuildConfiguration{"Debug": {Name: "Debug"}},
	}
	d := New()
	err := d.Build(context.Background(), BuildRequest{Workspace: ws, Configuration: "Release"})
	require.Error(t, err)
}

func TestDriver_Build_ScriptTarget(t *testing.T) {
	workDir := t.TempDir()
	marker := filepath.Join(workDir, "ran.txt")
	script := filepath.Join(workDir, "gen.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ntouch "+marker+"\n"), 0o755))

	ws := &model.Workspace{
		Name:           "ws",
		WorkDir:        workDir,
		Configurations: map[string]model.BuildConfiguration{"Debug": {Name: "Debug"}},
		Targets: []model.Target{
			{
				Name:   "generate",
				Kind:   model.TargetScript,
				Script: &model.ScriptTarget{Path: script},
			},
		},
	}

	d := New()
	require.NoError(t, d.Build(context.Background(), BuildRequest{
		Workspace:     ws,
		Platform:      model.PlatformLinux,
		Configuration: "Debug",
		Toolchain:     model.ToolchainDescriptor{Type: model.ToolchainGNU, Strategy: model.StrategyNative},
		MaxJobs:       1,
	}))
	require.FileExists(t, marker)
}
