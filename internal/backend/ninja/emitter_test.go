package ninja

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/backend"
	"github.com/forgebuild/forge/internal/model"
)

func samplePlan() backend.Plan {
	return backend.Plan{
		Targets: []backend.TargetCommandView{
			{
				TargetName: "core",
				Objects: []backend.ObjectBuild{
					{Entry: model.SourceEntry{SourceFile: "lib.cpp", ObjectFile: "lib.o", DependencyFile: "lib.d"}, Argv: []string{"g++", "-c", "lib.cpp"}},
				},
				FinalArgv:   []string{"g++", "-shared", "lib.o", "-o", "libcore.so"},
				FinalOutput: "libcore.so",
			},
			{
				TargetName: "app",
				Objects: []backend.ObjectBuild{
					{Entry: model.SourceEntry{SourceFile: "a.cpp", ObjectFile: "a.o", DependencyFile: "a.d"}, Argv: []string{"g++", "-c", "a.cpp"}},
				},
				FinalArgv:   []string{"g++", "a.o", "-o", "app"},
				FinalOutput: "app",
				DependsOn:   []string{"core"},
			},
		},
	}
}

func TestEmitter_RendersRulesAndEdges(t *testing.T) {
	e := &Emitter{CacheDir: t.TempDir()}
	path, hashes, err := e.emit(samplePlan())
	require.NoError(t, err)
	require.Equal(t, []string{"core", "app"}, hashes)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)

	require.Contains(t, text, "rule cc_core")
	require.Contains(t, text, "rule link_app")
	require.Contains(t, text, "depfile = $DEP_FILE")
	require.Contains(t, text, "DEP_FILE = a.d")
	require.Contains(t, text, "build a.o: cc_app a.cpp")
	require.Contains(t, text, "build app: link_app a.o | libcore.so")
	require.Contains(t, text, "build build_app: phony app")
	require.NotContains(t, text, "msvc_deps_prefix")
}

func TestEmitter_MsvcDepsPrefix(t *testing.T) {
	e := &Emitter{CacheDir: t.TempDir(), MsvcDepsPrefix: "Note: including file:"}
	plan := samplePlan()
	path, _, err := e.emit(plan)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "msvc_deps_prefix = Note: including file:")
	require.Contains(t, string(contents), "deps = msvc")
	require.NotContains(t, string(contents), "depfile =")
}

func TestEmitter_Deterministic(t *testing.T) {
	e := &Emitter{CacheDir: t.TempDir()}
	path, _, err := e.emit(samplePlan())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, _, err = e.emit(samplePlan())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestJoinArgv_EscapesDollar(t *testing.T) {
	require.Equal(t, "echo $$PATH", joinArgv([]string{"echo", "$PATH"}))
}

func TestEscapePath(t *testing.T) {
	require.Equal(t, "a$ b", escapePath("a b"))
	require.Equal(t, "C$:/x", escapePath("C:/x"))
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "a_b", sanitize("a/b"))
}

func TestTargetsOf(t *testing.T) {
	require.Equal(t, []string{"build_app", "build_lib"}, targetsOf([]string{"app", "lib"}))
}
