// Package forgepaths centralizes the directories and environment variables
// forge consults: a global forge home for cross-project caches, and
// project-local build output directories.
//
// Environment variables:
//   - FORGE_HOME: override the global forge home (default: ~/.forge)
//   - FORGE_OUT: override the build output root (default: <workspace working directory>/build)
//   - FORGE_JOBS: override the default worker pool size (default: NumCPU)
package forgepaths

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// DefaultBuildRoot is the build output directory name relative to the
// workspace working directory.
const DefaultBuildRoot = "build"

// DefaultDirPerms and DefaultFilePerms are the permissions forge uses when
// creating build-output directories and files.
const (
	DefaultDirPerms  = 0o755
	DefaultFilePerms = 0o644
)

// Home returns the global forge home directory: $FORGE_HOME or ~/.forge.
func Home() string {
	if h := os.Getenv("FORGE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forge"
	}
	return filepath.Join(home, ".forge")
}

// ToolchainCacheDir returns the directory where probed supported-flag
// sets are cached across invocations.
func ToolchainCacheDir() string {
	return filepath.Join(Home(), "toolchains")
}

// BuildRoot returns the build output root for a given workspace working
// directory, honoring FORGE_OUT.
func BuildRoot(workDir string) string {
	if v := os.Getenv("FORGE_OUT"); v != "" {
		return v
	}
	return filepath.Join(workDir, DefaultBuildRoot)
}

// ConfigOutputDir returns "<buildRoot>/<configuration>" for a given
// workspace and active configuration name.
func ConfigOutputDir(workDir, configuration string) string {
	return filepath.Join(BuildRoot(workDir), configuration)
}

// ObjDir, DepDir, AsmDir and CacheDir return the per-configuration
// subdirectories of the build output layout.
func ObjDir(workDir, configuration string) string {
	return filepath.Join(ConfigOutputDir(workDir, configuration), "obj")
}

func DepDir(workDir, configuration string) string {
	return filepath.Join(ConfigOutputDir(workDir, configuration), "dep")
}

func AsmDir(workDir, configuration string) string {
	return filepath.Join(ConfigOutputDir(workDir, configuration), "asm")
}

func CacheDir(workDir, configuration string) string {
	return filepath.Join(ConfigOutputDir(workDir, configuration), ".cache")
}

// variablePattern matches the ${home} and ${env:NAME} substitutions
// project descriptions may use in path-valued properties.
var variablePattern = regexp.MustCompile(`\$\{(home|env:[A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandVariables substitutes ${home} with the user's home directory and
// ${env:NAME} with the named environment variable's value. Unknown
// variables expand to the empty string, matching shell semantics.
func ExpandVariables(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[2 : len(match)-1]
		if inner == "home" {
			home, err := os.UserHomeDir()
			if err != nil {
				return ""
			}
			return home
		}
		return os.Getenv(strings.TrimPrefix(inner, "env:"))
	})
}

// MaxJobs returns the configured worker-pool size: FORGE_JOBS if set and
// valid, otherwise the detected hardware concurrency.
func MaxJobs() int {
	if v := os.Getenv("FORGE_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// IsCI reports whether forge is running in a CI environment (CI or
// GITHUB_ACTIONS is set).
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}
