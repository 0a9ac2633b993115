package toolchain

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/forgepaths"
	"github.com/forgebuild/forge/internal/logging"
	"github.com/forgebuild/forge/internal/model"
)

// flagsHelpArgs is the per-family --help invocation used for
// supported-flag discovery.
func flagsHelpArgs(kind model.ToolchainType) ([]string, bool) {
	switch kind {
	case model.ToolchainGNU, model.ToolchainMinGWGCC:
		return []string{"--help=common,optimizers,target,warnings,undocumented"}, true
	case model.ToolchainLLVM, model.ToolchainAppleClang, model.ToolchainMinGWClang:
		return []string{"-cc1", "--help"}, true
	default:
		return nil, false
	}
}

// isFlagLine matches a line in --help output that begins a flag
// description, e.g. "  -Wshadow  Warn when...", and returns its
// lowercased flag token.
func isFlagLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "-") {
		return "", false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

// discoverSupportedFlags runs the family's --help invocation and interns
// every flag token it finds into a lowercased set.
func discoverSupportedFlags(ctx context.Context, compilerPath string, kind model.ToolchainType) (map[string]struct{}, error) {
	args, ok := flagsHelpArgs(kind)
	if !ok {
		return nil, nil
	}
	cmd := exec.CommandContext(ctx, compilerPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		return nil, &ResolutionError{CompilerPath: compilerPath, Reason: "supported-flag probe failed: " + err.Error()}
	}

	flags := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		if flag, ok := isFlagLine(scanner.Text()); ok {
			flags[flag] = struct{}{}
		}
	}
	return flags, nil
}

// flagCacheFile names the persisted supported-flag-set cache file for a
// given compiler path + architecture: one file per identity.
func flagCacheFile(compilerPath, arch string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(compilerPath)
	return filepath.Join(forgepaths.ToolchainCacheDir(), fmt.Sprintf("%s-%s.flags.json", safe, arch))
}

// FlagCachePath returns the persisted supported-flag-set cache file for
// a resolved toolchain, so callers can fold its content into the cache's
// extra-hash inputs (a flag-probe change invalidates all targets).
func FlagCachePath(d model.ToolchainDescriptor) string {
	return flagCacheFile(d.CompilerCpp, string(d.Architecture.CPU))
}

type flagCachePayload struct {
	CompilerPath string          `json:"compilerPath"`
	Arch         string          `json:"arch"`
	Flags        map[string]bool `json:"flags"`
}

// LoadOrDiscoverFlags reuses a previously persisted supported-flag set for
// compilerPath+arch if present, otherwise probes the compiler and
// persists the result atomically (write sibling file, then rename).
func LoadOrDiscoverFlags(ctx context.Context, compilerPath, arch string, kind model.ToolchainType) (map[string]struct{}, error) {
	log := logging.For("toolchain")
	cacheFile := flagCacheFile(compilerPath, arch)

	if data, err := os.ReadFile(cacheFile); err == nil {
		var payload flagCachePayload
		if err := json.Unmarshal(data, &payload); err == nil {
			flags := make(map[string]struct{}, len(payload.Flags))
			for f := range payload.Flags {
				flags[f] = struct{}{}
			}
			log.Debug().Str("compiler", compilerPath).Msg("reused cached supported-flag set")
			return flags, nil
		}
	}

	flags, err := discoverSupportedFlags(ctx, compilerPath, kind)
	if err != nil {
		return nil, err
	}
	if flags == nil {
		return nil, nil
	}

	if err := persistFlags(cacheFile, compilerPath, arch, flags); err != nil {
		log.Warn().Err(err).Msg("failed to persist supported-flag cache")
	}
	return flags, nil
}

func persistFlags(cacheFile, compilerPath, arch string, flags map[string]struct{}) error {
	if err := os.MkdirAll(filepath.Dir(cacheFile), forgepaths.DefaultDirPerms); err != nil {
		return err
	}
	payload := flagCachePayload{CompilerPath: compilerPath, Arch: arch, Flags: make(map[string]bool, len(flags))}
	for f := range flags {
		payload.Flags[f] = true
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	tmp := cacheFile + ".tmp"
	if err := os.WriteFile(tmp, data, forgepaths.DefaultFilePerms); err != nil {
		return err
	}
	return os.Rename(tmp, cacheFile)
}
