package model

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ToolchainType is the classified compiler family, derived by probing
// rather than declared by the user.
type ToolchainType string

const (
	ToolchainMSVC         ToolchainType = "MSVC"
	ToolchainGNU          ToolchainType = "GNU"
	ToolchainLLVM         ToolchainType = "LLVM"
	ToolchainAppleClang   ToolchainType = "AppleClang"
	ToolchainMinGWGCC     ToolchainType = "MinGW-GCC"
	ToolchainMinGWClang   ToolchainType = "MinGW-Clang"
	ToolchainIntelClassic ToolchainType = "IntelClassic"
	ToolchainEmscripten   ToolchainType = "Emscripten"
	ToolchainUnknown      ToolchainType = "Unknown"
)

// BackendStrategy selects which of the three build backends drives a
// toolchain's builds.
type BackendStrategy string

const (
	StrategyMakefile BackendStrategy = "Makefile"
	StrategyNinja    BackendStrategy = "Ninja"
	StrategyNative   BackendStrategy = "Native"
)

// BuildPathStyle selects how the build output directory name incorporates
// the resolved toolchain.
type BuildPathStyle string

const (
	PathStyleTargetTriple     BuildPathStyle = "TargetTriple"
	PathStyleToolchainName    BuildPathStyle = "ToolchainName"
	PathStyleArchitectureName BuildPathStyle = "ArchitectureName"
	PathStyleConfiguration    BuildPathStyle = "Configuration"
)

// ToolchainDescriptor is the fully resolved tuple internal/toolchain
// produces: concrete compiler/linker/archiver paths, the classified type,
// and the backend strategy that executes this toolchain's commands.
type ToolchainDescriptor struct {
	Type ToolchainType

	CompilerC   string
	CompilerCpp string
	CompilerRc  string
	Linker      string
	Archiver    string
	Profiler    string

	Version string // raw version string extracted during probing

	Strategy       BackendStrategy
	BuildPathStyle BuildPathStyle

	Architecture Architecture

	// SupportedFlags is the interned set of flags the probed compiler
	// accepts, keyed by lowercased flag token. Populated
	// for GCC/Clang families; nil for MSVC, whose flag surface is fixed.
	SupportedFlags map[string]struct{}
}

// SupportsFlag reports whether the descriptor's supported-flag set
// contains flag (already lowercased by the caller, matching how the
// probe interns tokens). Families without a probed set (MSVC) always
// report true: command synthesis relies on MSVC's flag set being fixed
// and documented, not probed.
func (d ToolchainDescriptor) SupportsFlag(flag string) bool {
	if d.SupportedFlags == nil {
		return true
	}
	_, ok := d.SupportedFlags[flag]
	return ok
}

// SupportedFlagsHash folds the interned flag set into one stable digest,
// the "supportedFlagsSetHash" component of the toolchain fingerprint.
func (d ToolchainDescriptor) SupportedFlagsHash() string {
	if len(d.SupportedFlags) == 0 {
		return "0"
	}
	flags := make([]string, 0, len(d.SupportedFlags))
	for f := range d.SupportedFlags {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	h := xxhash.New()
	for _, f := range flags {
		_, _ = h.WriteString(f)
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Fingerprint is the stable string folded into the toolchain fingerprint
// (glossary: "hash of {compilerPath, compilerVersion,
// supportedFlagsSetHash, targetTriple}"). internal/cache hashes this
// string; model only canonicalizes the fields.
func (d ToolchainDescriptor) Fingerprint() string {
	return d.CompilerCpp + "|" + d.CompilerC + "|" + d.Version + "|" +
		d.SupportedFlagsHash() + "|" + d.Architecture.TargetTriple
}
