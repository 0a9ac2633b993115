// Package commandgen synthesizes compiler, archiver, and linker argv
// lists from a resolved toolchain, a source group, a target, and a build
// configuration. Flag spelling is family-specific (GCC/Clang's `-`
// prefixed forms vs. MSVC's `/` forms); the assembly order is invariant
// across families and lives in synth.go.
package commandgen

import "github.com/forgebuild/forge/internal/model"

// Family translates configuration-level intent (an optimization level, a
// warning preset, an RTTI toggle) into the concrete flag spelling a
// specific compiler family accepts. One Family implementation exists per
// branch of model.ToolchainType; FamilyFor selects it.
type Family interface {
	// LanguageStandardFlag renders e.g. "-std=c++17" or "/std:c++17".
	LanguageStandardFlag(lang model.Language, standard string) []string
	DiagnosticsFlags(colorTerminal bool) []string
	WarningFlags(preset model.WarningPreset, explicit []string) []string
	OptimizationFlags(level model.OptimizationLevel) []string
	DebugFlags(debugSymbols bool) []string
	ProfilingFlags(enabled bool) []string
	LTOFlags(enabled bool) []string
	RTTIExceptionsFlags(rtti, exceptions *bool) []string
	// ThreadFlags renders the threading-runtime selection for the
	// target's thread model (auto/posix/none).
	ThreadFlags(tm model.ThreadModel) []string
	ArchFlags(arch model.Architecture) []string
	SysrootFlags() []string
	IncludeDirFlags(dirs []string) []string
	DefineFlags(defines []string) []string
	// PCHUseFlags renders the flags that make a compile consume an
	// already-built PCH; dir is the PCH's containing directory and
	// header/pchPath are its source and output paths.
	PCHUseFlags(header, pchPath, dir string) []string
	// PCHOutputFlags renders the flags that make the PCH compile itself
	// emit pchPath.
	PCHOutputFlags(pchPath string) []string
	// CompileInputFlags renders the compile-only flag plus the input
	// file ("-c <src>" or "/c <src>").
	CompileInputFlags(sourceFile string) []string
	OutputFlag(outputPath string) []string
	// DependencyFlags renders the flags that make the compiler emit a
	// dependency file at depPath for object at objectPath; tempPath is
	// the temp file renamed to depPath on success (GCC/Clang). MSVC
	// instead emits /showIncludes and relies on stdout parsing.
	DependencyFlags(objectPath, depPath, tempPath string) []string
	// UsesShowIncludes reports whether dependency info comes from
	// stdout (MSVC) rather than a -MF-style file (GCC/Clang).
	UsesShowIncludes() bool

	ArchiverPath(toolchain model.ToolchainDescriptor) string
	ArchiveCommand(archiverPath, outputPath string, objects []string) []string

	LinkerPath(toolchain model.ToolchainDescriptor, sourceKind model.SourceKind) string
	// SharedLibraryFlags renders the flag that makes the link produce a
	// shared library ("-shared", "-dynamiclib", "/DLL").
	SharedLibraryFlags() []string
	// LinkFlags renders -L/-l/static-link-group flags plus the
	// configuration-driven link-time flags; see link.go.
	LinkFlags(spec LinkSpec) []string

	// ResourceCompileCommand renders the Windows resource compile argv
	// (rc.exe or windres).
	ResourceCompileCommand(rcCompilerPath, sourceFile, outputPath string) []string
}

// FamilyFor returns the Family implementation for a toolchain type.
func FamilyFor(kind model.ToolchainType) Family {
	switch kind {
	case model.ToolchainMSVC:
		return msvcFamily{}
	case model.ToolchainEmscripten:
		return emscriptenFamily{gnuFamily: gnuFamily{clang: true}}
	case model.ToolchainAppleClang:
		return gnuFamily{clang: true, apple: true}
	case model.ToolchainLLVM, model.ToolchainMinGWClang:
		return gnuFamily{clang: true}
	default: // GNU, MinGW-GCC, IntelClassic, Unknown
		return gnuFamily{clang: false}
	}
}
