package commandgen

import (
	"github.com/forgebuild/forge/internal/model"
)

// gnuFamily covers GCC and the Clang lineage (Clang, AppleClang,
// MinGW-Clang): their flag spelling is identical except for a handful of
// warning/diagnostic tokens gated behind clang, and Apple's -dynamiclib
// spelling for shared libraries.
type gnuFamily struct {
	clang bool
	apple bool
}

func (f gnuFamily) LanguageStandardFlag(lang model.Language, standard string) []string {
	if standard == "" {
		return nil
	}
	prefix := "c"
	if lang == model.LanguageCpp {
		prefix = "c++"
	}
	return []string{"-std=" + prefix + standard}
}

func (f gnuFamily) DiagnosticsFlags(colorTerminal bool) []string {
	var out []string
	if colorTerminal {
		out = append(out, "-fdiagnostics-color=always")
	}
	out = append(out, "-fno-diagnostics-show-caret")
	return out
}

// warningPresetFlags enumerates the strictly ordered GCC/Clang warning
// supersets: none < minimal < extra < error < pedantic < strict <
// strictPedantic < veryStrict.
var warningPresetFlags = map[model.WarningPreset][]string{
	model.WarningNone:           nil,
	model.WarningMinimal:        {"-Wall"},
	model.WarningExtra:          {"-Wall", "-Wextra"},
	model.WarningError:          {"-Wall", "-Wextra", "-Werror"},
	model.WarningPedantic:       {"-Wall", "-Wextra", "-Werror", "-Wpedantic"},
	model.WarningStrict:         {"-Wall", "-Wextra", "-Werror", "-Wpedantic", "-Wshadow"},
	model.WarningStrictPedantic: {"-Wall", "-Wextra", "-Werror", "-Wpedantic", "-Wshadow", "-Wconversion"},
	model.WarningVeryStrict:     {"-Wall", "-Wextra", "-Wpedantic", "-Wshadow", "-Wconversion", "-Werror"},
}

func (f gnuFamily) WarningFlags(preset model.WarningPreset, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	return warningPresetFlags[preset]
}

func (f gnuFamily) OptimizationFlags(level model.OptimizationLevel) []string {
	switch level {
	case model.OptNone:
		return []string{"-O0"}
	case model.Opt1:
		return []string{"-O1"}
	case model.Opt2:
		return []string{"-O2"}
	case model.Opt3:
		return []string{"-O3"}
	case model.OptDebug:
		return []string{"-Og"}
	case model.OptSize:
		return []string{"-Os"}
	case model.OptFast:
		return []string{"-Ofast"}
	default: // OptCompilerDefault, ""
		return nil
	}
}

func (f gnuFamily) DebugFlags(debugSymbols bool) []string {
	if debugSymbols {
		return []string{"-g"}
	}
	return nil
}

func (f gnuFamily) ProfilingFlags(enabled bool) []string {
	if enabled {
		return []string{"-pg"}
	}
	return nil
}

func (f gnuFamily) LTOFlags(enabled bool) []string {
	if enabled {
		return []string{"-flto"}
	}
	return nil
}

func (f gnuFamily) RTTIExceptionsFlags(rtti, exceptions *bool) []string {
	var out []string
	if rtti != nil && !*rtti {
		out = append(out, "-fno-rtti")
	}
	if exceptions != nil && !*exceptions {
		out = append(out, "-fno-exceptions")
	}
	return out
}

func (f gnuFamily) ThreadFlags(tm model.ThreadModel) []string {
	switch tm {
	case model.ThreadModelNone:
		return nil
	default: // auto, posix
		return []string{"-pthread"}
	}
}

func (f gnuFamily) ArchFlags(arch model.Architecture) []string {
	return arch.ExtraOptions
}

func (f gnuFamily) SysrootFlags() []string {
	return nil
}

func (f gnuFamily) IncludeDirFlags(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, "-I"+d)
	}
	return out
}

func (f gnuFamily) DefineFlags(defines []string) []string {
	out := make([]string, 0, len(defines))
	for _, d := range defines {
		out = append(out, "-D"+d)
	}
	return out
}

func (f gnuFamily) PCHUseFlags(header, pchPath, dir string) []string {
	if f.clang {
		return []string{"-include-pch", pchPath}
	}
	return []string{"-I" + dir, "-include", header}
}

func (f gnuFamily) PCHOutputFlags(pchPath string) []string {
	return []string{"-o", pchPath}
}

func (f gnuFamily) CompileInputFlags(sourceFile string) []string {
	return []string{"-c", sourceFile}
}

func (f gnuFamily) OutputFlag(outputPath string) []string {
	return []string{"-o", outputPath}
}

func (f gnuFamily) DependencyFlags(objectPath, depPath, tempPath string) []string {
	return []string{"-MT", objectPath, "-MMD", "-MP", "-MF", tempPath}
}

func (f gnuFamily) UsesShowIncludes() bool { return false }

func (f gnuFamily) ArchiverPath(toolchain model.ToolchainDescriptor) string {
	return toolchain.Archiver
}

func (f gnuFamily) ArchiveCommand(archiverPath, outputPath string, objects []string) []string {
	args := []string{archiverPath, "rcs", outputPath}
	return append(args, objects...)
}

func (f gnuFamily) LinkerPath(toolchain model.ToolchainDescriptor, sourceKind model.SourceKind) string {
	if toolchain.CompilerCpp != "" {
		return toolchain.CompilerCpp
	}
	return toolchain.CompilerC
}

func (f gnuFamily) SharedLibraryFlags() []string {
	if f.apple {
		return []string{"-dynamiclib"}
	}
	return []string{"-shared"}
}

func (f gnuFamily) LinkFlags(spec LinkSpec) []string {
	return linkFlagsGNU(f, spec)
}

func (f gnuFamily) ResourceCompileCommand(rcCompilerPath, sourceFile, outputPath string) []string {
	// MinGW's windres; non-Windows GNU builds never reach here.
	return []string{rcCompilerPath, sourceFile, "-O", "coff", "-o", outputPath}
}

var _ Family = gnuFamily{}
