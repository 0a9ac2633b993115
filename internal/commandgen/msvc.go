package commandgen

import (
	"fmt"

	"github.com/forgebuild/forge/internal/model"
)

// msvcFamily renders cl.exe/link.exe/lib.exe argv with MSVC's `/`-prefixed
// flag spelling.
type msvcFamily struct{}

func (msvcFamily) LanguageStandardFlag(lang model.Language, standard string) []string {
	if standard == "" {
		return nil
	}
	if lang == model.LanguageC {
		return []string{"/std:c" + standard}
	}
	return []string{"/std:c++" + standard}
}

func (msvcFamily) DiagnosticsFlags(colorTerminal bool) []string {
	return []string{"/nologo"}
}

// msvcWarningFlags mirrors gnu.go's ordered supersets in MSVC's /W0-/W4,
// /Wall, /WX spelling.
var msvcWarningFlags = map[model.WarningPreset][]string{
	model.WarningNone:           {"/W0"},
	model.WarningMinimal:        {"/W1"},
	model.WarningExtra:          {"/W3"},
	model.WarningError:          {"/W3", "/WX"},
	model.WarningPedantic:       {"/W4", "/WX"},
	model.WarningStrict:         {"/W4", "/WX", "/w14242"},
	model.WarningStrictPedantic: {"/W4", "/WX", "/w14242", "/w14263"},
	model.WarningVeryStrict:     {"/Wall", "/WX"},
}

func (msvcFamily) WarningFlags(preset model.WarningPreset, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	return msvcWarningFlags[preset]
}

func (msvcFamily) OptimizationFlags(level model.OptimizationLevel) []string {
	switch level {
	case model.OptNone, model.OptDebug:
		return []string{"/Od"}
	case model.Opt1, model.Opt2:
		return []string{"/O2"}
	case model.Opt3, model.OptFast:
		return []string{"/Ox"}
	case model.OptSize:
		return []string{"/O1"}
	default:
		return nil
	}
}

func (msvcFamily) DebugFlags(debugSymbols bool) []string {
	if debugSymbols {
		return []string{"/Zi"}
	}
	return nil
}

// ProfilingFlags returns nil: MSVC profiling is a linker concern
// (/PROFILE), rendered by LinkFlags.
func (msvcFamily) ProfilingFlags(enabled bool) []string {
	return nil
}

func (msvcFamily) LTOFlags(enabled bool) []string {
	if enabled {
		return []string{"/GL"}
	}
	return nil
}

func (msvcFamily) RTTIExceptionsFlags(rtti, exceptions *bool) []string {
	var out []string
	if rtti == nil || *rtti {
		out = append(out, "/GR")
	} else {
		out = append(out, "/GR-")
	}
	if exceptions == nil || *exceptions {
		out = append(out, "/EHsc")
	}
	return out
}

// ThreadFlags returns nil: MSVC threading comes with the CRT selection
// (/MT vs /MD), not a separate flag.
func (msvcFamily) ThreadFlags(tm model.ThreadModel) []string {
	return nil
}

func (msvcFamily) ArchFlags(arch model.Architecture) []string {
	return arch.ExtraOptions
}

func (msvcFamily) SysrootFlags() []string { return nil }

func (msvcFamily) IncludeDirFlags(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, "/I"+d)
	}
	return out
}

func (msvcFamily) DefineFlags(defines []string) []string {
	out := make([]string, 0, len(defines))
	for _, d := range defines {
		out = append(out, "/D"+d)
	}
	return out
}

func (msvcFamily) PCHUseFlags(header, pchPath, dir string) []string {
	return []string{fmt.Sprintf("/Yu%q", header), fmt.Sprintf("/Fp%q", pchPath)}
}

func (msvcFamily) PCHOutputFlags(pchPath string) []string {
	return []string{fmt.Sprintf("/Fp%q", pchPath)}
}

func (msvcFamily) CompileInputFlags(sourceFile string) []string {
	return []string{"/c", sourceFile}
}

func (msvcFamily) OutputFlag(outputPath string) []string {
	return []string{"/Fo" + outputPath}
}

// DependencyFlags emits /showIncludes: MSVC dependency information comes
// from stdout parsing, captured by the scheduler, not from a -MF-style
// file.
func (msvcFamily) DependencyFlags(objectPath, depPath, tempPath string) []string {
	return []string{"/showIncludes"}
}

func (msvcFamily) UsesShowIncludes() bool { return true }

func (msvcFamily) ArchiverPath(toolchain model.ToolchainDescriptor) string {
	return toolchain.Archiver
}

func (msvcFamily) ArchiveCommand(archiverPath, outputPath string, objects []string) []string {
	args := []string{archiverPath, "/NOLOGO", "/OUT:" + outputPath}
	return append(args, objects...)
}

func (msvcFamily) LinkerPath(toolchain model.ToolchainDescriptor, sourceKind model.SourceKind) string {
	return toolchain.Linker
}

func (msvcFamily) SharedLibraryFlags() []string {
	return []string{"/DLL"}
}

func (msvcFamily) LinkFlags(spec LinkSpec) []string {
	return linkFlagsMSVC(spec)
}

func (msvcFamily) ResourceCompileCommand(rcCompilerPath, sourceFile, outputPath string) []string {
	return []string{rcCompilerPath, "/nologo", "/fo", outputPath, sourceFile}
}

var _ Family = msvcFamily{}

// runtimeLibs returns the CRT variant plus kernel32.lib injected into
// MSVC links unless the target suppressed it via staticLinking:
// debug/release crossed with static/dynamic CRT.
func runtimeLibs(cfg model.BuildConfiguration, staticCRT bool) []string {
	crt := "msvcrt"
	if staticCRT {
		crt = "libcmt"
	}
	if cfg.DebugSymbols {
		crt += "d"
	}
	return []string{crt + ".lib", "kernel32.lib"}
}
