package commandgen

import (
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// Context bundles the per-build inputs synth.go's assembly functions need
// beyond a single SourceEntry: the target, its resolved toolchain, the
// active configuration, and whether stdout is a terminal (diagnostics
// color).
type Context struct {
	Target        *model.Target
	Toolchain     model.ToolchainDescriptor
	Configuration model.BuildConfiguration
	ColorTerminal bool

	// DirectDeps makes -MF write the dependency file in place instead
	// of a .Td temp renamed on success — the Ninja backend reads the
	// file itself after the edge completes, so the atomic-rename dance
	// is unnecessary there.
	DirectDeps bool
}

// filterSupported drops flags the probed compiler does not advertise in
// its supported-flag set, so probed compilers never see flags they would
// reject (-Wshadow on old GCCs, -fno-rtti on odd drivers). Flags carrying an
// =value are matched on the part before the '='. Toolchains without a
// probed set pass everything through.
func filterSupported(tc model.ToolchainDescriptor, flags []string) []string {
	if tc.SupportedFlags == nil {
		return flags
	}
	out := flags[:0:0]
	for _, flag := range flags {
		token := strings.ToLower(flag)
		if idx := strings.IndexByte(token, '='); idx > 0 {
			token = token[:idx]
		}
		if tc.SupportsFlag(strings.ToLower(flag)) || tc.SupportsFlag(token) {
			out = append(out, flag)
		}
	}
	return out
}

// commonCompileFlags assembles the flag prefix shared by object and PCH
// compiles, in a fixed order so emitted commands are stable and
// diffable: language standard,
// diagnostics, warnings, optimization, debug, LTO, RTTI/exceptions,
// arch, sysroot, include dirs, defines.
func commonCompileFlags(ctx Context, f Family) []string {
	src := ctx.Target.Source

	var argv []string
	argv = append(argv, f.LanguageStandardFlag(src.Language, src.Standard)...)
	argv = append(argv, f.DiagnosticsFlags(ctx.ColorTerminal)...)
	argv = append(argv, filterSupported(ctx.Toolchain, f.WarningFlags(src.WarningPreset, src.Warnings))...)
	argv = append(argv, f.OptimizationFlags(ctx.Configuration.OptimizationLevel)...)
	argv = append(argv, f.DebugFlags(ctx.Configuration.DebugSymbols)...)
	argv = append(argv, f.ProfilingFlags(ctx.Configuration.EnableProfiling)...)
	argv = append(argv, f.LTOFlags(ctx.Configuration.LinkTimeOptimization)...)
	argv = append(argv, filterSupported(ctx.Toolchain, f.RTTIExceptionsFlags(src.RTTI, src.Exceptions))...)
	argv = append(argv, f.ThreadFlags(src.ThreadModel)...)
	argv = append(argv, f.ArchFlags(ctx.Toolchain.Architecture)...)
	argv = append(argv, f.SysrootFlags()...)
	argv = append(argv, f.IncludeDirFlags(src.IncludeDirs)...)
	argv = append(argv, f.DefineFlags(src.Defines)...)
	return argv
}

// CompileObject synthesizes the argv for compiling one non-PCH source
// entry: the common flag prefix, then PCH use, target-specific options,
// input file, output flag, and dependency-generation flags.
func CompileObject(ctx Context, entry model.SourceEntry, compilerPath string, pch *model.SourceEntry) []string {
	f := FamilyFor(ctx.Toolchain.Type)

	argv := append([]string{compilerPath}, commonCompileFlags(ctx, f)...)
	if pch != nil {
		argv = append(argv, f.PCHUseFlags(pch.SourceFile, pch.ObjectFile, filepath.Dir(pch.ObjectFile))...)
	}
	argv = append(argv, ctx.Target.Source.CompileOptions...)
	argv = append(argv, f.CompileInputFlags(entry.SourceFile)...)
	argv = append(argv, f.OutputFlag(entry.ObjectFile)...)
	if entry.DependencyFile != "" {
		temp := entry.DependencyFile + ".Td"
		if ctx.DirectDeps {
			temp = entry.DependencyFile
		}
		argv = append(argv, f.DependencyFlags(entry.ObjectFile, entry.DependencyFile, temp)...)
	}
	return argv
}

// CompilePCH synthesizes the argv that builds a target's precompiled
// header itself, using the same flag prefix as an object compile but
// PCHOutputFlags instead of PCHUseFlags/OutputFlag.
func CompilePCH(ctx Context, pch model.SourceEntry, compilerPath string) []string {
	f := FamilyFor(ctx.Toolchain.Type)

	argv := append([]string{compilerPath}, commonCompileFlags(ctx, f)...)
	argv = append(argv, ctx.Target.Source.CompileOptions...)
	argv = append(argv, f.CompileInputFlags(pch.SourceFile)...)
	argv = append(argv, f.PCHOutputFlags(pch.ObjectFile)...)
	return argv
}

// CompileResource synthesizes a Windows resource compile. rcCompilerPath is the toolchain's resource
// compiler (rc.exe for MSVC, windres for MinGW); callers fail with
// ResourceCompilerMissing before reaching here when it is empty.
func CompileResource(ctx Context, entry model.SourceEntry, rcCompilerPath string) []string {
	f := FamilyFor(ctx.Toolchain.Type)
	return f.ResourceCompileCommand(rcCompilerPath, entry.SourceFile, entry.ObjectFile)
}

// Archive synthesizes the argv for a staticLibrary target's archiver
// invocation over its object list.
func Archive(ctx Context, objects []string, outputPath string) []string {
	f := FamilyFor(ctx.Toolchain.Type)
	return f.ArchiveCommand(f.ArchiverPath(ctx.Toolchain), outputPath, objects)
}

// Link synthesizes the argv for a shared-library or executable target's
// link invocation, including the library-dir/dynamic-link/static-link
// flag groups link.go renders. extraLibDirs lets the driver add the
// build output directory for links that resolve to sibling targets.
func Link(ctx Context, objects []string, outputPath string, extraLibDirs ...string) []string {
	f := FamilyFor(ctx.Toolchain.Type)
	src := ctx.Target.Source

	var argv []string
	argv = append(argv, f.LinkerPath(ctx.Toolchain, src.Kind))
	if src.Kind == model.SourceSharedLibrary {
		argv = append(argv, f.SharedLibraryFlags()...)
	}
	argv = append(argv, objects...)
	spec := LinkSpec{
		LibDirs:         append(append([]string{}, src.LibDirs...), extraLibDirs...),
		Links:           src.Links,
		StaticLinks:     src.StaticLinks,
		LinkOptions:     src.LinkOptions,
		Kind:            src.Kind,
		Configuration:   ctx.Configuration,
		SuppressRuntime: src.StaticLinking,
		StaticCRT:       src.StaticLinking,
	}
	argv = append(argv, f.LinkFlags(spec)...)
	argv = append(argv, f.OutputFlag(outputPath)...)
	return argv
}
