package commandgen

import (
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// LinkSpec bundles everything a family's LinkFlags needs to render the
// library-dir/dynamic-link/static-link flag groups plus the
// configuration-driven link-time flags (strip, LTO, profiling).
type LinkSpec struct {
	LibDirs     []string
	Links       []string
	StaticLinks []string
	LinkOptions []string

	Kind          model.SourceKind
	Configuration model.BuildConfiguration

	// SuppressRuntime disables MSVC's implicit kernel32/CRT injection
	// (the target's staticLinking switch).
	SuppressRuntime bool
	// StaticCRT selects /MT-style static CRT libraries over the
	// dynamic msvcrt ones.
	StaticCRT bool
}

// linkFlagsGNU renders -L/-l flags for GCC/Clang, wrapping static links
// in a -Wl,-Bstatic/-Bdynamic grouping, itself wrapped
// in -Wl,--start-group/--end-group to tolerate cyclic static dependencies.
func linkFlagsGNU(f gnuFamily, spec LinkSpec) []string {
	var out []string
	for _, d := range spec.LibDirs {
		out = append(out, "-L"+d)
	}
	if len(spec.StaticLinks) > 0 {
		out = append(out, "-Wl,--start-group", "-Wl,-Bstatic")
		for _, l := range spec.StaticLinks {
			out = append(out, "-l"+l)
		}
		out = append(out, "-Wl,-Bdynamic", "-Wl,--end-group")
	}
	for _, l := range spec.Links {
		out = append(out, "-l"+l)
	}
	if spec.Configuration.LinkTimeOptimization {
		out = append(out, "-flto")
	}
	if spec.Configuration.EnableProfiling {
		out = append(out, "-pg")
	}
	if spec.Configuration.StripSymbols {
		if f.apple {
			out = append(out, "-Wl,-S")
		} else {
			out = append(out, "-s")
		}
	}
	out = append(out, spec.LinkOptions...)
	return out
}

// linkFlagsMSVC renders /LIBPATH:/<lib>.lib flags, injecting kernel32.lib
// and the CRT variant matching the configuration unless the target
// suppressed it via staticLinking.
func linkFlagsMSVC(spec LinkSpec) []string {
	var out []string
	for _, d := range spec.LibDirs {
		out = append(out, "/LIBPATH:"+d)
	}
	for _, l := range spec.StaticLinks {
		out = append(out, libArg(l))
	}
	for _, l := range spec.Links {
		out = append(out, libArg(l))
	}
	if !spec.SuppressRuntime {
		out = append(out, runtimeLibs(spec.Configuration, spec.StaticCRT)...)
	}
	if spec.Configuration.LinkTimeOptimization {
		out = append(out, "/LTCG")
	}
	if spec.Configuration.EnableProfiling {
		out = append(out, "/PROFILE")
	}
	out = append(out, spec.LinkOptions...)
	return out
}

func libArg(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".lib") {
		return name
	}
	return name + ".lib"
}
