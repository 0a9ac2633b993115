package model

import "fmt"

// OptimizationLevel is a build configuration's optimization setting.
type OptimizationLevel string

const (
	OptCompilerDefault OptimizationLevel = "compilerDefault"
	OptNone            OptimizationLevel = "none"
	Opt1               OptimizationLevel = "1"
	Opt2               OptimizationLevel = "2"
	Opt3               OptimizationLevel = "3"
	OptDebug           OptimizationLevel = "debug"
	OptSize            OptimizationLevel = "size"
	OptFast            OptimizationLevel = "fast"
)

// BuildConfiguration is a named optimization/debug tuple. Five well-known
// presets (presets.go) have fixed values; users may also define additional
// named configurations in the project description.
type BuildConfiguration struct {
	Name                 string
	OptimizationLevel    OptimizationLevel
	LinkTimeOptimization bool
	DebugSymbols         bool
	StripSymbols         bool
	EnableProfiling      bool
}

// WellKnownConfigurationNames lists the five preset names recognized when
// configurations are given as a bare array of strings.
var WellKnownConfigurationNames = []string{
	"Release", "Debug", "RelWithDebInfo", "MinSizeRel", "Profile",
}

func IsWellKnownConfigurationName(name string) bool {
	for _, n := range WellKnownConfigurationNames {
		if n == name {
			return true
		}
	}
	return false
}

// Fingerprint returns the stable string folded into the configuration
// fingerprint (glossary: "hash of the active configuration's five
// boolean/enum fields plus any user-defined option overrides"). The
// actual hashing is done by internal/cache; this just canonicalizes the
// fields into one deterministic string.
func (c BuildConfiguration) Fingerprint() string {
	return fmt.Sprintf("opt=%s;lto=%t;dbg=%t;strip=%t;prof=%t",
		c.OptimizationLevel, c.LinkTimeOptimization, c.DebugSymbols, c.StripSymbols, c.EnableProfiling)
}
