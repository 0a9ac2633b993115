package model

// WellKnownConfigurations returns fresh copies of the five fixed presets
// recognized by the configurations array shorthand.
func WellKnownConfigurations() map[string]BuildConfiguration {
	return map[string]BuildConfiguration{
		"Release": {
			Name:                 "Release",
			OptimizationLevel:    Opt3,
			LinkTimeOptimization: false,
			DebugSymbols:         false,
			StripSymbols:         true,
			EnableProfiling:      false,
		},
		"Debug": {
			Name:                 "Debug",
			OptimizationLevel:    OptNone,
			LinkTimeOptimization: false,
			DebugSymbols:         true,
			StripSymbols:         false,
			EnableProfiling:      false,
		},
		"RelWithDebInfo": {
			Name:                 "RelWithDebInfo",
			OptimizationLevel:    Opt2,
			LinkTimeOptimization: false,
			DebugSymbols:         true,
			StripSymbols:         false,
			EnableProfiling:      false,
		},
		"MinSizeRel": {
			Name:                 "MinSizeRel",
			OptimizationLevel:    OptSize,
			LinkTimeOptimization: false,
			DebugSymbols:         false,
			StripSymbols:         true,
			EnableProfiling:      false,
		},
		"Profile": {
			Name:                 "Profile",
			OptimizationLevel:    Opt2,
			LinkTimeOptimization: false,
			DebugSymbols:         true,
			StripSymbols:         false,
			EnableProfiling:      true,
		},
	}
}

// WellKnownConfiguration returns a single preset by name.
func WellKnownConfiguration(name string) (BuildConfiguration, bool) {
	cfg, ok := WellKnownConfigurations()[name]
	return cfg, ok
}
