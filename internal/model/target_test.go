package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTarget_Validate_EmptySourceSet(t *testing.T) {
	tgt := Target{
		Name: "app",
		Kind: TargetSource,
		Source: &SourceTarget{
			Kind:     SourceConsoleApp,
			Language: LanguageCpp,
		},
	}
	err := tgt.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty source set")
}

func TestTarget_Validate_WarningFlagInCompileOptions(t *testing.T) {
	tgt := Target{
		Name: "app",
		Kind: TargetSource,
		Source: &SourceTarget{
			Kind:           SourceConsoleApp,
			Language:       LanguageCpp,
			Locations:      []string{"src"},
			CompileOptions: []string{"-Wall"},
		},
	}
	err := tgt.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "belongs in warnings")
}

func TestTarget_Validate_UnknownWarningPreset(t *testing.T) {
	tgt := Target{
		Name: "app",
		Kind: TargetSource,
		Source: &SourceTarget{
			Kind:          SourceConsoleApp,
			Language:      LanguageCpp,
			Locations:     []string{"src"},
			WarningPreset: "super-strict",
		},
	}
	err := tgt.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unrecognized warning preset")
}

func TestTarget_IsExecutable(t *testing.T) {
	cases := []struct {
		name string
		tgt  Target
		want bool
	}{
		{"console app", Target{Kind: TargetSource, Source: &SourceTarget{Kind: SourceConsoleApp}}, true},
		{"desktop app", Target{Kind: TargetSource, Source: &SourceTarget{Kind: SourceDesktopApp}}, true},
		{"static lib", Target{Kind: TargetSource, Source: &SourceTarget{Kind: SourceStaticLibrary}}, false},
		{"cmake target", Target{Kind: TargetCMake, CMake: &CMakeTarget{Location: "vendor/x"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.tgt.IsExecutable())
		})
	}
}

func TestCondition_Matches(t *testing.T) {
	cases := []struct {
		name   string
		cond   Condition
		plat   Platform
		config string
		want   bool
	}{
		{"no filters", Condition{}, PlatformLinux, "Debug", true},
		{"only-in platform match", Condition{OnlyInPlatform: []Platform{PlatformWindows}}, PlatformWindows, "Debug", true},
		{"only-in platform mismatch", Condition{OnlyInPlatform: []Platform{PlatformWindows}}, PlatformLinux, "Debug", false},
		{"not-in configuration", Condition{NotInConfiguration: []string{"Debug"}}, PlatformLinux, "Debug", false},
		{"not-in configuration allows others", Condition{NotInConfiguration: []string{"Debug"}}, PlatformLinux, "Release", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.cond.Matches(tc.plat, tc.config))
		})
	}
}
