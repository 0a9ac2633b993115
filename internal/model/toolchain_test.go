package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToolchainDescriptor_FingerprintIncludesFlagSet(t *testing.T) {
	base := ToolchainDescriptor{
		Type:        ToolchainGNU,
		CompilerC:   "/usr/bin/gcc",
		CompilerCpp: "/usr/bin/g++",
		Version:     "13.2.0",
	}
	withFlags := base
	withFlags.SupportedFlags = map[string]struct{}{"-wall": {}, "-wshadow": {}}

	require.NotEqual(t, base.Fingerprint(), withFlags.Fingerprint())
}

func TestToolchainDescriptor_SupportedFlagsHashIsOrderIndependent(t *testing.T) {
	a := ToolchainDescriptor{SupportedFlags: map[string]struct{}{"-wall": {}, "-wextra": {}}}
	b := ToolchainDescriptor{SupportedFlags: map[string]struct{}{"-wextra": {}, "-wall": {}}}
	require.Equal(t, a.SupportedFlagsHash(), b.SupportedFlagsHash())
}

func TestToolchainDescriptor_SupportsFlag(t *testing.T) {
	probed := ToolchainDescriptor{SupportedFlags: map[string]struct{}{"-wall": {}}}
	require.True(t, probed.SupportsFlag("-wall"))
	require.False(t, probed.SupportsFlag("-wshadow"))

	// MSVC has no probed set: everything passes.
	msvc := ToolchainDescriptor{Type: ToolchainMSVC}
	require.True(t, msvc.SupportsFlag("/W4"))
}

func TestSourceTarget_OutputFileName(t *testing.T) {
	cases := []struct {
		name     string
		src      SourceTarget
		platform Platform
		want     string
	}{
		{"exe linux", SourceTarget{Kind: SourceConsoleApp}, PlatformLinux, "app"},
		{"exe windows", SourceTarget{Kind: SourceConsoleApp}, PlatformWindows, "app.exe"},
		{"shared linux", SourceTarget{Kind: SourceSharedLibrary}, PlatformLinux, "libapp.so"},
		{"shared macos", SourceTarget{Kind: SourceSharedLibrary}, PlatformMacOS, "libapp.dylib"},
		{"shared windows", SourceTarget{Kind: SourceSharedLibrary}, PlatformWindows, "libapp.dll"},
		{"shared no prefix", SourceTarget{Kind: SourceSharedLibrary, SuppressLibPrefix: true}, PlatformLinux, "app.so"},
		{"static linux", SourceTarget{Kind: SourceStaticLibrary}, PlatformLinux, "libapp-s.a"},
		{"static windows", SourceTarget{Kind: SourceStaticLibrary}, PlatformWindows, "libapp-s.lib"},
		{"output name override", SourceTarget{Kind: SourceConsoleApp, OutputName: "tool"}, PlatformLinux, "tool"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.src.OutputFileName("app", tc.platform))
		})
	}
}

func TestTarget_HashIsStable(t *testing.T) {
	a := &Target{Name: "app", Kind: TargetSource, Source: &SourceTarget{Kind: SourceConsoleApp}}
	b := &Target{Name: "app", Kind: TargetSource, Source: &SourceTarget{Kind: SourceConsoleApp}}
	require.Equal(t, a.Hash(), b.Hash())

	c := &Target{Name: "app2", Kind: TargetSource, Source: &SourceTarget{Kind: SourceConsoleApp}}
	require.NotEqual(t, a.Hash(), c.Hash())
}
