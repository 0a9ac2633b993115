package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/model"
)

func TestStore_SaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s, err := Load(path)
	require.NoError(t, err)

	entry := model.NewCacheEntry("app")
	entry.ToolchainFingerprint = "tc1"
	s.Put(entry)
	require.NoError(t, s.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	got := reloaded.Entry("app")
	require.Equal(t, "tc1", got.ToolchainFingerprint)
}

func TestStore_Load_MissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	entry := s.Entry("app")
	require.Equal(t, "app", entry.TargetName)
	require.Empty(t, entry.ToolchainFingerprint)
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestCheckUpToDate_AllChecksPass(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cpp")
	hdr := filepath.Join(dir, "a.h")
	obj := filepath.Join(dir, "a.o")
	dep := filepath.Join(dir, "a.d")
	writeTestFile(t, src, "source")
	writeTestFile(t, hdr, "header")
	writeTestFile(t, obj, "object")
	writeTestFile(t, dep, "dep")

	srcFP, err := FingerprintFile(src)
	require.NoError(t, err)
	hdrFP, err := FingerprintFile(hdr)
	require.NoError(t, err)

	entry := model.NewCacheEntry("app")
	entry.PerFile[src] = srcFP
	entry.PerFile[hdr] = hdrFP
	entry.ToolchainFingerprint = "tc"
	entry.ConfigurationFingerprint = "cfg"
	entry.CommandLineFingerprint = "cli"

	ok, reason := CheckUpToDate(UpToDateInput{
		Entry:                    model.SourceEntry{SourceFile: src, ObjectFile: obj, DependencyFile: dep},
		CacheEntry:               entry,
		ToolchainFingerprint:     "tc",
		ConfigurationFingerprint: "cfg",
		CommandLineFingerprint:   "cli",
		DependencyFileHeaders:    func(string) ([]string, error) { return []string{src, hdr}, nil },
	})
	require.True(t, ok, reason)
}

func TestCheckUpToDate_HeaderChangedInvalidates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cpp")
	hdr := filepath.Join(dir, "a.h")
	obj := filepath.Join(dir, "a.o")
	dep := filepath.Join(dir, "a.d")
	writeTestFile(t, src, "source")
	writeTestFile(t, hdr, "header-v1")
	writeTestFile(t, obj, "object")
	writeTestFile(t, dep, "dep")

	srcFP, _ := FingerprintFile(src)
	hdrFP, _ := FingerprintFile(hdr)

	entry := model.NewCacheEntry("app")
	entry.PerFile[src] = srcFP
	entry.PerFile[hdr] = hdrFP

	writeTestFile(t, hdr, "header-v2-longer-content")

	ok, reason := CheckUpToDate(UpToDateInput{
		Entry:                 model.SourceEntry{SourceFile: src, ObjectFile: obj, DependencyFile: dep},
		CacheEntry:            entry,
		DependencyFileHeaders: func(string) ([]string, error) { return []string{src, hdr}, nil },
	})
	require.False(t, ok)
	require.Contains(t, reason, "header changed")
}

func TestCheckUpToDate_MissingObjectInvalidates(t *testing.T) {
	entry := model.NewCacheEntry("app")
	ok, reason := CheckUpToDate(UpToDateInput{
		Entry:      model.SourceEntry{SourceFile: "a.cpp", ObjectFile: "/nonexistent/a.o", DependencyFile: "/nonexistent/a.d"},
		CacheEntry: entry,
	})
	require.False(t, ok)
	require.Equal(t, "object file missing", reason)
}

func TestCommandLineFingerprint_OrderIndependent(t *testing.T) {
	a := CommandLineFingerprint([]string{"-Wall", "-O2"}, []string{"FOO"}, []string{"inc"})
	b := CommandLineFingerprint([]string{"-O2", "-Wall"}, []string{"FOO"}, []string{"inc"})
	require.Equal(t, a, b)
}

func TestHashStrings_Deterministic(t *testing.T) {
	require.Equal(t, HashStrings("a", "b"), HashStrings("a", "b"))
	require.NotEqual(t, HashStrings("a", "b"), HashStrings("b", "a"))
}
