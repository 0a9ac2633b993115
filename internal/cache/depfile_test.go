package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDepFile_ContinuationsAndEscapes(t *testing.T) {
	dir := t.TempDir()
	dep := filepath.Join(dir, "a.d")
	contents := "obj/a.o: src/a.cpp \\\n  include/a.h \\\n  include/with\\ space.h\n\ninclude/a.h:\n"
	require.NoError(t, os.WriteFile(dep, []byte(contents), 0o644))

	deps, err := ParseDepFile(dep)
	require.NoError(t, err)
	require.Equal(t, []string{"src/a.cpp", "include/a.h", "include/with space.h"}, deps)
}

func TestParseDepFile_WindowsDriveLetters(t *testing.T) {
	dir := t.TempDir()
	dep := filepath.Join(dir, "a.d")
	contents := `C:\obj\a.obj: C:\src\a.cpp C:\include\a.h` + "\n"
	require.NoError(t, os.WriteFile(dep, []byte(contents), 0o644))

	deps, err := ParseDepFile(dep)
	require.NoError(t, err)
	require.Equal(t, []string{`C:\src\a.cpp`, `C:\include\a.h`}, deps)
}

func TestWriteDepFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	dep := filepath.Join(dir, "a.d")
	in := []string{"src/a.cpp", "include/a.h", "include/b.h"}
	require.NoError(t, WriteDepFile(dep, "obj/a.o", in))

	out, err := ParseDepFile(dep)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestParseShowIncludes(t *testing.T) {
	const prefix = "Note: including file:"
	output := "a.cpp\n" +
		prefix + "   C:\\vc\\include\\vector\n" +
		prefix + " C:\\proj\\a.h\n" +
		prefix + "   C:\\vc\\include\\vector\n" +
		"warning C4100: unreferenced parameter\n"

	headers, remainder := ParseShowIncludes(output, prefix)
	require.Equal(t, []string{`C:\vc\include\vector`, `C:\proj\a.h`}, headers)
	require.Contains(t, remainder, "a.cpp")
	require.Contains(t, remainder, "warning C4100: unreferenced parameter")
}
