package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const helloWorldDoc = `{
	"version": "1.0",
	"workspace": "Demo",
	"configurations": ["Release"],
	"targets": {
		"app": {
			"kind": "consoleApplication",
			"language": "C++",
			"locations": ["src"]
		}
	}
}`

func writeProjectFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadWorkspace_ValidDoc(t *testing.T) {
	path := writeProjectFile(t, helloWorldDoc)
	ws, diags, err := loadWorkspace(path, "linux", "Release")
	require.NoError(t, err)
	require.Empty(t, diags.Errors())
	require.Equal(t, "Demo", ws.Name)
	require.NotEmpty(t, ws.WorkDir)
}

func TestLoadWorkspace_MissingFile(t *testing.T) {
	_, _, err := loadWorkspace(filepath.Join(t.TempDir(), "missing.json"), "linux", "Release")
	require.Error(t, err)
}

func TestDefaultPlatform_KnownValue(t *testing.T) {
	p := defaultPlatform()
	require.Contains(t, []string{"windows", "macos", "linux"}, p)
}
