package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/driver"
	"github.com/forgebuild/forge/internal/model"
)

func TestRunGraph_ASCIIAndJSON(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"lib": {
				"kind": "staticLibrary",
				"language": "C++",
				"locations": ["lib"]
			},
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"locations": ["src"],
				"projectStaticLinks": ["lib"]
			}
		}
	}`
	path := writeProjectFile(t, doc)

	ws, _, err := loadWorkspace(path, "linux", "Release")
	require.NoError(t, err)

	g := driver.BuildGraph(ws, model.PlatformLinux, "Release")
	require.Len(t, g.Nodes, 2)

	order, err := driver.LinearOrder(g)
	require.NoError(t, err)
	require.Equal(t, []string{"lib", "app"}, order)

	ascii := driver.RenderASCII(g)
	require.Contains(t, ascii, "app")
	require.Contains(t, ascii, "lib")
}
