package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/model"
)

const helloWorldDoc = `{
	// comment permitted before the first key
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

func TestLoad_HelloWorld(t *testing.T) {
	ws, diags, err := Load("forge.json", []byte(helloWorldDoc), model.PlatformLinux, "Release")
	require.NoError(t, err)
	require.Empty(t, diags.Errors())
	require.Equal(t, "Demo", ws.Name)
	require.Len(t, ws.Targets, 1)
	require.Equal(t, model.SourceConsoleApp, ws.Targets[0].Source.Kind)
}

func TestLoad_OverrideResolutionAppliedPerTarget(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release", "Debug"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"locations": ["src"],
				"defines": ["A"],
				"defines.windows": ["B"]
			}
		}
	}`
	wsLinux, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, wsLinux.Targets[0].Source.Defines)

	wsWindows, _, err := Load("forge.json", []byte(doc), model.PlatformWindows, "Release")
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, wsWindows.Targets[0].Source.Defines)
}

func TestLoad_SemanticValidation_UnknownProjectStaticLink(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"locations": ["src"],
				"projectStaticLinks": ["doesNotExist"]
			}
		}
	}`
	_, diags, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.Error(t, err)
	require.True(t, diags.HasErrors())
}

func TestLoad_SemanticValidation_EmptySourceSet(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++"
			}
		}
	}`
	_, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.Error(t, err)
}

func TestLoad_AbstractExtends(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"abstracts": {
			"common": {
				"language": "C++",
				"standard": "17",
				"defines": ["COMMON"]
			}
		},
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"extends": "common",
				"locations": ["src"],
				"defines": ["APP"]
			}
		}
	}`
	ws, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.NoError(t, err)
	src := ws.Targets[0].Source
	require.Equal(t, model.LanguageCpp, src.Language)
	require.Equal(t, "17", src.Standard)
	// The target's own key wins over the abstract's.
	require.Equal(t, []string{"APP"}, src.Defines)
}

func TestLoad_AbstractExtends_UnknownAbstract(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"extends": "nope",
				"locations": ["src"]
			}
		}
	}`
	_, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.Error(t, err)
}

func TestLoad_VariableExpansionInPaths(t *testing.T) {
	t.Setenv("FORGE_TEST_SRC", "vendored")
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"locations": ["${env:FORGE_TEST_SRC}/src"]
			}
		}
	}`
	ws, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.NoError(t, err)
	require.Equal(t, []string{"vendored/src"}, ws.Targets[0].Source.Locations)
}

func TestLoad_ConfigAndPlatformOverridePrecedence(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release", "Debug"],
		"targets": {
			"app": {
				"kind": "consoleApplication",
				"language": "C++",
				"locations": ["src"],
				"defines": ["A"],
				"defines.windows": ["B"],
				"defines:Debug.windows": ["C"]
			}
		}
	}`
	winDebug, _, err := Load("forge.json", []byte(doc), model.PlatformWindows, "Debug")
	require.NoError(t, err)
	require.Equal(t, []string{"C"}, winDebug.Targets[0].Source.Defines)

	winRelease, _, err := Load("forge.json", []byte(doc), model.PlatformWindows, "Release")
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, winRelease.Targets[0].Source.Defines)

	linuxAny, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Debug")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, linuxAny.Targets[0].Source.Defines)
}

func TestLoad_TargetsKeepDeclarationOrder(t *testing.T) {
	doc := `{
		"version": "1.0",
		"workspace": "Demo",
		"configurations": ["Release"],
		"targets": {
			"zeta": {"kind": "consoleApplication", "language": "C++", "locations": ["src"]},
			"alpha": {"kind": "staticLibrary", "language": "C++", "locations": ["lib"]}
		}
	}`
	ws, _, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.NoError(t, err)
	require.Equal(t, "zeta", ws.Targets[0].Name)
	require.Equal(t, "alpha", ws.Targets[1].Name)
}

func TestLoad_SchemaValidation_MissingRequiredKey(t *testing.T) {
	doc := `{"workspace": "Demo"}`
	_, diags, err := Load("forge.json", []byte(doc), model.PlatformLinux, "Release")
	require.Error(t, err)
	require.True(t, diags.HasErrors())
}
