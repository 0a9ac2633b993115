package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkspace() *Workspace {
	return &Workspace{
		Name:           "Demo",
		Version:        "1.0",
		Configurations: WellKnownConfigurations(),
		Targets: []Target{
			{
				Name: "lib",
				Kind: TargetSource,
				Source: &SourceTarget{
					Kind:      SourceSharedLibrary,
					Language:  LanguageCpp,
					Locations: []string{"lib"},
				},
			},
			{
				Name: "app",
				Kind: TargetSource,
				Source: &SourceTarget{
					Kind:      SourceConsoleApp,
					Language:  LanguageCpp,
					Locations: []string{"app"},
					Links:     []string{"lib"},
				},
			},
		},
	}
}

func TestWorkspace_Validate_OK(t *testing.T) {
	ws := newTestWorkspace()
	require.NoError(t, ws.Validate())
}

func TestWorkspace_Validate_EmptyConfigurations(t *testing.T) {
	ws := newTestWorkspace()
	ws.Configurations = nil
	err := ws.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-empty")
}

func TestWorkspace_Validate_DuplicateTargetName(t *testing.T) {
	ws := newTestWorkspace()
	ws.Targets = append(ws.Targets, ws.Targets[0])
	err := ws.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate target name")
}

func TestWorkspace_ResolveLink_SiblingWins(t *testing.T) {
	ws := newTestWorkspace()
	sibling, isSibling := ws.ResolveLink("lib")
	require.True(t, isSibling)
	require.Equal(t, "lib", sibling.Name)
}

func TestWorkspace_ResolveLink_BareSystemLibrary(t *testing.T) {
	ws := newTestWorkspace()
	sibling, isSibling := ws.ResolveLink("pthread")
	require.False(t, isSibling)
	require.Nil(t, sibling)
}

func TestWorkspace_ActiveTargets_FiltersByCondition(t *testing.T) {
	ws := newTestWorkspace()
	ws.Targets[1].Condition = Condition{OnlyInPlatform: []Platform{PlatformWindows}}

	active := ws.ActiveTargets(PlatformLinux, "Release")
	require.Len(t, active, 1)
	require.Equal(t, "lib", active[0].Name)
}
