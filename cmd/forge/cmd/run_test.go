package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/internal/model"
)

func runnableWorkspace() *model.Workspace {
	return &model.Workspace{
		Name: "ws",
		Targets: []model.Target{
			{Name: "core", Kind: model.TargetSource, Source: &model.SourceTarget{Kind: model.SourceStaticLibrary}},
			{Name: "app", Kind: model.TargetSource, Source: &model.SourceTarget{Kind: model.SourceConsoleApp}},
			{
				Name: "tool",
				Kind: model.TargetSource,
				Source: &model.SourceTarget{
					Kind: model.SourceConsoleApp,
					Run:  &model.RunConfig{Args: []string{"--serve"}, IsPrimaryRunnable: true},
				},
			},
		},
	}
}

func TestPickRunnable_ExplicitName(t *testing.T) {
	ws := runnableWorkspace()
	target, err := pickRunnable(ws, []string{"app"})
	require.NoError(t, err)
	require.Equal(t, "app", target.Name)
}

func TestPickRunnable_ExplicitNonExecutable(t *testing.T) {
	ws := runnableWorkspace()
	_, err := pickRunnable(ws, []string{"core"})
	require.Error(t, err)
}

func TestPickRunnable_PrimaryRunnableWins(t *testing.T) {
	ws := runnableWorkspace()
	target, err := pickRunnable(ws, nil)
	require.NoError(t, err)
	require.Equal(t, "tool", target.Name)
}

func TestPickRunnable_SoleExecutableFallback(t *testing.T) {
	ws := &model.Workspace{
		Name: "ws",
		Targets: []model.Target{
			{Name: "only", Kind: model.TargetSource, Source: &model.SourceTarget{Kind: model.SourceDesktopApp}},
		},
	}
	target, err := pickRunnable(ws, nil)
	require.NoError(t, err)
	require.Equal(t, "only", target.Name)
}

func TestPickRunnable_AmbiguousWithoutPrimary(t *testing.T) {
	ws := &model.Workspace{
		Name: "ws",
		Targets: []model.Target{
			{Name: "one", Kind: model.TargetSource, Source: &model.SourceTarget{Kind: model.SourceConsoleApp}},
			{Name: "two", Kind: model.TargetSource, Source: &model.SourceTarget{Kind: model.SourceConsoleApp}},
		},
	}
	_, err := pickRunnable(ws, nil)
	require.Error(t, err)
}
