package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/forgebuild/forge/internal/model"
	"github.com/forgebuild/forge/internal/schema"
)

var (
	validatePlatform      string
	validateConfiguration string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a project description",
	Long: `Validate loads a project description, strips JSONC comments,
checks it against the embedded draft-07 schema, resolves dotted-key
overrides for the given platform/configuration, and runs semantic
validation over the fully typed workspace.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validatePlatform, "platform", defaultPlatform(), "target platform: windows, macos, linux")
	validateCmd.Flags().StringVar(&validateConfiguration, "configuration", "Debug", "active configuration name")
}

func runValidate(cmd *cobra.Command, args []string) error {
	file := args[0]
	ws, diags, err := loadWorkspace(file, validatePlatform, validateConfiguration)
	printDiagnostics(diags)
	if err != nil {
		return newCLIError("%s: %w", file, err)
	}
	fmt.Printf("%s: OK — %d target(s), %d configuration(s)\n", file, len(ws.Targets), len(ws.Configurations))
	return nil
}

// loadWorkspace is the shared file-read + schema.Load pipeline every
// subcommand needing a typed workspace calls.
func loadWorkspace(file, platform, configuration string) (*model.Workspace, model.Diagnostics, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	ws, diags, err := schema.Load(file, src, model.Platform(platform), configuration)
	if err != nil {
		return nil, diags, err
	}
	if ws.WorkDir == "" {
		abs, absErr := filepath.Abs(filepath.Dir(file))
		if absErr == nil {
			ws.WorkDir = abs
		}
	}
	return ws, diags, nil
}

func defaultPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	default:
		return "linux"
	}
}
