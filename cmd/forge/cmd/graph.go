package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forgebuild/forge/internal/driver"
	"github.com/forgebuild/forge/internal/model"
)

var (
	graphPlatform      string
	graphConfiguration string
	graphFormat        string
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Print the target dependency graph",
	Long: `Graph loads a project description and prints its target
dependency graph (derived from projectStaticLinks/links edges that
resolve to sibling targets) as an ASCII tree, a Mermaid flowchart, or
JSON/YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphPlatform, "platform", defaultPlatform(), "target platform: windows, macos, linux")
	graphCmd.Flags().StringVar(&graphConfiguration, "configuration", "Debug", "active configuration name")
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "ascii", "output format: ascii, mermaid, json, yaml")
}

func runGraph(cmd *cobra.Command, args []string) error {
	file := args[0]
	ws, diags, err := loadWorkspace(file, graphPlatform, graphConfiguration)
	printDiagnostics(diags)
	if err != nil {
		return newCLIError("%s: %w", file, err)
	}

	g := driver.BuildGraph(ws, model.Platform(graphPlatform), graphConfiguration)

	switch graphFormat {
	case "ascii":
		fmt.Print(driver.RenderASCII(g))
	case "mermaid":
		fmt.Print(driver.RenderMermaid(g))
	case "json":
		enc, err := json.MarshalIndent(g.Nodes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
	case "yaml":
		enc, err := yaml.Marshal(g.Nodes)
		if err != nil {
			return err
		}
		fmt.Print(string(enc))
	default:
		return newCLIError("unknown graph format %q", graphFormat)
	}

	if _, err := driver.LinearOrder(g); err != nil {
		return err
	}
	return nil
}
