// forge is a JSON-driven native build orchestrator: it validates a
// project description, resolves a C/C++ toolchain, discovers sources,
// and drives incremental compiles/links through one of three backends.
package main

import (
	"os"

	"github.com/forgebuild/forge/cmd/forge/cmd"
)

var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCodeFor(err))
	}
}
