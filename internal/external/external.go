// Package external describes the contracts the core build orchestrator
// hands off to, without implementing them: bundling, IDE project export,
// and git-based dependency fetching are all explicitly out of scope
//. These interfaces exist so a caller
// embedding this module can plug in its own implementation without the
// core needing to know about it.
package external

import (
	"context"

	"github.com/forgebuild/forge/internal/model"
)

// Bundler packages a built distribution item into a platform-native
// artifact (.app bundle, .deb, installer, etc.). Not implemented here.
type Bundler interface {
	Bundle(ctx context.Context, item model.DistributionItem, buildOutputDir string) (artifactPath string, err error)
}

// IDEExporter generates project files for an external IDE (Xcode,
// Visual Studio, CLion/CMake) from a resolved workspace. Not implemented
// here.
type IDEExporter interface {
	Export(ctx context.Context, ws *model.Workspace, outputDir string) error
}

// GitFetcher resolves a workspace's externalDependencies into checked-out
// source trees. Not implemented here.
type GitFetcher interface {
	Fetch(ctx context.Context, dep model.ExternalDependency, destDir string) error
}
