// Package backend drives a resolved command graph to completion, either
// by emitting a Makefile/Ninja build file and invoking the corresponding
// tool, or by executing commands directly through an in-process worker
// pool (internal/backend/native). Strategy selection happens earlier, in
// internal/toolchain.
package backend

import (
	"context"

	"github.com/forgebuild/forge/internal/model"
)

// ObjectBuild is one compile edge: a source entry plus the argv that
// produces its object (and, for the PCH entry, no dependents other than
// the implicit pch-before-object ordering).
type ObjectBuild struct {
	Entry model.SourceEntry
	Argv  []string
}

// TargetCommandView is everything a backend needs to emit or execute one
// target's build: its ordered object/PCH compiles and its final archive
// or link command. Non-source targets (cmake/script/process) carry only
// Setup and/or FinalArgv with an empty object list.
type TargetCommandView struct {
	TargetName  string
	PCH         *ObjectBuild // nil if the target has no precompiled header
	Objects     []ObjectBuild
	Setup       [][]string // commands run in order before FinalArgv (e.g. cmake configure)
	FinalArgv   []string   // archive or link command; may be nil for up-to-date targets
	FinalOutput string
	IsStaticLib bool

	// DependsOn names other plan targets whose final step must complete
	// before this target's final step runs (cross-target topological
	// ordering over projectStaticLinks/links).
	DependsOn []string
}

// Plan is the full set of target command views in dependency order
// (static-link dependees before dependers); internal/driver builds this
// from the workspace.
type Plan struct {
	Targets []TargetCommandView
	MaxJobs int

	// MsvcDepsPrefix is the /showIncludes line prefix ("Note: including
	// file:") when the toolchain is MSVC; empty for GCC/Clang, whose
	// dependency files come from -MF with an atomic .Td rename.
	MsvcDepsPrefix string
}

// Backend executes or emits a Plan. Implementations: make.Emitter,
// ninja.Emitter, native.Scheduler.
type Backend interface {
	Run(ctx context.Context, plan Plan) error
}
