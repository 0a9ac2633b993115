package model

import "fmt"

// ExternalDependency is a workspace-level reference to a git-fetched
// dependency. Fetching itself is out of scope;
// internal/external.GitFetcher describes the contract a caller plugs in.
type ExternalDependency struct {
	Name string
	Repo string
	Ref  string
}

// Workspace is the root project entity: a named collection owning
// its configurations, targets and distribution items exclusively. Source
// groups and the cache are NOT owned here — they're owned by the core for
// the duration of a build invocation and by the driver, respectively.
type Workspace struct {
	Name    string
	Version string
	WorkDir string

	Configurations map[string]BuildConfiguration
	Targets        []Target
	Distribution   []DistributionItem
	ExternalDeps   []ExternalDependency

	ExternalDepDir string
}

// Validate checks the workspace-level invariants: unique
// target names, unique distribution item names, a non-empty configuration
// set. Per-target structural invariants are checked by Target.Validate;
// cross-target reference invariants (unknown links, non-executable
// mainProject, etc.) are semantic validation, performed by
// internal/schema against the fully typed workspace.
func (w *Workspace) Validate() error {
	if len(w.Configurations) == 0 {
		return fmt.Errorf("workspace %q: configuration set must be non-empty", w.Name)
	}

	seenTargets := make(map[string]bool, len(w.Targets))
	for _, t := range w.Targets {
		if seenTargets[t.Name] {
			return fmt.Errorf("workspace %q: duplicate target name %q", w.Name, t.Name)
		}
		seenTargets[t.Name] = true
		if err := t.Validate(); err != nil {
			return err
		}
	}

	seenDist := make(map[string]bool, len(w.Distribution))
	for _, d := range w.Distribution {
		if seenDist[d.Name] {
			return fmt.Errorf("workspace %q: duplicate distribution item name %q", w.Name, d.Name)
		}
		seenDist[d.Name] = true
	}

	return nil
}

// TargetByName returns the named target, or false if no such target
// exists — used by link resolution and mainProject validation.
func (w *Workspace) TargetByName(name string) (*Target, bool) {
	for i := range w.Targets {
		if w.Targets[i].Name == name {
			return &w.Targets[i], true
		}
	}
	return nil, false
}

// ActiveTargets returns the targets whose condition permits the given
// platform and configuration, preserving declaration order.
func (w *Workspace) ActiveTargets(platform Platform, configuration string) []*Target {
	var out []*Target
	for i := range w.Targets {
		if w.Targets[i].MatchesConditions(platform, configuration) {
			out = append(out, &w.Targets[i])
		}
	}
	return out
}

// ResolveLink decides, for a dynamic `links` entry, whether it names a
// sibling source target in this workspace or a bare system library.
// Sibling-first, since a
// target rarely intends to link a system library that happens to share a
// local target's name (see DESIGN.md).
func (w *Workspace) ResolveLink(name string) (sibling *Target, isSibling bool) {
	t, ok := w.TargetByName(name)
	if ok && t.Kind == TargetSource && t.Source != nil &&
		(t.Source.Kind == SourceSharedLibrary || t.Source.Kind == SourceStaticLibrary) {
		return t, true
	}
	return nil, false
}
