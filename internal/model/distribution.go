package model

// DistributionKind discriminates the distribution item tagged union.
// Bundling execution itself is out of scope; this
// type exists so workspace-level distribution ordering and name-uniqueness
// invariants have a concrete value to validate against.
type DistributionKind string

const (
	DistributionBundle  DistributionKind = "bundle"
	DistributionScript  DistributionKind = "script"
	DistributionProcess DistributionKind = "process"
	DistributionArchive DistributionKind = "archive"
)

// BundleItem names the primary executable a platform-native bundle wraps,
// plus the set of other targets/files included alongside it.
type BundleItem struct {
	MainProject string
	Include     []string
	Exclude     []string
}

// ArchiveItem names a set of paths collected into a portable archive.
type ArchiveItem struct {
	Include []string
	Exclude []string
	Format  string // e.g. "zip", "tar.gz"
}

// DistributionItem is a named, ordered entry in Workspace.Distribution.
type DistributionItem struct {
	Name string
	Kind DistributionKind

	Bundle  *BundleItem
	Script  *ScriptTarget
	Process *ProcessTarget
	Archive *ArchiveItem
}
