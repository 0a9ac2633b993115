package sourceset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/forgebuild/forge/internal/model"
)

// Dirs bundles the per-configuration output directories a SourceGroup's
// entries are rooted under, matching forgepaths.ObjDir/DepDir/AsmDir.
type Dirs struct {
	WorkDir string
	ObjDir  string
	DepDir  string
	AsmDir  string
	EmitAsm bool
}

// Discover enumerates a source target's files (explicit list or
// recursive location scan with excludes), classifies each, and derives
// its output paths. Returns the
// ordered SourceGroup plus any non-fatal warnings (e.g. a missing
// explicit file).
func Discover(targetName string, src *model.SourceTarget, dirs Dirs, kind model.ToolchainType) (model.SourceGroup, model.Diagnostics, error) {
	var paths []string
	var diags model.Diagnostics
	var err error

	if len(src.Files) > 0 {
		paths, diags, err = expandExplicitFiles(targetName, src.Files, dirs.WorkDir)
	} else {
		paths, err = discoverFromLocations(src.Locations, src.Excludes, src.ExtensionFilter, dirs.WorkDir)
	}
	if err != nil {
		return model.SourceGroup{}, diags, err
	}

	sort.Strings(paths)

	group := model.SourceGroup{TargetName: targetName}
	seen := make(map[string]string, len(paths))
	for _, abs := range paths {
		rel := normalizeRelPath(dirs.WorkDir, abs)
		if existing, dup := caseInsensitiveDuplicate(seen, rel); dup {
			return model.SourceGroup{}, diags, fmt.Errorf(
				"target %q: %q and %q differ only in case", targetName, existing, rel)
		}
		seen[strings.ToLower(rel)] = rel

		sourceType, ok := ClassifyExtension(filepath.Ext(abs))
		if !ok {
			continue
		}
		entry := model.SourceEntry{
			SourceFile:     abs,
			ObjectFile:     ObjectPath(dirs.ObjDir, rel, kind, sourceType),
			DependencyFile: DependencyPath(dirs.DepDir, rel),
			Type:           sourceType,
		}
		if dirs.EmitAsm {
			entry.AssemblyFile = AssemblyPath(dirs.AsmDir, rel)
		}
		group.Entries = append(group.Entries, entry)
	}

	if src.PrecompiledHeader != "" {
		pchRel := normalizeRelPath(dirs.WorkDir, filepath.Join(dirs.WorkDir, src.PrecompiledHeader))
		pchObj := filepath.Join(dirs.ObjDir, pchRel+pchObjectExtension(kind))
		pch := model.SourceEntry{
			SourceFile: filepath.Join(dirs.WorkDir, src.PrecompiledHeader),
			ObjectFile: pchObj,
			Type:       model.SourceTypeCxxPrecompiledHeader,
		}
		group.Entries = append([]model.SourceEntry{pch}, group.Entries...)
	}

	return group, diags, nil
}

// expandExplicitFiles globs each entry of an explicit `files` list,
// which is otherwise used verbatim. Non-existent literal files warn but
// do not fail.
func expandExplicitFiles(targetName string, files []string, workDir string) ([]string, model.Diagnostics, error) {
	var out []string
	var diags model.Diagnostics

	opts := globOptions()
	for _, pattern := range files {
		matches, err := doublestar.Glob(os.DirFS(workDir), pattern, opts...)
		if err != nil {
			return nil, diags, fmt.Errorf("target %q: invalid glob %q: %w", targetName, pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(filepath.Join(workDir, pattern)); statErr != nil {
				diags = append(diags, model.Diagnostic{
					Key: "targets." + targetName + ".files", Reason: fmt.Sprintf("file %q does not exist", pattern),
					Kind: model.KindSemanticValidation, Severity: model.SeverityWarning,
				})
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			out = append(out, filepath.Join(workDir, m))
		}
	}
	return out, diags, nil
}

// discoverFromLocations performs recursive
// enumeration per location root, extension filtering, and exclusion
// matching (substring against the normalized path, and fnmatch-style
// glob against the bare filename).
func discoverFromLocations(locations, excludes, extFilter []string, workDir string) ([]string, error) {
	extSet := make(map[string]bool, len(extFilter))
	for _, e := range extFilter {
		extSet[normalizeExt(e)] = true
	}

	var out []string
	for _, location := range locations {
		root := filepath.Join(workDir, location)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if len(extSet) > 0 && !extSet[normalizeExt(filepath.Ext(path))] {
				return nil
			}
			rel := normalizeRelPath(workDir, path)
			if isExcluded(rel, filepath.Base(path), excludes) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("scanning location %q: %w", location, err)
		}
	}
	return out, nil
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ext
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// isExcluded applies a substring match against
// the normalized path, plus an fnmatch-style glob match against the bare
// filename.
func isExcluded(normalizedPath, fileName string, excludes []string) bool {
	for _, pattern := range excludes {
		if pattern == "" {
			continue
		}
		if strings.Contains(normalizedPath, pattern) {
			return true
		}
		if ok, _ := doublestar.Match(pattern, fileName); ok {
			return true
		}
	}
	return false
}

func globOptions() []doublestar.GlobOption {
	if runtime.GOOS == "windows" {
		return []doublestar.GlobOption{doublestar.WithNoFollow()}
	}
	return nil
}
