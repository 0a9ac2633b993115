package sourceset

import (
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// objectExtension returns the output object-file extension for a given
// toolchain family and source type: .o for GCC/Clang, .obj for MSVC,
// .res for MSVC-compiled resources.
func objectExtension(kind model.ToolchainType, sourceType model.SourceType) string {
	if sourceType == model.SourceTypeWindowsResource {
		if kind == model.ToolchainMSVC {
			return ".res"
		}
		return ".o"
	}
	if kind == model.ToolchainMSVC {
		return ".obj"
	}
	return ".o"
}

// normalizeRelPath turns a source path into the forward-slash-normalized
// path relative to root (no leading slash) used both for exclusion matching and output
// path derivation.
func normalizeRelPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// ObjectPath derives "<objDir>/<P>.{ext}" for a source at relative path P.
func ObjectPath(objDir, relPath string, kind model.ToolchainType, sourceType model.SourceType) string {
	return filepath.Join(objDir, relPath+objectExtension(kind, sourceType))
}

// DependencyPath derives "<depDir>/<P>.d".
func DependencyPath(depDir, relPath string) string {
	return filepath.Join(depDir, relPath+".d")
}

// AssemblyPath derives "<asmDir>/<P>.asm".
func AssemblyPath(asmDir, relPath string) string {
	return filepath.Join(asmDir, relPath+".asm")
}

// pchObjectExtension returns the PCH output path suffix per compiler
// family: Clang "<base>.pch", GCC "<base>.gch", MSVC "<base>.pch" plus a
// side object.
func pchObjectExtension(kind model.ToolchainType) string {
	switch kind {
	case model.ToolchainGNU, model.ToolchainMinGWGCC:
		return ".gch"
	default:
		return ".pch"
	}
}

// caseInsensitiveDuplicate reports whether path collides with any entry
// already in seen when lowercased — two sources whose names differ only
// in case would alias on a case-insensitive filesystem, so the second is
// rejected.
func caseInsensitiveDuplicate(seen map[string]string, path string) (string, bool) {
	key := strings.ToLower(path)
	if existing, ok := seen[key]; ok && existing != path {
		return existing, true
	}
	return "", false
}
