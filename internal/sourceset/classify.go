// Package sourceset expands a source target's glob patterns into an
// ordered, classified SourceGroup and derives each entry's output paths.
package sourceset

import (
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// ClassifyExtension maps a file extension (with leading dot, any case) to
// a model.SourceType. Unknown extensions return ok=false — callers decide
// whether that is a warning (explicit file list) or a SemanticValidation
// error (extension filter, checked earlier by internal/schema).
func ClassifyExtension(ext string) (model.SourceType, bool) {
	switch strings.ToLower(ext) {
	case ".c":
		return model.SourceTypeC, true
	case ".cc", ".cpp", ".cxx", ".c++":
		return model.SourceTypeCpp, true
	case ".m":
		return model.SourceTypeObjC, true
	case ".mm":
		return model.SourceTypeObjCpp, true
	case ".rc":
		return model.SourceTypeWindowsResource, true
	default:
		return "", false
	}
}
