package commandgen

import "github.com/forgebuild/forge/internal/model"

// emscriptenFamily reuses Clang's flag spelling (emcc is a Clang driver)
// but links through em++ and produces -shared side modules rather than
// native shared objects.
type emscriptenFamily struct {
	gnuFamily
}

func (f emscriptenFamily) SharedLibraryFlags() []string {
	return []string{"-sSIDE_MODULE=1"}
}

func (f emscriptenFamily) LinkerPath(toolchain model.ToolchainDescriptor, sourceKind model.SourceKind) string {
	return toolchain.CompilerCpp
}

var _ Family = emscriptenFamily{}
