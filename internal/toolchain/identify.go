// Package toolchain resolves a user-supplied toolchain preset into a
// fully probed model.ToolchainDescriptor: compiler identification via
// predefined-macro dumping, supported-flag discovery, and architecture
// normalization.
package toolchain

import (
	"context"
	"os/exec"
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// predefinedMacroArgs dumps a compiler's predefined preprocessor macros,
// the probe the classifier works from.
var predefinedMacroArgs = []string{"-dM", "-E", "-x", "c++", "-"}

// probeMacros invokes compilerPath with predefinedMacroArgs, feeding it an
// empty translation unit on stdin, and returns its stdout.
func probeMacros(ctx context.Context, compilerPath string) (string, error) {
	cmd := exec.CommandContext(ctx, compilerPath, predefinedMacroArgs...)
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Classify maps a predefined-macro dump to a compiler family. Order
// matters: Emscripten and MinGW define the macros of their underlying
// Clang/GCC too, so the more specific checks come first.
func Classify(macros string) model.ToolchainType {
	has := func(name string) bool { return strings.Contains(macros, name) }
	isMinGW := has("__MINGW32__") || has("__MINGW64__")

	switch {
	case has("__EMSCRIPTEN__"):
		return model.ToolchainEmscripten
	case strings.Contains(macros, "Apple LLVM"):
		return model.ToolchainAppleClang
	case has("__clang__") && isMinGW:
		return model.ToolchainMinGWClang
	case has("__clang__"):
		return model.ToolchainLLVM
	case has("__INTEL_COMPILER"):
		return model.ToolchainIntelClassic
	case has("__GNUC__") && isMinGW:
		return model.ToolchainMinGWGCC
	case has("__GNUC__"):
		return model.ToolchainGNU
	default:
		return model.ToolchainUnknown
	}
}

// IdentifyCompiler probes compilerPath and classifies it. A compiler
// that classifies as Unknown is a ToolchainResolution failure — an
// unknown compiler never pretends to be GCC.
func IdentifyCompiler(ctx context.Context, compilerPath string) (model.ToolchainType, string, error) {
	macros, err := probeMacros(ctx, compilerPath)
	if err != nil {
		return model.ToolchainUnknown, "", &ResolutionError{CompilerPath: compilerPath, Reason: err.Error()}
	}
	kind := Classify(macros)
	if kind == model.ToolchainUnknown {
		return kind, macros, &ResolutionError{CompilerPath: compilerPath, Reason: "could not classify compiler from predefined macros"}
	}
	return kind, macros, nil
}

// ResolutionError is a model.KindToolchainResolution failure: compiler not
// found, cannot classify, or the supported-flag probe failed.
type ResolutionError struct {
	CompilerPath string
	Reason       string
}

func (e *ResolutionError) Error() string {
	if e.CompilerPath == "" {
		return "toolchain resolution failed: " + e.Reason
	}
	return "toolchain resolution failed for " + e.CompilerPath + ": " + e.Reason
}
