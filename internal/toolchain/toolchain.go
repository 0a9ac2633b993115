package toolchain

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/internal/logging"
	"github.com/forgebuild/forge/internal/model"
)

// Preset names a built-in toolchain selection.
type Preset string

const (
	PresetMSVC      Preset = "msvc"
	PresetLLVM      Preset = "llvm"
	PresetAppleLLVM Preset = "apple-llvm"
	PresetGCC       Preset = "gcc"
)

// Request is what a caller (the driver) supplies to resolve a toolchain:
// a preset or a user-defined id naming explicit compiler paths, plus the
// requested architecture string and backend strategy preference.
type Request struct {
	Preset              Preset
	CompilerCOverride   string
	CompilerCppOverride string
	Architecture        string
	Strategy            model.BackendStrategy
}

// Resolver produces a fully resolved model.ToolchainDescriptor from a
// Request.
type Resolver struct {
	envScope *EnvScope
}

// NewResolver returns a Resolver. The same Resolver should be reused for
// the whole build invocation so MSVC environment activation happens only
// once.
func NewResolver() *Resolver {
	return &Resolver{envScope: NewEnvScope()}
}

// EnvScope exposes the resolver's environment scope so the driver can
// Restore() it at the end of the build.
func (r *Resolver) EnvScope() *EnvScope { return r.envScope }

// Resolve runs toolchain resolution end to end: preset selection, MSVC
// environment activation when applicable, compiler identification,
// supported-flag discovery, and architecture normalization.
func (r *Resolver) Resolve(ctx context.Context, req Request) (model.ToolchainDescriptor, error) {
	log := logging.For("toolchain")

	goos, goarch := HostArchitecture()
	archRaw := req.Architecture
	if archRaw == "" {
		archRaw = goarch
	}

	if req.Preset == PresetMSVC {
		return r.resolveMSVC(ctx, req, goos, goarch, archRaw)
	}

	compilerCpp := req.CompilerCppOverride
	compilerC := req.CompilerCOverride
	if compilerCpp == "" {
		compilerCpp = defaultCompiler(req.Preset, true)
	}
	if compilerC == "" {
		compilerC = defaultCompiler(req.Preset, false)
	}

	resolvedCpp, err := exec.LookPath(compilerCpp)
	if err != nil {
		return model.ToolchainDescriptor{}, &ResolutionError{CompilerPath: compilerCpp, Reason: "not found on PATH: " + err.Error()}
	}

	kind, macros, err := IdentifyCompiler(ctx, resolvedCpp)
	if err != nil {
		return model.ToolchainDescriptor{}, err
	}
	version := extractVersion(macros)

	arch, err := ResolveArchitecture(archRaw, goos, goarch)
	if err != nil {
		return model.ToolchainDescriptor{}, err
	}

	flags, err := LoadOrDiscoverFlags(ctx, resolvedCpp, string(arch.CPU), kind)
	if err != nil {
		log.Warn().Err(err).Msg("supported-flag discovery failed; proceeding without a probed set")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = model.StrategyNative
	}

	return model.ToolchainDescriptor{
		Type:           kind,
		CompilerC:      firstFound(compilerC, resolvedCpp),
		CompilerCpp:    resolvedCpp,
		Linker:         resolvedCpp,
		Archiver:       archiverFor(kind),
		Version:        version,
		Strategy:       strategy,
		BuildPathStyle: model.PathStyleTargetTriple,
		Architecture:   arch,
		SupportedFlags: flags,
	}, nil
}

func firstFound(candidate, fallback string) string {
	if resolved, err := exec.LookPath(candidate); err == nil {
		return resolved
	}
	return fallback
}

func defaultCompiler(preset Preset, cpp bool) string {
	switch preset {
	case PresetLLVM, PresetAppleLLVM:
		if cpp {
			return "clang++"
		}
		return "clang"
	default:
		if cpp {
			return "g++"
		}
		return "gcc"
	}
}

func archiverFor(kind model.ToolchainType) string {
	switch kind {
	case model.ToolchainLLVM, model.ToolchainAppleClang, model.ToolchainMinGWClang:
		if path, err := exec.LookPath("llvm-ar"); err == nil {
			return path
		}
	}
	if path, err := exec.LookPath("ar"); err == nil {
		return path
	}
	return "ar"
}

// extractVersion pulls __VERSION__ out of a predefined-macro dump, used
// as the toolchain fingerprint's version component.
func extractVersion(macros string) string {
	scanner := bufio.NewScanner(strings.NewReader(macros))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "__VERSION__") {
			parts := strings.SplitN(line, "__VERSION__", 2)
			if len(parts) == 2 {
				return strings.Trim(strings.TrimSpace(parts[1]), `"`)
			}
		}
	}
	return "unknown"
}

// resolveMSVC implements the Windows-only vswhere/vcvarsall.bat
// discovery path. On non-Windows hosts it fails with
// ToolchainResolution, since there is no MSVC to activate.
func (r *Resolver) resolveMSVC(ctx context.Context, req Request, goos, hostArch, archRaw string) (model.ToolchainDescriptor, error) {
	if goos != "windows" {
		return model.ToolchainDescriptor{}, &ResolutionError{Reason: "msvc preset requires a Windows host"}
	}

	vswherePath := filepath.Join(`C:\Program Files (x86)\Microsoft Visual Studio\Installer`, "vswhere.exe")
	installPath, err := runVswhere(ctx, vswherePath)
	if err != nil {
		return model.ToolchainDescriptor{}, &ResolutionError{Reason: "vswhere discovery failed: " + err.Error()}
	}

	arch, err := ResolveArchitecture(archRaw, goos, hostArch)
	if err != nil {
		return model.ToolchainDescriptor{}, err
	}
	host, err := model.NormalizeCPU(hostArch)
	if err != nil {
		host = model.CPUX64
	}
	hostTarget, err := model.MSVCHostTargetSpelling(host, arch.CPU)
	if err != nil {
		return model.ToolchainDescriptor{}, &ArchitectureError{Requested: archRaw, Reason: err.Error()}
	}

	vcvarsall := filepath.Join(installPath, "VC", "Auxiliary", "Build", "vcvarsall.bat")
	delta, err := captureVcvarsallEnv(ctx, vcvarsall, hostTarget)
	if err != nil {
		return model.ToolchainDescriptor{}, &ResolutionError{Reason: "vcvarsall.bat failed: " + err.Error()}
	}
	r.envScope.Activate(delta)

	cl, err := exec.LookPath("cl.exe")
	if err != nil {
		return model.ToolchainDescriptor{}, &ResolutionError{Reason: "cl.exe not found after vcvarsall activation"}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = model.StrategyNinja
	}

	return model.ToolchainDescriptor{
		Type:           model.ToolchainMSVC,
		CompilerC:      cl,
		CompilerCpp:    cl,
		CompilerRc:     findOnPath("rc.exe"),
		Linker:         findOnPath("link.exe"),
		Archiver:       findOnPath("lib.exe"),
		Strategy:       strategy,
		BuildPathStyle: model.PathStyleToolchainName,
		Architecture:   arch,
	}, nil
}

func findOnPath(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

// runVswhere invokes vswhere.exe to find the latest Visual Studio
// installation path.
func runVswhere(ctx context.Context, vswherePath string) (string, error) {
	cmd := exec.CommandContext(ctx, vswherePath, "-latest", "-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64", "-property", "installationPath")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", fmt.Errorf("no Visual Studio installation found")
	}
	return path, nil
}

// captureVcvarsallEnv runs vcvarsall.bat in a throwaway cmd.exe subshell
// and diffs the environment it prints against the current process
// environment, returning only the keys it changed.
func captureVcvarsallEnv(ctx context.Context, vcvarsallPath, hostTarget string) (map[string]string, error) {
	script := fmt.Sprintf(`call "%s" %s && set`, vcvarsallPath, hostTarget)
	cmd := exec.CommandContext(ctx, "cmd.exe", "/C", script)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseSetOutput(string(out)), nil
}

func parseSetOutput(out string) map[string]string {
	delta := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "="); idx > 0 {
			delta[line[:idx]] = line[idx+1:]
		}
	}
	return delta
}
