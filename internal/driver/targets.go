package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgebuild/forge/internal/backend"
	"github.com/forgebuild/forge/internal/forgepaths"
	"github.com/forgebuild/forge/internal/model"
	"github.com/forgebuild/forge/internal/schema"
)

// planAuxTarget builds the command view for the non-compiled target
// kinds: cmake, script, and process targets each become a single
// plan entry whose final step runs their command(s).
func planAuxTarget(req BuildRequest, target *model.Target, cfg model.BuildConfiguration) (backend.TargetCommandView, error) {
	tv := backend.TargetCommandView{TargetName: target.Name}

	switch target.Kind {
	case model.TargetCMake:
		planCMake(req, target, cfg, &tv)
	case model.TargetScript:
		argv, err := scriptCommand(target.Script)
		if err != nil {
			return tv, fmt.Errorf("target %q: %w", target.Name, err)
		}
		tv.FinalArgv = argv
	case model.TargetProcess:
		tv.FinalArgv = append([]string{target.Process.Path}, target.Process.Args...)
	default:
		return tv, fmt.Errorf("target %q: kind %q has no build plan", target.Name, target.Kind)
	}
	return tv, nil
}

// planCMake renders the configure+build pair for a CMake sub-target. The
// generator is re-invoked when the target asks for it (recheck) or when
// the build tree has never been configured. CMake targets never consult
// the incremental cache: `cmake --build` is planned on every invocation,
// with or without recheck (see DESIGN.md's Open Question decision).
func planCMake(req BuildRequest, target *model.Target, cfg model.BuildConfiguration, tv *backend.TargetCommandView) {
	cm := target.CMake
	srcDir := filepath.Join(req.Workspace.WorkDir, cm.Location)
	buildDir := filepath.Join(forgepaths.ConfigOutputDir(req.Workspace.WorkDir, req.Configuration), "cmake", target.Name)

	_, statErr := os.Stat(filepath.Join(buildDir, "CMakeCache.txt"))
	if cm.Recheck || statErr != nil {
		configure := []string{"cmake", "-S", srcDir, "-B", buildDir,
			"-DCMAKE_BUILD_TYPE=" + cmakeBuildType(cfg)}
		if cm.Toolset != "" {
			configure = append(configure, "-T", cm.Toolset)
		}
		for _, def := range cm.Defines {
			configure = append(configure, "-D"+def)
		}
		tv.Setup = append(tv.Setup, configure)
	}

	buildArgv := []string{"cmake", "--build", buildDir}
	if req.MaxJobs > 0 {
		buildArgv = append(buildArgv, "--parallel", strconv.Itoa(req.MaxJobs))
	}
	tv.FinalArgv = buildArgv
}

// cmakeBuildType maps a forge configuration onto CMake's nearest built-in
// build type.
func cmakeBuildType(cfg model.BuildConfiguration) string {
	switch {
	case cfg.OptimizationLevel == model.OptSize:
		return "MinSizeRel"
	case cfg.DebugSymbols && cfg.OptimizationLevel != model.OptNone:
		return "RelWithDebInfo"
	case cfg.DebugSymbols:
		return "Debug"
	default:
		return "Release"
	}
}

// scriptCommand renders the interpreter invocation for a script target,
// guessing the interpreter from the file extension when the target does
// not name one.
func scriptCommand(s *model.ScriptTarget) ([]string, error) {
	interp := s.Interpreter
	if interp == "" {
		switch strings.ToLower(filepath.Ext(s.Path)) {
		case ".sh":
			interp = model.InterpreterShell
		case ".py":
			interp = model.InterpreterPython
		case ".rb":
			interp = model.InterpreterRuby
		case ".pl":
			interp = model.InterpreterPerl
		case ".lua":
			interp = model.InterpreterLua
		case ".bat", ".cmd":
			interp = model.InterpreterBatch
		case ".ps1":
			interp = model.InterpreterPowerShell
		default:
			return nil, fmt.Errorf("cannot infer interpreter for script %q", s.Path)
		}
	}

	var argv []string
	switch interp {
	case model.InterpreterShell:
		argv = []string{"sh", s.Path}
	case model.InterpreterPython:
		argv = []string{"python3", s.Path}
	case model.InterpreterRuby:
		argv = []string{"ruby", s.Path}
	case model.InterpreterPerl:
		argv = []string{"perl", s.Path}
	case model.InterpreterLua:
		argv = []string{"lua", s.Path}
	case model.InterpreterBatch:
		argv = []string{"cmd", "/C", s.Path}
	case model.InterpreterPowerShell:
		argv = []string{"powershell", "-ExecutionPolicy", "Bypass", "-File", s.Path}
	default:
		return nil, fmt.Errorf("unknown interpreter %q", interp)
	}
	return append(argv, s.Args...), nil
}

// buildSubProject recursively builds another project description rooted
// at the target's location, reusing the parent's resolved toolchain,
// platform, and active configuration.
func (d *Driver) buildSubProject(ctx context.Context, req BuildRequest, target *model.Target) error {
	location := filepath.Join(req.Workspace.WorkDir, target.SubProject.Location)
	file := filepath.Join(location, "forge.json")
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading sub-project description: %w", err)
	}

	ws, diags, err := schema.Load(file, src, req.Platform, req.Configuration)
	for _, diag := range diags {
		fmt.Fprintln(os.Stderr, diag.String())
	}
	if err != nil {
		return err
	}
	if ws.WorkDir == "" {
		ws.WorkDir = location
	}

	subReq := req
	subReq.Workspace = ws
	return d.Build(ctx, subReq)
}
