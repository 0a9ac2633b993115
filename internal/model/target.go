package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TargetKind discriminates the target tagged union. Each
// Target carries exactly one non-nil variant matching its Kind — the
// variant fields are accessed after a kind check rather than through a
// dynamic-dispatch interface hierarchy.
type TargetKind string

const (
	TargetSource     TargetKind = "source"
	TargetCMake      TargetKind = "cmake"
	TargetSubProject TargetKind = "subproject"
	TargetScript     TargetKind = "script"
	TargetProcess    TargetKind = "process"
)

// SourceKind is the output kind a source target produces.
type SourceKind string

const (
	SourceStaticLibrary SourceKind = "staticLibrary"
	SourceSharedLibrary SourceKind = "sharedLibrary"
	SourceConsoleApp    SourceKind = "consoleApplication"
	SourceDesktopApp    SourceKind = "desktopApplication"
)

// Language is a source target's compiled language.
type Language string

const (
	LanguageC   Language = "C"
	LanguageCpp Language = "C++"
)

// ThreadModel selects the runtime threading support a source target links
// against.
type ThreadModel string

const (
	ThreadModelAuto  ThreadModel = "auto"
	ThreadModelPosix ThreadModel = "posix"
	ThreadModelNone  ThreadModel = "none"
)

// WarningPreset names one of the strictly ordered warning supersets. The
// concrete flag lists each preset expands to live in
// internal/commandgen, since they are family-specific.
type WarningPreset string

const (
	WarningNone           WarningPreset = "none"
	WarningMinimal        WarningPreset = "minimal"
	WarningExtra          WarningPreset = "extra"
	WarningError          WarningPreset = "error"
	WarningPedantic       WarningPreset = "pedantic"
	WarningStrict         WarningPreset = "strict"
	WarningStrictPedantic WarningPreset = "strictPedantic"
	WarningVeryStrict     WarningPreset = "veryStrict"
)

// warningPresetOrder is the strict total order none < minimal < ... <
// veryStrict, used to validate that a preset name is one of the known
// eight rather than a typo.
var warningPresetOrder = []WarningPreset{
	WarningNone, WarningMinimal, WarningExtra, WarningError,
	WarningPedantic, WarningStrict, WarningStrictPedantic, WarningVeryStrict,
}

// IsKnownWarningPreset reports whether p is one of the eight recognized
// presets.
func IsKnownWarningPreset(p WarningPreset) bool {
	for _, known := range warningPresetOrder {
		if known == p {
			return true
		}
	}
	return false
}

// Platform is a target host operating system, as used by condition filters
// and dotted-key overrides.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
)

// Condition holds the two condition filters every target carries:
// configuration inclusion/exclusion and platform inclusion/exclusion.
type Condition struct {
	OnlyInConfiguration []string
	NotInConfiguration  []string
	OnlyInPlatform      []Platform
	NotInPlatform       []Platform
}

// Matches reports whether the condition permits the given platform and
// active configuration. Both filters must permit for the target to be
// included in the build.
func (c Condition) Matches(platform Platform, configuration string) bool {
	if len(c.OnlyInConfiguration) > 0 && !containsString(c.OnlyInConfiguration, configuration) {
		return false
	}
	if containsString(c.NotInConfiguration, configuration) {
		return false
	}
	if len(c.OnlyInPlatform) > 0 && !containsPlatform(c.OnlyInPlatform, platform) {
		return false
	}
	if containsPlatform(c.NotInPlatform, platform) {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPlatform(list []Platform, v Platform) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// RunConfig describes how a source target's output is invoked.
type RunConfig struct {
	Args              []string
	RuntimeDeps       []string
	IsPrimaryRunnable bool
}

// PlatformOverrides holds the platform-scoped source-target fields:
// Windows resource file, app icon/manifest, and macOS frameworks.
type PlatformOverrides struct {
	WindowsResource string
	AppIcon         string
	AppManifest     string
	Frameworks      []string
}

// SourceTarget compiles source files into one of the four SourceKind
// outputs.
type SourceTarget struct {
	Kind            SourceKind
	Language        Language
	Standard        string
	ExtensionFilter []string

	Locations []string
	Excludes  []string
	Files     []string // explicit file list; mutually exclusive with Locations

	IncludeDirs    []string
	LibDirs        []string
	Links          []string // dynamic
	StaticLinks    []string
	LinkOptions    []string
	CompileOptions []string
	Defines        []string

	WarningPreset WarningPreset
	Warnings      []string // explicit, used when WarningPreset == ""

	PrecompiledHeader string

	RTTI        *bool
	Exceptions  *bool
	ThreadModel ThreadModel
	ObjCxx      bool

	Platform PlatformOverrides
	Run      *RunConfig

	OutputName        string
	SuppressLibPrefix bool
	StaticLinking     bool // suppress MSVC's implicit kernel32/CRT injection
}

// CMakeTarget invokes an external CMakeLists.txt-driven sub-build.
type CMakeTarget struct {
	Location string
	Defines  []string
	Toolset  string
	Recheck  bool // re-invoke the generator every build
}

// SubProjectTarget recursively invokes another project description.
type SubProjectTarget struct {
	Location string
}

// ScriptInterpreter names the interpreter a script target runs under.
type ScriptInterpreter string

const (
	InterpreterShell      ScriptInterpreter = "shell"
	InterpreterPython     ScriptInterpreter = "python"
	InterpreterRuby       ScriptInterpreter = "ruby"
	InterpreterPerl       ScriptInterpreter = "perl"
	InterpreterLua        ScriptInterpreter = "lua"
	InterpreterBatch      ScriptInterpreter = "batch"
	InterpreterPowerShell ScriptInterpreter = "powershell"
)

// ScriptTarget runs a script under a named interpreter.
type ScriptTarget struct {
	Path        string
	Interpreter ScriptInterpreter
	Args        []string
}

// ProcessTarget runs an arbitrary executable.
type ProcessTarget struct {
	Path string
	Args []string
}

// Target is the tagged union over the five target variants. Exactly one
// of Source/CMake/SubProject/Script/Process is non-nil, matching Kind.
type Target struct {
	Name      string
	Kind      TargetKind
	Condition Condition

	Source     *SourceTarget
	CMake      *CMakeTarget
	SubProject *SubProjectTarget
	Script     *ScriptTarget
	Process    *ProcessTarget
}

// MatchesConditions is part of the small common surface every target
// variant shares, alongside Hash and Validate below.
func (t *Target) MatchesConditions(platform Platform, configuration string) bool {
	return t.Condition.Matches(platform, configuration)
}

// Hash returns a stable identity digest for the target, used to key
// cache entries and backend build aliases.
func (t *Target) Hash() string {
	h := xxhash.New()
	_, _ = h.WriteString(t.Name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(t.Kind))
	if t.Source != nil {
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(string(t.Source.Kind))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Validate checks the target-level structural invariants that do not
// require cross-target knowledge (those live in Workspace.Validate).
func (t *Target) Validate() error {
	switch t.Kind {
	case TargetSource:
		if t.Source == nil {
			return fmt.Errorf("target %q: kind source requires a source body", t.Name)
		}
		if len(t.Source.Locations) == 0 && len(t.Source.Files) == 0 {
			return fmt.Errorf("target %q: empty source set", t.Name)
		}
		if t.Source.WarningPreset != "" && !IsKnownWarningPreset(t.Source.WarningPreset) {
			return fmt.Errorf("target %q: unrecognized warning preset %q", t.Name, t.Source.WarningPreset)
		}
		for _, opt := range t.Source.CompileOptions {
			if strings.HasPrefix(opt, "-W") {
				return fmt.Errorf("target %q: compile option %q belongs in warnings", t.Name, opt)
			}
		}
	case TargetCMake:
		if t.CMake == nil || t.CMake.Location == "" {
			return fmt.Errorf("target %q: kind cmake requires a location", t.Name)
		}
	case TargetSubProject:
		if t.SubProject == nil || t.SubProject.Location == "" {
			return fmt.Errorf("target %q: kind subproject requires a location", t.Name)
		}
	case TargetScript:
		if t.Script == nil || t.Script.Path == "" {
			return fmt.Errorf("target %q: kind script requires a path", t.Name)
		}
	case TargetProcess:
		if t.Process == nil || t.Process.Path == "" {
			return fmt.Errorf("target %q: kind process requires a path", t.Name)
		}
	default:
		return fmt.Errorf("target %q: unknown kind %q", t.Name, t.Kind)
	}
	return nil
}

// OutputFileName renders the platform-appropriate binary name for a
// source target: executables have no prefix and a .exe
// suffix on Windows only; shared libraries get a lib prefix
// (suppressible) and .dll/.dylib/.so; static libraries get the same
// prefix and -s.lib/-s.a.
func (s *SourceTarget) OutputFileName(targetName string, platform Platform) string {
	name := s.OutputName
	if name == "" {
		name = targetName
	}
	libPrefix := "lib"
	if s.SuppressLibPrefix {
		libPrefix = ""
	}
	switch s.Kind {
	case SourceStaticLibrary:
		if platform == PlatformWindows {
			return libPrefix + name + "-s.lib"
		}
		return libPrefix + name + "-s.a"
	case SourceSharedLibrary:
		switch platform {
		case PlatformWindows:
			return libPrefix + name + ".dll"
		case PlatformMacOS:
			return libPrefix + name + ".dylib"
		default:
			return libPrefix + name + ".so"
		}
	default:
		if platform == PlatformWindows {
			return name + ".exe"
		}
		return name
	}
}

// IsExecutable reports whether the target produces a runnable binary,
// used by mainProject/bundle validation.
func (t *Target) IsExecutable() bool {
	if t.Kind != TargetSource || t.Source == nil {
		return false
	}
	switch t.Source.Kind {
	case SourceConsoleApp, SourceDesktopApp:
		return true
	default:
		return false
	}
}
