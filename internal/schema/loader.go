package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forgebuild/forge/internal/forgepaths"
	"github.com/forgebuild/forge/internal/model"
)

// expandEach applies ${home}/${env:NAME} variable expansion to a list of
// path-valued properties.
func expandEach(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = forgepaths.ExpandVariables(s)
	}
	return out
}

// rawConditions mirrors the onlyIn*/notIn* keys a target or distribution
// item may carry, before they're folded into a model.Condition. Each
// field accepts either a bare string or an array of strings.
type rawConditions struct {
	OnlyInConfiguration stringOrSlice `json:"onlyInConfiguration"`
	NotInConfiguration  stringOrSlice `json:"notInConfiguration"`
	OnlyInPlatform      stringOrSlice `json:"onlyInPlatform"`
	NotInPlatform       stringOrSlice `json:"notInPlatform"`
}

// stringOrSlice decodes either a bare JSON string or a JSON array of
// strings into a []string, matching the "single value or a list" grammar
// used throughout the project description format.
type stringOrSlice []string

func (s *stringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*s = []string{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (rc rawConditions) toCondition() model.Condition {
	plats := func(in []string) []model.Platform {
		out := make([]model.Platform, 0, len(in))
		for _, p := range in {
			out = append(out, model.Platform(p))
		}
		return out
	}
	return model.Condition{
		OnlyInConfiguration: rc.OnlyInConfiguration,
		NotInConfiguration:  rc.NotInConfiguration,
		OnlyInPlatform:      plats(rc.OnlyInPlatform),
		NotInPlatform:       plats(rc.NotInPlatform),
	}
}

// rawTarget is the wire shape of one entry under "targets", decoded after
// override resolution. Field names match the project description format
// used throughout the project description format.
type rawTarget struct {
	Kind string `json:"kind"`

	Language        string   `json:"language"`
	Standard        string   `json:"standard"`
	ExtensionFilter []string `json:"extensionFilter"`
	Locations       []string `json:"locations"`
	Excludes        []string `json:"excludes"`
	Files           []string `json:"files"`
	IncludeDirs     []string `json:"includeDirs"`
	LibDirs         []string `json:"libDirs"`
	Links           []string `json:"links"`
	StaticLinks     []string `json:"projectStaticLinks"`
	LinkOptions     []string `json:"linkOptions"`
	CompileOptions  []string `json:"compileOptions"`
	Defines         []string `json:"defines"`
	Warnings        json.RawMessage `json:"warnings"`
	PCH             string   `json:"pch"`
	RTTI            *bool    `json:"rtti"`
	Exceptions      *bool    `json:"exceptions"`
	ThreadModel     string   `json:"threadModel"`
	ObjCxx          bool     `json:"objectiveCxx"`
	OutputName      string   `json:"outputName"`
	StaticLinking   bool     `json:"staticLinking"`

	WindowsResource string   `json:"windowsResource"`
	AppIcon         string   `json:"appIcon"`
	AppManifest     string   `json:"appManifest"`
	Frameworks      []string `json:"frameworks"`

	RunArgs               []string `json:"runArgs"`
	RuntimeDependencies    []string `json:"runtimeDependencies"`
	IsPrimaryRunnable      bool     `json:"isPrimaryRunnable"`

	Location string   `json:"location"`
	Defs     []string `json:"defines_cmake"`
	Toolset  string   `json:"toolset"`
	Recheck  bool     `json:"recheck"`

	Path        string   `json:"path"`
	Interpreter string   `json:"interpreter"`
	Args        []string `json:"args"`

	rawConditions
}

// sourceKindOf maps the wire "kind" enum to a SourceKind for the four
// source-target kinds (each decoded as TargetSource); any other kind
// returns ok=false.
func sourceKindOf(wireKind string) (model.SourceKind, bool) {
	switch wireKind {
	case "staticLibrary":
		return model.SourceStaticLibrary, true
	case "sharedLibrary":
		return model.SourceSharedLibrary, true
	case "consoleApplication":
		return model.SourceConsoleApp, true
	case "desktopApplication":
		return model.SourceDesktopApp, true
	}
	return "", false
}

// decodeTarget turns one resolved rawTarget into a model.Target.
func decodeTarget(name string, rt rawTarget) (model.Target, error) {
	t := model.Target{
		Name:      name,
		Condition: rt.rawConditions.toCondition(),
	}

	if sk, ok := sourceKindOf(rt.Kind); ok {
		t.Kind = model.TargetSource
		src := &model.SourceTarget{
			Kind:            sk,
			Language:        model.Language(rt.Language),
			Standard:        rt.Standard,
			ExtensionFilter: rt.ExtensionFilter,
			Locations:       expandEach(rt.Locations),
			Excludes:        rt.Excludes,
			Files:           expandEach(rt.Files),
			IncludeDirs:     expandEach(rt.IncludeDirs),
			LibDirs:         expandEach(rt.LibDirs),
			Links:           rt.Links,
			StaticLinks:     rt.StaticLinks,
			LinkOptions:     rt.LinkOptions,
			CompileOptions:  rt.CompileOptions,
			Defines:         rt.Defines,
			PrecompiledHeader: forgepaths.ExpandVariables(rt.PCH),
			RTTI:            rt.RTTI,
			Exceptions:      rt.Exceptions,
			ThreadModel:     model.ThreadModel(orDefault(rt.ThreadModel, string(model.ThreadModelAuto))),
			ObjCxx:          rt.ObjCxx,
			OutputName:      rt.OutputName,
			StaticLinking:   rt.StaticLinking,
			Platform: model.PlatformOverrides{
				WindowsResource: rt.WindowsResource,
				AppIcon:         rt.AppIcon,
				AppManifest:     rt.AppManifest,
				Frameworks:      rt.Frameworks,
			},
		}
		if len(rt.Warnings) > 0 {
			var preset string
			if err := json.Unmarshal(rt.Warnings, &preset); err == nil {
				src.WarningPreset = model.WarningPreset(preset)
			} else {
				var list []string
				if err := json.Unmarshal(rt.Warnings, &list); err != nil {
					return t, fmt.Errorf("target %q: warnings must be a preset name or a list: %w", name, err)
				}
				src.Warnings = list
			}
		}
		if len(rt.RunArgs) > 0 || len(rt.RuntimeDependencies) > 0 || rt.IsPrimaryRunnable {
			src.Run = &model.RunConfig{
				Args:              rt.RunArgs,
				RuntimeDeps:       rt.RuntimeDependencies,
				IsPrimaryRunnable: rt.IsPrimaryRunnable,
			}
		}
		t.Source = src
		return t, nil
	}

	switch rt.Kind {
	case "cmakeProject":
		t.Kind = model.TargetCMake
		t.CMake = &model.CMakeTarget{Location: forgepaths.ExpandVariables(rt.Location), Defines: rt.Defs, Toolset: rt.Toolset, Recheck: rt.Recheck}
	case "subForgeProject":
		t.Kind = model.TargetSubProject
		t.SubProject = &model.SubProjectTarget{Location: forgepaths.ExpandVariables(rt.Location)}
	case "script":
		t.Kind = model.TargetScript
		t.Script = &model.ScriptTarget{Path: forgepaths.ExpandVariables(rt.Path), Interpreter: model.ScriptInterpreter(rt.Interpreter), Args: rt.Args}
	case "process":
		t.Kind = model.TargetProcess
		t.Process = &model.ProcessTarget{Path: forgepaths.ExpandVariables(rt.Path), Args: rt.Args}
	default:
		return t, fmt.Errorf("target %q: unknown kind %q", name, rt.Kind)
	}
	return t, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// resolveObjectOverrides decodes a JSON object's keys in document order
// and applies the dotted-key override resolver, returning the winning
// base-keyed raw values re-marshaled as a plain object so encoding/json
// can decode it into a typed struct.
func resolveObjectOverrides(raw json.RawMessage, platform model.Platform, configuration string) (json.RawMessage, error) {
	pairs, err := model.DecodeOrderedObject(raw)
	if err != nil {
		return nil, err
	}
	resolved := model.ResolveOverrides(pairs, platform, configuration)
	out, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveTargetObject is resolveObjectOverrides plus abstract-target
// inheritance: when the target carries an `extends` key, the named
// abstract's key/value pairs are prepended so the target's own keys win
// on equal specificity. Abstracts are resolved here, at parse time, and
// never reach the typed model.
func resolveTargetObject(raw json.RawMessage, abstracts map[string]json.RawMessage, platform model.Platform, configuration string) (json.RawMessage, error) {
	pairs, err := model.DecodeOrderedObject(raw)
	if err != nil {
		return nil, err
	}
	for _, kv := range pairs {
		if kv.Key != "extends" {
			continue
		}
		var abstractName string
		if err := json.Unmarshal(kv.Raw, &abstractName); err != nil {
			return nil, fmt.Errorf("extends must be an abstract name: %w", err)
		}
		abs, ok := abstracts[abstractName]
		if !ok {
			return nil, fmt.Errorf("extends unknown abstract %q", abstractName)
		}
		absPairs, err := model.DecodeOrderedObject(abs)
		if err != nil {
			return nil, fmt.Errorf("abstract %q: %w", abstractName, err)
		}
		pairs = append(absPairs, pairs...)
		break
	}
	resolved := model.ResolveOverrides(pairs, platform, configuration)
	delete(resolved, "extends")
	return json.Marshal(resolved)
}

// document is the top-level wire shape, decoded before override
// resolution is applied to each target's own property object.
type document struct {
	Schema         string                     `json:"$schema"`
	Version        string                     `json:"version"`
	Workspace      string                     `json:"workspace"`
	Path           string                     `json:"path"`
	ExternalDepDir string                     `json:"externalDepDir"`
	Configurations json.RawMessage            `json:"configurations"`
	Abstracts      map[string]json.RawMessage `json:"abstracts"`
	Targets        json.RawMessage            `json:"targets"`
	Distribution   json.RawMessage            `json:"distribution"`
	ExternalDeps   map[string]struct {
		Repository string `json:"repository"`
		Branch     string `json:"branch"`
		Tag        string `json:"tag"`
		Commit     string `json:"commit"`
	} `json:"externalDependencies"`
}

// Load validates, strips comments from, and decodes a project description
// into a fully typed model.Workspace. It
// returns accumulated diagnostics (warnings are non-fatal; any
// SchemaValidation or SemanticValidation error means ws is nil).
func Load(file string, src []byte, platform model.Platform, configuration string) (*model.Workspace, model.Diagnostics, error) {
	stripped := StripComments(src)

	diags, err := ValidateDraft07(file, stripped)
	if err != nil {
		return nil, nil, err
	}
	if diags.HasErrors() {
		return nil, diags, fmt.Errorf("%s: schema validation failed", file)
	}

	var doc document
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, diags, fmt.Errorf("%s: decoding document: %w", file, err)
	}

	ws := &model.Workspace{
		Name:           doc.Workspace,
		Version:        doc.Version,
		WorkDir:        doc.Path,
		ExternalDepDir: doc.ExternalDepDir,
		Configurations: make(map[string]model.BuildConfiguration),
	}

	if err := decodeConfigurations(ws, doc.Configurations, platform, configuration); err != nil {
		return nil, diags, fmt.Errorf("%s: %w", file, err)
	}

	for name, dep := range doc.ExternalDeps {
		ws.ExternalDeps = append(ws.ExternalDeps, model.ExternalDependency{
			Name: name,
			Repo: dep.Repository,
			Ref:  firstNonEmpty(dep.Commit, dep.Tag, dep.Branch),
		})
	}

	// Targets and distribution items keep their document order: the
	// workspace owns both as *ordered* sets, and the build
	// plan's deterministic linearization starts from declaration order.
	if len(doc.Targets) > 0 {
		targetPairs, err := model.DecodeOrderedObject(doc.Targets)
		if err != nil {
			return nil, diags, fmt.Errorf("%s: targets: %w", file, err)
		}
		for _, kv := range targetPairs {
			name := kv.Key
			resolved, err := resolveTargetObject(kv.Raw, doc.Abstracts, platform, configuration)
			if err != nil {
				return nil, diags, fmt.Errorf("%s: target %q: resolving overrides: %w", file, name, err)
			}
			var rt rawTarget
			if err := json.Unmarshal(resolved, &rt); err != nil {
				return nil, diags, fmt.Errorf("%s: target %q: %w", file, name, err)
			}
			tgt, err := decodeTarget(name, rt)
			if err != nil {
				return nil, diags, fmt.Errorf("%s: %w", file, err)
			}
			ws.Targets = append(ws.Targets, tgt)
		}
	}

	if len(doc.Distribution) > 0 {
		distPairs, err := model.DecodeOrderedObject(doc.Distribution)
		if err != nil {
			return nil, diags, fmt.Errorf("%s: distribution: %w", file, err)
		}
		for _, kv := range distPairs {
			item, err := decodeDistributionItem(kv.Key, kv.Raw, platform, configuration)
			if err != nil {
				return nil, diags, fmt.Errorf("%s: %w", file, err)
			}
			ws.Distribution = append(ws.Distribution, item)
		}
	}

	if err := ws.Validate(); err != nil {
		diags = append(diags, model.Diagnostic{File: file, Reason: err.Error(), Kind: model.KindSemanticValidation, Severity: model.SeverityError})
		return nil, diags, err
	}

	semanticDiags := semanticValidate(file, ws)
	diags = append(diags, semanticDiags...)
	if semanticDiags.HasErrors() {
		return nil, diags, fmt.Errorf("%s: semantic validation failed", file)
	}

	return ws, diags, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func decodeConfigurations(ws *model.Workspace, raw json.RawMessage, platform model.Platform, configuration string) error {
	if len(raw) == 0 {
		for name, cfg := range model.WellKnownConfigurations() {
			ws.Configurations[name] = cfg
		}
		return nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		for _, name := range names {
			cfg, ok := model.WellKnownConfiguration(name)
			if !ok {
				return fmt.Errorf("configuration %q is not a well-known preset", name)
			}
			ws.Configurations[name] = cfg
		}
		return nil
	}

	var named map[string]json.RawMessage
	if err := json.Unmarshal(raw, &named); err != nil {
		return fmt.Errorf("configurations: %w", err)
	}
	for name, rawCfg := range named {
		resolved, err := resolveObjectOverrides(rawCfg, platform, configuration)
		if err != nil {
			return fmt.Errorf("configuration %q: %w", name, err)
		}
		cfg := model.BuildConfiguration{Name: name}
		if preset, ok := model.WellKnownConfiguration(name); ok {
			cfg = preset
		}
		var overlay struct {
			OptimizationLevel    *string `json:"optimizationLevel"`
			LinkTimeOptimization *bool   `json:"linkTimeOptimization"`
			DebugSymbols         *bool   `json:"debugSymbols"`
			StripSymbols         *bool   `json:"stripSymbols"`
			EnableProfiling      *bool   `json:"enableProfiling"`
		}
		if err := json.Unmarshal(resolved, &overlay); err != nil {
			return fmt.Errorf("configuration %q: %w", name, err)
		}
		if overlay.OptimizationLevel != nil {
			cfg.OptimizationLevel = model.OptimizationLevel(*overlay.OptimizationLevel)
		}
		if overlay.LinkTimeOptimization != nil {
			cfg.LinkTimeOptimization = *overlay.LinkTimeOptimization
		}
		if overlay.DebugSymbols != nil {
			cfg.DebugSymbols = *overlay.DebugSymbols
		}
		if overlay.StripSymbols != nil {
			cfg.StripSymbols = *overlay.StripSymbols
		}
		if overlay.EnableProfiling != nil {
			cfg.EnableProfiling = *overlay.EnableProfiling
		}
		cfg.Name = name
		ws.Configurations[name] = cfg
	}
	return nil
}

func decodeDistributionItem(name string, raw json.RawMessage, platform model.Platform, configuration string) (model.DistributionItem, error) {
	resolved, err := resolveObjectOverrides(raw, platform, configuration)
	if err != nil {
		return model.DistributionItem{}, fmt.Errorf("distribution %q: resolving overrides: %w", name, err)
	}
	var wire struct {
		Kind        string   `json:"kind"`
		MainProject string   `json:"mainProject"`
		Include     []string `json:"include"`
		Exclude     []string `json:"exclude"`
		Format      string   `json:"format"`
		Path        string   `json:"path"`
		Interpreter string   `json:"interpreter"`
		Args        []string `json:"args"`
	}
	if err := json.Unmarshal(resolved, &wire); err != nil {
		return model.DistributionItem{}, fmt.Errorf("distribution %q: %w", name, err)
	}

	item := model.DistributionItem{Name: name, Kind: model.DistributionKind(wire.Kind)}
	switch item.Kind {
	case model.DistributionBundle:
		item.Bundle = &model.BundleItem{MainProject: wire.MainProject, Include: wire.Include, Exclude: wire.Exclude}
	case model.DistributionArchive:
		item.Archive = &model.ArchiveItem{Include: wire.Include, Exclude: wire.Exclude, Format: wire.Format}
	case model.DistributionScript:
		item.Script = &model.ScriptTarget{Path: wire.Path, Interpreter: model.ScriptInterpreter(wire.Interpreter), Args: wire.Args}
	case model.DistributionProcess:
		item.Process = &model.ProcessTarget{Path: wire.Path, Args: wire.Args}
	default:
		return item, fmt.Errorf("distribution %q: unknown kind %q", name, wire.Kind)
	}
	return item, nil
}

// knownExtensions is the set of source-file extensions command synthesis
// knows how to classify (internal/sourceset.ClassifyExtension), used by
// semantic validation rule (e): "a file-extension filter contains unknown
// extensions".
var knownExtensions = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".c++": true,
	".m": true, ".mm": true, ".rc": true, ".s": true, ".asm": true,
}

// semanticValidate performs the cross-reference checks (a),
// (b), (e) — (c) and (d) are checked per-target in model.Target.Validate,
// (f) likewise.
func semanticValidate(file string, ws *model.Workspace) model.Diagnostics {
	var diags model.Diagnostics

	for _, t := range ws.Targets {
		if t.Kind != model.TargetSource || t.Source == nil {
			continue
		}
		// projectStaticLinks must always name another target in this
		// workspace); dynamic links may also name a
		// bare system library, so an unresolved name there is not an error.
		for _, link := range t.Source.StaticLinks {
			if _, exists := ws.TargetByName(link); !exists {
				diags = append(diags, model.Diagnostic{
					File: file, Key: "targets." + t.Name + ".projectStaticLinks", Kind: model.KindSemanticValidation,
					Severity: model.SeverityError,
					Reason:   fmt.Sprintf("target %q references unknown target %q in projectStaticLinks", t.Name, link),
				})
			}
		}
		for _, link := range append(append([]string{}, t.Source.Links...), t.Source.StaticLinks...) {
			if _, isSibling := ws.ResolveLink(link); !isSibling {
				if _, exists := ws.TargetByName(link); exists {
					diags = append(diags, model.Diagnostic{
						File: file, Key: "targets." + t.Name + ".links", Kind: model.KindSemanticValidation,
						Severity: model.SeverityError,
						Reason:   fmt.Sprintf("target %q references %q which is not a library target", t.Name, link),
					})
				}
			}
		}
		for _, ext := range t.Source.ExtensionFilter {
			if !knownExtensions[strings.ToLower(ext)] {
				diags = append(diags, model.Diagnostic{
					File: file, Key: "targets." + t.Name + ".extensionFilter", Kind: model.KindSemanticValidation,
					Severity: model.SeverityError,
					Reason:   fmt.Sprintf("target %q: unknown extension %q in extensionFilter", t.Name, ext),
				})
			}
		}
	}

	for _, d := range ws.Distribution {
		if d.Kind != model.DistributionBundle || d.Bundle == nil || d.Bundle.MainProject == "" {
			continue
		}
		t, ok := ws.TargetByName(d.Bundle.MainProject)
		if !ok || !t.IsExecutable() {
			diags = append(diags, model.Diagnostic{
				File: file, Key: "distribution." + d.Name + ".mainProject", Kind: model.KindSemanticValidation,
				Severity: model.SeverityError,
				Reason:   fmt.Sprintf("distribution %q: mainProject %q is not an executable target", d.Name, d.Bundle.MainProject),
			})
		}
	}

	return diags
}
