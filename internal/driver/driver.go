// Package driver owns the end-to-end build orchestration: linearizing the
// target DAG, resolving each target's sources and commands, choosing and
// running a backend, and owning the incremental cache's load/save
// lifecycle. Control stays single-threaded; only subprocess execution is
// parallel.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forgebuild/forge/internal/backend"
	backendmake "github.com/forgebuild/forge/internal/backend/make"
	"github.com/forgebuild/forge/internal/backend/native"
	"github.com/forgebuild/forge/internal/backend/ninja"
	"github.com/forgebuild/forge/internal/cache"
	"github.com/forgebuild/forge/internal/commandgen"
	"github.com/forgebuild/forge/internal/forgepaths"
	"github.com/forgebuild/forge/internal/logging"
	"github.com/forgebuild/forge/internal/model"
	"github.com/forgebuild/forge/internal/sourceset"
	"github.com/forgebuild/forge/internal/toolchain"
)

// msvcDepsPrefix is the /showIncludes line marker cl.exe prints for every
// transitively included header.
const msvcDepsPrefix = "Note: including file:"

// BuildRequest is everything Build needs to turn a validated workspace
// into executed (or emitted+invoked) build commands.
type BuildRequest struct {
	Workspace     *model.Workspace
	Platform      model.Platform
	Configuration string
	Toolchain     model.ToolchainDescriptor
	MaxJobs       int
	GlobalTimeout time.Duration // 0 disables
	ExtraHashes   map[string]string
	ColorTerminal bool
}

// Driver runs BuildRequests. It owns the Resolver's shared EnvScope
// (activated at most once per process) and the cache
// store for the active configuration.
type Driver struct {
	Resolver *toolchain.Resolver
}

// New constructs a Driver with a fresh toolchain resolver.
func New() *Driver {
	return &Driver{Resolver: toolchain.NewResolver()}
}

// Build runs the full pipeline for req: linearize targets, discover
// sources, run the seven-point up-to-date check per file, synthesize
// commands for everything stale, run the strategy-appropriate backend,
// and persist the refreshed cache if the build completed without
// cancellation.
func (d *Driver) Build(ctx context.Context, req BuildRequest) error {
	log := logging.For("driver")

	graph := BuildGraph(req.Workspace, req.Platform, req.Configuration)
	order, err := LinearOrder(graph)
	if err != nil {
		return fmt.Errorf("linearizing target graph: %w", err)
	}

	cfg, ok := req.Workspace.Configurations[req.Configuration]
	if !ok {
		return fmt.Errorf("unknown configuration %q", req.Configuration)
	}

	toolFP := cache.HashStrings(req.Toolchain.Fingerprint())
	cfgFP := cache.HashStrings(cfg.Fingerprint())

	cacheDir := forgepaths.CacheDir(req.Workspace.WorkDir, req.Configuration)
	store, err := cache.Load(filepath.Join(cacheDir, cache.HashStrings(toolFP, cfgFP)+".json"))
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}

	if req.MaxJobs < 1 {
		req.MaxJobs = forgepaths.MaxJobs()
	}

	plan := backend.Plan{MaxJobs: req.MaxJobs}
	if req.Toolchain.Type == model.ToolchainMSVC {
		plan.MsvcDepsPrefix = msvcDepsPrefix
	}
	dirs := sourceset.Dirs{
		WorkDir: req.Workspace.WorkDir,
		ObjDir:  forgepaths.ObjDir(req.Workspace.WorkDir, req.Configuration),
		DepDir:  forgepaths.DepDir(req.Workspace.WorkDir, req.Configuration),
		AsmDir:  forgepaths.AsmDir(req.Workspace.WorkDir, req.Configuration),
	}

	rebuilt := make(map[string][]model.SourceEntry)
	for _, name := range order {
		target, ok := req.Workspace.TargetByName(name)
		if !ok {
			continue
		}
		switch target.Kind {
		case model.TargetSource:
			group, diags, err := sourceset.Discover(name, target.Source, dirs, req.Toolchain.Type)
			for _, diag := range diags {
				log.Warn().Str("target", name).Msg(diag.Reason)
			}
			if err != nil {
				return fmt.Errorf("target %q: %w", name, err)
			}
			if len(group.Entries) == 0 {
				return fmt.Errorf("target %q: empty source set", name)
			}
			tv, entry, rebuiltEntries, err := d.planSourceTarget(req, target, group, cfg, graph, store.Entry(name), toolFP, cfgFP)
			if err != nil {
				return err
			}
			store.Put(entry)
			rebuilt[name] = rebuiltEntries
			plan.Targets = append(plan.Targets, tv)
		case model.TargetSubProject:
			if err := d.buildSubProject(ctx, req, target); err != nil {
				return fmt.Errorf("sub-project %q: %w", name, err)
			}
		default:
			tv, err := planAuxTarget(req, target, cfg)
			if err != nil {
				return err
			}
			plan.Targets = append(plan.Targets, tv)
		}
	}

	if err := ensureOutputDirs(plan); err != nil {
		return err
	}

	buildCtx := ctx
	var cancel context.CancelFunc
	if req.GlobalTimeout > 0 {
		buildCtx, cancel = context.WithTimeout(ctx, req.GlobalTimeout)
		defer cancel()
	}

	be := d.backendFor(req, cacheDir)
	if err := be.Run(buildCtx, plan); err != nil {
		return err
	}
	if err := buildCtx.Err(); err != nil {
		return err
	}

	refreshHeaderFingerprints(store, rebuilt)
	if err := store.Save(); err != nil {
		// CachePersistence is a warning, not fatal: the next build just
		// redoes more work.
		log.Warn().Err(err).Msg("failed to persist incremental cache")
	}
	return nil
}

// planSourceTarget runs the up-to-date check for every entry of one
// source target and synthesizes commands for the stale ones. It returns
// the backend view, the refreshed cache entry, and the entries that will
// be rebuilt (for the post-build header-fingerprint refresh).
func (d *Driver) planSourceTarget(
	req BuildRequest,
	target *model.Target,
	group model.SourceGroup,
	cfg model.BuildConfiguration,
	graph DependencyGraph,
	entry *model.CacheEntry,
	toolFP, cfgFP string,
) (backend.TargetCommandView, *model.CacheEntry, []model.SourceEntry, error) {
	src := target.Source
	ctx := commandgen.Context{
		Target:        target,
		Toolchain:     req.Toolchain,
		Configuration: cfg,
		ColorTerminal: req.ColorTerminal,
		DirectDeps:    req.Toolchain.Strategy == model.StrategyNinja,
	}
	compilerPath := req.Toolchain.CompilerCpp
	if src.Language == model.LanguageC {
		compilerPath = req.Toolchain.CompilerC
	}

	outDir := forgepaths.ConfigOutputDir(req.Workspace.WorkDir, req.Configuration)
	outputPath := filepath.Join(outDir, src.OutputFileName(target.Name, req.Platform))

	links, staticLinks, extraLibDirs := resolveSiblingLinks(req.Workspace, src, outDir)
	cmdFP := cache.CommandLineFingerprint(
		append(append([]string{}, src.CompileOptions...), src.LinkOptions...),
		src.Defines, src.IncludeDirs)

	var rebuiltEntries []model.SourceEntry
	upToDate := func(e model.SourceEntry) bool {
		ok, reason := cache.CheckUpToDate(cache.UpToDateInput{
			Entry:                    e,
			CacheEntry:               entry,
			ToolchainFingerprint:     toolFP,
			ConfigurationFingerprint: cfgFP,
			CommandLineFingerprint:   cmdFP,
			ExtraHashes:              req.ExtraHashes,
			DependencyFileHeaders:    cache.ParseDepFile,
		})
		if !ok {
			log := logging.For("driver")
			log.Debug().Str("file", e.SourceFile).Str("reason", reason).Msg("rebuilding")
		}
		return ok
	}

	tv := backend.TargetCommandView{
		TargetName:  target.Name,
		FinalOutput: outputPath,
		IsStaticLib: src.Kind == model.SourceStaticLibrary,
	}
	for _, node := range graph.Nodes {
		if node.Name == target.Name {
			tv.DependsOn = node.DependsOn
		}
	}

	pch, hasPCH := group.PrecompiledHeader()
	pchStale := false
	if hasPCH {
		pchStale = pchNeedsRebuild(pch, entry, toolFP, cfgFP, cmdFP)
		if pchStale {
			tv.PCH = &backend.ObjectBuild{Entry: pch, Argv: commandgen.CompilePCH(ctx, pch, compilerPath)}
			rebuiltEntries = append(rebuiltEntries, pch)
		}
		if fp, err := cache.FingerprintFile(pch.SourceFile); err == nil {
			entry.PerFile[pch.SourceFile] = fp
		}
	}

	var objectPaths []string
	staleCount := 0
	for _, e := range group.Entries {
		if e.Type == model.SourceTypeCxxPrecompiledHeader {
			continue
		}
		if e.Type == model.SourceTypeWindowsResource {
			// Resource compiles only exist on Windows builds; elsewhere
			// the .rc file is excluded from the target entirely, command-
			// line fingerprint included.
			if req.Platform != model.PlatformWindows {
				continue
			}
			if req.Toolchain.CompilerRc == "" {
				return tv, entry, nil, fmt.Errorf("target %q: resource file %s but no resource compiler resolved", target.Name, e.SourceFile)
			}
		}
		objectPaths = append(objectPaths, e.ObjectFile)

		// A stale PCH invalidates every object that implicitly includes
		// it.
		if !pchStale && upToDate(e) {
			continue
		}
		staleCount++

		var argv []string
		if e.Type == model.SourceTypeWindowsResource {
			e.DependencyFile = ""
			argv = commandgen.CompileResource(ctx, e, req.Toolchain.CompilerRc)
		} else {
			var pchPtr *model.SourceEntry
			if hasPCH {
				pchPtr = &pch
			}
			argv = commandgen.CompileObject(ctx, e, compilerPath, pchPtr)
		}
		tv.Objects = append(tv.Objects, backend.ObjectBuild{Entry: e, Argv: argv})
		rebuiltEntries = append(rebuiltEntries, e)
		if fp, err := cache.FingerprintFile(e.SourceFile); err == nil {
			entry.PerFile[e.SourceFile] = fp
		}
	}

	// Relink when anything recompiled or when the output is missing.
	needsFinal := staleCount > 0 || pchStale
	if !needsFinal {
		if _, err := os.Stat(outputPath); err != nil {
			needsFinal = true
		}
	}
	if needsFinal {
		if tv.IsStaticLib {
			tv.FinalArgv = commandgen.Archive(ctx, objectPaths, outputPath)
		} else {
			linkCtx := ctx
			linkTarget := *target
			linkSrc := *src
			linkSrc.Links = links
			linkSrc.StaticLinks = staticLinks
			linkTarget.Source = &linkSrc
			linkCtx.Target = &linkTarget
			tv.FinalArgv = commandgen.Link(linkCtx, objectPaths, outputPath, extraLibDirs...)
		}
	}

	entry.ToolchainFingerprint = toolFP
	entry.ConfigurationFingerprint = cfgFP
	entry.CommandLineFingerprint = cmdFP
	entry.ExtraHashes = make(map[string]string, len(req.ExtraHashes))
	for k, v := range req.ExtraHashes {
		entry.ExtraHashes[k] = v
	}
	entry.LastBuildHash = cache.HashStrings(toolFP, cfgFP, cmdFP)

	return tv, entry, rebuiltEntries, nil
}

// pchNeedsRebuild is the up-to-date check specialized for the PCH entry:
// it has no dependency file, so only the output's existence, the header's
// own fingerprint, and the build fingerprints participate.
func pchNeedsRebuild(pch model.SourceEntry, entry *model.CacheEntry, toolFP, cfgFP, cmdFP string) bool {
	if _, err := os.Stat(pch.ObjectFile); err != nil {
		return true
	}
	prior, ok := entry.PerFile[pch.SourceFile]
	if !ok {
		return true
	}
	current, err := cache.FingerprintFile(pch.SourceFile)
	if err != nil {
		return true
	}
	if current.ModTime != prior.ModTime || current.Size != prior.Size {
		return true
	}
	return entry.ToolchainFingerprint != toolFP ||
		entry.ConfigurationFingerprint != cfgFP ||
		entry.CommandLineFingerprint != cmdFP
}

// resolveSiblingLinks splits a target's links into sibling-target links
// (which add the build output directory to the library search path) and
// bare system libraries, per the sibling-first rule in DESIGN.md. Sibling
// static links are rewritten to the archive's on-disk stem so -l
// resolution finds the "-s" suffixed file.
func resolveSiblingLinks(ws *model.Workspace, src *model.SourceTarget, outDir string) (links, staticLinks, extraLibDirs []string) {
	links = append([]string{}, src.Links...)
	sawSibling := false
	for _, name := range src.StaticLinks {
		if t, isSibling := ws.ResolveLink(name); isSibling && t.Source.Kind == model.SourceStaticLibrary {
			sawSibling = true
			staticLinks = append(staticLinks, name+"-s")
			continue
		}
		staticLinks = append(staticLinks, name)
	}
	for _, name := range src.Links {
		if _, isSibling := ws.ResolveLink(name); isSibling {
			sawSibling = true
		}
	}
	if sawSibling {
		extraLibDirs = append(extraLibDirs, outDir)
	}
	return links, staticLinks, extraLibDirs
}

// refreshHeaderFingerprints re-reads the dependency file of every rebuilt
// entry and fingerprints the headers it lists, so the next build's check
// 3 sees current values.
func refreshHeaderFingerprints(store *cache.Store, rebuilt map[string][]model.SourceEntry) {
	for targetName, entries := range rebuilt {
		entry := store.Entry(targetName)
		for _, e := range entries {
			if e.DependencyFile == "" {
				continue
			}
			headers, err := cache.ParseDepFile(e.DependencyFile)
			if err != nil {
				continue
			}
			for _, h := range headers {
				if fp, err := cache.FingerprintFile(h); err == nil {
					entry.PerFile[h] = fp
				}
			}
		}
		store.Put(entry)
	}
}

// ensureOutputDirs pre-creates the obj/dep directories every planned
// output lands in, so compilers don't fail on missing parents.
func ensureOutputDirs(plan backend.Plan) error {
	mk := func(p string) error {
		if p == "" {
			return nil
		}
		return os.MkdirAll(filepath.Dir(p), forgepaths.DefaultDirPerms)
	}
	for _, tv := range plan.Targets {
		if tv.PCH != nil {
			if err := mk(tv.PCH.Entry.ObjectFile); err != nil {
				return err
			}
		}
		for _, ob := range tv.Objects {
			if err := mk(ob.Entry.ObjectFile); err != nil {
				return err
			}
			if err := mk(ob.Entry.DependencyFile); err != nil {
				return err
			}
		}
		if err := mk(tv.FinalOutput); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) backendFor(req BuildRequest, cacheDir string) backend.Backend {
	switch req.Toolchain.Strategy {
	case model.StrategyMakefile:
		return &backendmake.Emitter{CacheDir: cacheDir, UseNMake: req.Toolchain.Type == model.ToolchainMSVC}
	case model.StrategyNinja:
		prefix := ""
		if req.Toolchain.Type == model.ToolchainMSVC {
			prefix = msvcDepsPrefix
		}
		return &ninja.Emitter{CacheDir: cacheDir, MsvcDepsPrefix: prefix}
	default:
		s := native.NewScheduler(req.MaxJobs)
		s.SuppressFirst = req.Toolchain.Type == model.ToolchainMSVC
		return s
	}
}
