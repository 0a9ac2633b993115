// Package ninja emits the Ninja build strategy: a single
// build.ninja listing every target's rules (pch_<hash>, cc_<hash>,
// link_<hash>) and build edges, invoked once via `ninja -f <file>
// build_<hash1> build_<hash2> ...`.
package ninja

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/forgebuild/forge/internal/backend"
	"github.com/forgebuild/forge/internal/logging"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var tmpl = template.Must(template.New("build.ninja.tmpl").ParseFS(templatesFS, "templates/build.ninja.tmpl"))

// Emitter is the Ninja backend.Backend implementation.
type Emitter struct {
	CacheDir       string
	MsvcDepsPrefix string // "Note: including file:" when the toolchain is MSVC
}

type fileView struct {
	MsvcDepsPrefix string
	Targets        []ninjaTargetView
}

type ninjaTargetView struct {
	TargetName      string
	Hash            string
	PCH             *ninjaPCHView
	Objects         []ninjaObjectView
	FinalOutput     string
	FinalArgvJoined string
	ImplicitDeps    []string // dependee targets' outputs, ordered before this link
}

type ninjaPCHView struct {
	ObjectFile string
	SourceFile string
	ArgvJoined string
}

type ninjaObjectView struct {
	ObjectFile     string
	SourceFile     string
	DependencyFile string
	ArgvJoined     string
}

func (e *Emitter) Run(ctx context.Context, plan backend.Plan) error {
	log := logging.For("backend.ninja")

	ninjaPath, hashes, err := e.emit(plan)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}

	args := append([]string{"-f", ninjaPath}, targetsOf(hashes)...)
	if plan.MaxJobs > 0 {
		args = append([]string{"-j", fmt.Sprint(plan.MaxJobs)}, args...)
	}
	cmd := exec.CommandContext(ctx, "ninja", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Msg("ninja invocation failed")
		return err
	}
	return nil
}

// emit renders build.ninja under the cache directory and returns its
// path plus the build_<hash> aliases to request. Rendering is
// deterministic: same plan, same bytes.
func (e *Emitter) emit(plan backend.Plan) (string, []string, error) {
	if err := os.MkdirAll(e.CacheDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating cache dir: %w", err)
	}

	view := fileView{MsvcDepsPrefix: e.MsvcDepsPrefix}
	var hashes []string
	outputByTarget := make(map[string]string, len(plan.Targets))
	for _, tv := range plan.Targets {
		hash := sanitize(tv.TargetName)

		ntv := ninjaTargetView{TargetName: tv.TargetName, Hash: hash, FinalOutput: escapePath(tv.FinalOutput)}
		outputByTarget[tv.TargetName] = tv.FinalOutput
		for _, dep := range tv.DependsOn {
			if out := outputByTarget[dep]; out != "" {
				ntv.ImplicitDeps = append(ntv.ImplicitDeps, escapePath(out))
			}
		}
		// Setup commands (cmake configure and the like) share the link
		// edge's shell line.
		var final []string
		for _, setup := range tv.Setup {
			final = append(final, joinArgv(setup))
		}
		if len(tv.FinalArgv) > 0 {
			final = append(final, joinArgv(tv.FinalArgv))
		}
		ntv.FinalArgvJoined = strings.Join(final, " && ")
		if ntv.FinalArgvJoined != "" {
			hashes = append(hashes, hash)
			if ntv.FinalOutput == "" {
				// Command-only targets have no on-disk output; give the
				// edge a synthetic one so ninja has something to build.
				ntv.FinalOutput = "run_" + hash
			}
		}
		if tv.PCH != nil {
			ntv.PCH = &ninjaPCHView{
				ObjectFile: escapePath(tv.PCH.Entry.ObjectFile),
				SourceFile: escapePath(tv.PCH.Entry.SourceFile),
				ArgvJoined: joinArgv(tv.PCH.Argv),
			}
		}
		for _, ob := range tv.Objects {
			ntv.Objects = append(ntv.Objects, ninjaObjectView{
				ObjectFile:     escapePath(ob.Entry.ObjectFile),
				SourceFile:     escapePath(ob.Entry.SourceFile),
				DependencyFile: escapePath(ob.Entry.DependencyFile),
				ArgvJoined:     joinArgv(ob.Argv),
			})
		}
		view.Targets = append(view.Targets, ntv)
	}

	ninjaPath := filepath.Join(e.CacheDir, "build.ninja")
	f, err := os.Create(ninjaPath)
	if err != nil {
		return "", nil, fmt.Errorf("creating build.ninja: %w", err)
	}
	if err := tmpl.Execute(f, view); err != nil {
		f.Close()
		return "", nil, fmt.Errorf("rendering build.ninja: %w", err)
	}
	return ninjaPath, hashes, f.Close()
}

func targetsOf(hashes []string) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = "build_" + h
	}
	return out
}

// joinArgv quotes whitespace-bearing arguments and doubles '$' so the
// command survives ninja's own variable expansion.
func joinArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, "$", "$$")
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// escapePath escapes the characters ninja treats specially in paths.
func escapePath(p string) string {
	p = strings.ReplaceAll(p, "$", "$$")
	p = strings.ReplaceAll(p, " ", "$ ")
	p = strings.ReplaceAll(p, ":", "$:")
	return p
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}

var _ backend.Backend = (*Emitter)(nil)
