// Package make emits the Makefile build strategy: one .mk file per
// target under the cache directory, invoked via `make -j<N> -f <file>
// build_<hash>` (or an NMake-syntax file invoked via `nmake /NOLOGO /F
// <file>` for MSVC).
package make

import (
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/forgebuild/forge/internal/backend"
	"github.com/forgebuild/forge/internal/logging"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Emitter is the Makefile/NMake backend.Backend implementation.
type Emitter struct {
	CacheDir string
	UseNMake bool // MSVC: emit NMake syntax and invoke nmake instead of make
}

type targetView struct {
	Hash            string
	FinalOutput     string
	Setup           []string
	Objects         []objectView
	PCHObject       string
	PCHSource       string
	PCHArgvJoined   string
	FinalArgvJoined string
}

type objectView struct {
	ObjectFile     string
	SourceFile     string
	DependencyFile string
	ArgvJoined     string
}

func (e *Emitter) Run(ctx context.Context, plan backend.Plan) error {
	log := logging.For("backend.make")
	for _, tv := range plan.Targets {
		mkPath, hash, err := e.emit(tv)
		if err != nil {
			return err
		}
		if err := e.invoke(ctx, mkPath, hash, plan.MaxJobs); err != nil {
			log.Error().Err(err).Str("target", tv.TargetName).Msg("make invocation failed")
			return err
		}
	}
	return nil
}

func (e *Emitter) emit(tv backend.TargetCommandView) (string, string, error) {
	hash := strconv.FormatUint(uint64(len(tv.TargetName))+uint64(len(tv.Objects)), 16) + "-" + sanitize(tv.TargetName)

	view := targetView{Hash: hash, FinalOutput: tv.FinalOutput, FinalArgvJoined: joinArgv(tv.FinalArgv)}
	for _, setup := range tv.Setup {
		view.Setup = append(view.Setup, joinArgv(setup))
	}
	if len(tv.FinalArgv) == 0 {
		view.FinalOutput = ""
	} else if tv.FinalOutput == "" {
		// Command-only targets (cmake/script/process) run their final
		// command from the phony rule's recipe.
		view.Setup = append(view.Setup, view.FinalArgvJoined)
		view.FinalArgvJoined = ""
	}
	if tv.PCH != nil {
		view.PCHObject = tv.PCH.Entry.ObjectFile
		view.PCHSource = tv.PCH.Entry.SourceFile
		view.PCHArgvJoined = joinArgv(tv.PCH.Argv)
	}
	for _, ob := range tv.Objects {
		ov := objectView{
			ObjectFile: ob.Entry.ObjectFile,
			SourceFile: ob.Entry.SourceFile,
			ArgvJoined: joinArgv(ob.Argv),
		}
		if !e.UseNMake {
			ov.DependencyFile = ob.Entry.DependencyFile
		}
		view.Objects = append(view.Objects, ov)
	}

	if err := os.MkdirAll(e.CacheDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating cache dir: %w", err)
	}
	mkPath := filepath.Join(e.CacheDir, sanitize(tv.TargetName)+".mk")
	f, err := os.Create(mkPath)
	if err != nil {
		return "", "", fmt.Errorf("creating makefile: %w", err)
	}
	defer f.Close()
	name := "target.mk.tmpl"
	if e.UseNMake {
		name = "target.nmake.tmpl"
	}
	if err := templates.ExecuteTemplate(f, name, view); err != nil {
		return "", "", fmt.Errorf("rendering makefile for %q: %w", tv.TargetName, err)
	}
	return mkPath, hash, nil
}

func (e *Emitter) invoke(ctx context.Context, mkPath, hash string, maxJobs int) error {
	var cmd *exec.Cmd
	if e.UseNMake {
		cmd = exec.CommandContext(ctx, "nmake", "/NOLOGO", "/F", mkPath, "build_"+hash)
	} else {
		jobs := maxJobs
		if jobs < 1 {
			jobs = 1
		}
		cmd = exec.CommandContext(ctx, "make", "-j"+strconv.Itoa(jobs), "-f", mkPath, "build_"+hash)
	}
	cmd.Stdout = os.Stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	fmt.Fprint(os.Stderr, stripWaitingNoise(stderr))
	return cmd.Wait()
}

// stripWaitingNoise buffers make's stderr and removes the trailing
// "Waiting for unfinished jobs" noise lines before printing.
func stripWaitingNoise(r io.Reader) string {
	buf, _ := io.ReadAll(r)
	lines := strings.Split(string(buf), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.Contains(l, "Waiting for unfinished jobs") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

func joinArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		if strings.ContainsAny(a, " \t") {
			quoted[i] = `"` + a + `"`
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
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
