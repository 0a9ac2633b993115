// Package native implements the third build strategy: skip the
// Make/Ninja backend entirely and execute a target's compile/link
// commands directly through a bounded worker pool, with live streamed
// output and signal-driven cancellation.
package native

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jesseduffield/kill"
	"golang.org/x/sync/errgroup"

	"github.com/forgebuild/forge/internal/backend"
	"github.com/forgebuild/forge/internal/cache"
	"github.com/forgebuild/forge/internal/logging"
)

// TaskState is a compile/link task's position in the state machine:
// Pending → Running → {Succeeded, Failed, Cancelled}.
type TaskState int

const (
	Pending TaskState = iota
	Running
	Succeeded
	Failed
	Cancelled
)

type task struct {
	label      string
	cmds       [][]string // run in order; a target's setup steps share the final task
	outputPath string     // deleted on cancellation/failure
	sourceFile string     // for /showIncludes dep synthesis
	depFile    string     // "" when the command produces no dependency file
	depTemp    string     // GCC/Clang -MF temp, renamed to depFile on success
	state      TaskState
	deps       []*task
}

// Scheduler runs a backend.Plan's commands through a fixed-size worker
// pool. It owns exactly two mutexes: graphMu for
// O(1) state transitions and outMu serializing stdout/stderr writes.
// Acquisition order is graphMu before outMu, never the reverse.
type Scheduler struct {
	MaxJobs       int
	GraceTimeout  time.Duration
	ShowFullArgv  bool
	SuppressFirst bool // MSVC: suppress the compiler's echoed input filename

	graphMu sync.Mutex
	outMu   sync.Mutex
	failed  atomic.Bool
}

// NewScheduler constructs a Scheduler with the default 5s cancellation
// grace period.
func NewScheduler(maxJobs int) *Scheduler {
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Scheduler{MaxJobs: maxJobs, GraceTimeout: 5 * time.Second}
}

// Run executes every target in plan. Targets are already in dependency
// order (backend.Plan's contract); within a target, PCH precedes objects
// precedes the final archive/link command. On the first failure the
// scheduler drains: Pending tasks become Cancelled, Running tasks are
// allowed to finish so their output is not truncated. Context
// cancellation instead terminates Running subprocesses (grace period,
// then hard kill) and surfaces ctx.Err().
func (s *Scheduler) Run(ctx context.Context, plan backend.Plan) error {
	log := logging.For("native")
	tasks := s.buildTasks(plan)
	if len(tasks) == 0 {
		return nil
	}

	var counter int32
	total := int32(len(tasks))

	queue := make(chan *task, len(tasks))
	results := make(chan *task, len(tasks))

	g := new(errgroup.Group)
	for i := 0; i < s.MaxJobs; i++ {
		g.Go(func() error {
			for t := range queue {
				s.runOne(ctx, t, atomic.AddInt32(&counter, 1), total, plan.MsvcDepsPrefix)
				results <- t
			}
			return nil
		})
	}

	remaining := len(tasks)
	remaining -= s.schedule(ctx, tasks, queue)
	var firstErr error
	for remaining > 0 {
		done := <-results
		remaining--
		if done.state == Failed && firstErr == nil {
			firstErr = fmt.Errorf("%s: command failed", done.label)
			s.failed.Store(true)
		}
		remaining -= s.schedule(ctx, tasks, queue)
	}
	close(queue)
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.cleanupOutputs(tasks)
		return err
	}
	if firstErr != nil {
		s.cleanupOutputs(tasks)
		log.Error().Err(firstErr).Msg("native build failed")
		return firstErr
	}
	return nil
}

func (s *Scheduler) buildTasks(plan backend.Plan) []*task {
	var tasks []*task
	finalByTarget := make(map[string]*task)
	for _, tv := range plan.Targets {
		var pchTask *task
		if tv.PCH != nil {
			pchTask = &task{
				label:      tv.TargetName + ": pch " + tv.PCH.Entry.SourceFile,
				cmds:       [][]string{tv.PCH.Argv},
				outputPath: tv.PCH.Entry.ObjectFile,
				sourceFile: tv.PCH.Entry.SourceFile,
			}
			tasks = append(tasks, pchTask)
		}
		var objTasks []*task
		for _, ob := range tv.Objects {
			t := &task{
				label:      tv.TargetName + ": " + ob.Entry.SourceFile,
				cmds:       [][]string{ob.Argv},
				outputPath: ob.Entry.ObjectFile,
				sourceFile: ob.Entry.SourceFile,
				depFile:    ob.Entry.DependencyFile,
			}
			if t.depFile != "" && plan.MsvcDepsPrefix == "" {
				t.depTemp = t.depFile + ".Td"
			}
			if pchTask != nil {
				t.deps = append(t.deps, pchTask)
			}
			objTasks = append(objTasks, t)
			tasks = append(tasks, t)
		}

		if len(tv.Setup) == 0 && len(tv.FinalArgv) == 0 {
			continue // fully up-to-date target
		}
		verb := ": link "
		if tv.IsStaticLib {
			verb = ": archive "
		}
		if len(tv.Objects) == 0 && tv.PCH == nil {
			verb = ": run "
		}
		final := &task{
			label:      tv.TargetName + verb + tv.FinalOutput,
			cmds:       append(append([][]string{}, tv.Setup...), [][]string{tv.FinalArgv}...),
			outputPath: tv.FinalOutput,
			deps:       objTasks,
		}
		if len(tv.FinalArgv) == 0 {
			final.cmds = append([][]string{}, tv.Setup...)
		}
		// Cross-target ordering: a link waits for the final step of
		// every target it declares a dependency on. Plan order
		// guarantees dependees appear first.
		for _, depName := range tv.DependsOn {
			if dep, ok := finalByTarget[depName]; ok {
				final.deps = append(final.deps, dep)
			}
		}
		finalByTarget[tv.TargetName] = final
		tasks = append(tasks, final)
	}
	return tasks
}

// schedule moves every runnable Pending task to Running and enqueues it;
// Pending tasks that can no longer run (a prerequisite failed or was
// cancelled, the build is draining, or the context is done) transition
// straight to Cancelled. Returns how many tasks it cancelled in place,
// so the caller can keep its completion count exact.
func (s *Scheduler) schedule(ctx context.Context, tasks []*task, queue chan<- *task) int {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	cancelled := 0
	for _, t := range tasks {
		if t.state != Pending {
			continue
		}
		if ctx.Err() != nil || s.failed.Load() || t.doomed() {
			t.state = Cancelled
			cancelled++
			continue
		}
		if t.ready() {
			t.state = Running
			queue <- t
		}
	}
	return cancelled
}

func (t *task) ready() bool {
	for _, d := range t.deps {
		if d.state != Succeeded {
			return false
		}
	}
	return true
}

func (t *task) doomed() bool {
	for _, d := range t.deps {
		if d.state == Failed || d.state == Cancelled {
			return true
		}
	}
	return false
}

func (s *Scheduler) setState(t *task, st TaskState) {
	s.graphMu.Lock()
	t.state = st
	s.graphMu.Unlock()
}

func (s *Scheduler) runOne(ctx context.Context, t *task, idx, total int32, depsPrefix string) {
	if len(t.cmds) == 0 {
		s.setState(t, Succeeded)
		return
	}
	tag := fmt.Sprintf("[%d/%d]", idx, total)
	label := t.label
	if s.ShowFullArgv {
		label = fmt.Sprint(t.cmds)
	}
	s.printLine(color.CyanString(tag) + " " + label)

	for _, argv := range t.cmds {
		if len(argv) == 0 {
			continue
		}
		st := s.runCommand(ctx, t, argv, depsPrefix)
		if st != Succeeded {
			s.setState(t, st)
			return
		}
	}

	if t.depTemp != "" {
		if _, err := os.Stat(t.depTemp); err == nil {
			_ = os.Rename(t.depTemp, t.depFile)
		}
	}
	s.setState(t, Succeeded)
}

func (s *Scheduler) runCommand(ctx context.Context, t *task, argv []string, depsPrefix string) TaskState {
	cmd := exec.Command(argv[0], argv[1:]...)
	kill.PrepareForChildren(cmd)

	captureStdout := depsPrefix != "" && t.depFile != ""

	var stdoutBuf bytes.Buffer
	var wg sync.WaitGroup
	stdoutPipe, _ := cmd.StdoutPipe()
	stderrPipe, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		s.printLine(color.RedString("ERROR: ") + t.label + ": " + err.Error())
		return Failed
	}

	if captureStdout {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(&stdoutBuf, stdoutPipe)
		}()
	} else {
		s.streamOutput(stdoutPipe, &wg, s.SuppressFirst)
	}
	s.streamOutput(stderrPipe, &wg, false)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return Failed
		}
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(s.GraceTimeout):
			_ = kill.Kill(cmd)
			<-done
		}
		return Cancelled
	}

	if captureStdout {
		headers, remainder := cache.ParseShowIncludes(stdoutBuf.String(), depsPrefix)
		s.printCaptured(remainder)
		deps := append([]string{t.sourceFile}, headers...)
		if err := cache.WriteDepFile(t.depFile, t.outputPath, deps); err != nil {
			log := logging.For("native")
			log.Warn().Err(err).Str("dep", t.depFile).Msg("writing dependency file failed")
		}
	}
	return Succeeded
}

func (s *Scheduler) streamOutput(r io.ReadCloser, wg *sync.WaitGroup, suppressFirst bool) {
	if r == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		first := true
		for scanner.Scan() {
			if first && suppressFirst {
				first = false
				continue
			}
			first = false
			s.printLine(scanner.Text())
		}
	}()
}

// printCaptured prints buffered output lines, honoring SuppressFirst (the
// MSVC input-filename echo is always the first stdout line).
func (s *Scheduler) printCaptured(lines []string) {
	start := 0
	if s.SuppressFirst && len(lines) > 0 {
		start = 1
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	for _, line := range lines[start:] {
		if line != "" {
			fmt.Fprintln(os.Stdout, line)
		}
	}
}

func (s *Scheduler) printLine(line string) {
	s.outMu.Lock()
	fmt.Fprintln(os.Stdout, line)
	s.outMu.Unlock()
}

// cleanupOutputs removes partial outputs of Failed/Cancelled tasks: the
// object/binary itself and any .Td temp dependency file. No partial
// output file is ever considered valid.
func (s *Scheduler) cleanupOutputs(tasks []*task) {
	for _, t := range tasks {
		if t.state != Failed && t.state != Cancelled {
			continue
		}
		if t.outputPath != "" {
			_ = os.Remove(t.outputPath)
		}
		if t.depTemp != "" {
			_ = os.Remove(t.depTemp)
		}
	}
}

var _ backend.Backend = (*Scheduler)(nil)
