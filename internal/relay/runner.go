// internal/relay/runner.go
//
// Spawns one agent CLI invocation, streams its stdout through a
// collector, and supervises it until exit or interrupt. Children are
// placed in their own process group so an interrupt can take down the
// whole tree, including anything the agent itself spawned.

package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rsdouglas/leonard/internal/events"
)

// ErrInterrupted reports that a child was killed because the relay was
// cancelled, not because the child failed.
var ErrInterrupted = errors.New("relay interrupted")

// stderr lines retained for failure reports.
const stderrTailLines = 20

// Invocation describes one agent CLI run. Args must already include the
// prompt; the runner executes exactly what it is given.
type Invocation struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the inherited environment
	Dialect events.Dialect
	Tag     string // "maker" or "critic", used in errors and logs
	// Prompt is the framed prompt the child receives, duplicated out
	// of Args for observers; the runner itself never reads it.
	Prompt string
}

// Result is what one invocation produced. Output is populated even when
// the invocation also returns an error: partial output from a failed or
// interrupted child is still useful to the caller.
type Result struct {
	Output string
	Stderr []string
}

// SpawnError reports that a child process could not be started at all.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports a child that started but exited non-zero.
type ExitError struct {
	Tag    string
	Code   int
	Stderr []string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tag, e.Code)
	if len(e.Stderr) > 0 {
		msg += ": " + strings.Join(e.Stderr, " / ")
	}
	return msg
}

// Runner executes agent invocations one at a time and tracks the active
// child so it can be torn down from another goroutine.
type Runner struct {
	active atomic.Pointer[os.Process]
}

// Run executes one invocation to completion. The child's stdout is
// parsed incrementally; onItem and onAnomaly observe the stream as it
// arrives. When ctx is cancelled the child's process group is killed and
// Run returns ErrInterrupted with whatever output was collected.
func (r *Runner) Run(ctx context.Context, inv Invocation, onItem func(events.Item), onAnomaly func(string)) (Result, error) {
	cmd := exec.Command(inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &SpawnError{Command: inv.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, &SpawnError{Command: inv.Command, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Command: inv.Command, Err: err}
	}
	r.active.Store(cmd.Process)
	defer r.active.Store(nil)

	collector := NewCollector(inv.Dialect, onItem, onAnomaly)
	var stderrLines []string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := collector.Consume(stdout); err != nil {
			if onAnomaly != nil {
				onAnomaly(fmt.Sprintf("stdout read error: %v", err))
			}
			// Keep draining so the child can't block on a full
			// pipe after a scan failure.
			io.Copy(io.Discard, stdout)
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64*1024), maxScanBuffer)
		for scanner.Scan() {
			stderrLines = append(stderrLines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			stderrLines = append(stderrLines, fmt.Sprintf("stderr read error: %v", err))
			io.Copy(io.Discard, stderr)
		}
	}()

	// Wait must not run until both pipes hit EOF.
	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		result := Result{Output: collector.Output(), Stderr: stderrLines}
		if err != nil {
			var exitErr *exec.ExitError
			code := 1
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			return result, &ExitError{Tag: inv.Tag, Code: code, Stderr: tail(stderrLines, stderrTailLines)}
		}
		return result, nil
	case <-ctx.Done():
		killGroup(cmd.Process)
		<-done
		return Result{Output: collector.Output(), Stderr: stderrLines}, ErrInterrupted
	}
}

// Terminate kills the active child's process group, if any. Safe to call
// from any goroutine, including when nothing is running.
func (r *Runner) Terminate() {
	if proc := r.active.Load(); proc != nil {
		killGroup(proc)
	}
}

func killGroup(proc *os.Process) {
	// Negative pid addresses the process group created at spawn.
	syscall.Kill(-proc.Pid, syscall.SIGKILL)
}

func tail(lines []string, n int) []string {
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
