// Package runner executes one solver invocation under a hard wall-clock
// timeout, optionally wrapped in a memory instrumentation tool.
//
// A run moves through Pending, Running and then Completed or TimedOut. A
// process that could not be started ends in StartFailed instead and carries no
// elapsed time. There are no retries. Runs that use instrumentation are serialized process-wide so
// that heap accounting is never attributed to the wrong process.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/vk/isobench/internal/ctxlog"
)

// State is the lifecycle position of a run.
type State int

const (
	Pending State = iota
	Running
	Completed
	TimedOut
	StartFailed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case TimedOut:
		return "TIMED_OUT"
	case StartFailed:
		return "START_FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Template placeholders.
const (
	PatternPlaceholder = "{pattern}"
	TargetPlaceholder  = "{target}"
	TimeoutPlaceholder = "{timeout}"
)

// ErrBadTemplate is returned for command templates that cannot be split or
// lack a placeholder.
var ErrBadTemplate = errors.New("runner: bad command template")

// killGrace bounds how long Wait blocks on output pipes after a kill.
const killGrace = 2 * time.Second

// instrumentMu serializes instrumented runs.
var instrumentMu sync.Mutex

// Instrumentation wraps the solver command in a profiling tool.
type Instrumentation struct {
	// Tool is the wrapper executable, e.g. "valgrind".
	Tool string
	// Args precede the log-file flag.
	Args []string
	// LogFlag is the flag prefix that names the report file.
	LogFlag string
	// LogFile is the report path, relative to the work directory.
	LogFile string
}

// Valgrind returns memcheck with full leak accounting and origin tracking,
// reporting to logFile.
func Valgrind(logFile string) *Instrumentation {
	return &Instrumentation{
		Tool:    "valgrind",
		Args:    []string{"--tool=memcheck", "--leak-check=full", "--track-origins=yes"},
		LogFlag: "--log-file=",
		LogFile: logFile,
	}
}

// Request describes one solver invocation.
type Request struct {
	WorkDir  string
	Template string
	// Pattern and Target are relative to WorkDir.
	Pattern string
	Target  string
	Timeout time.Duration
	// Instrument is nil for uninstrumented runs.
	Instrument *Instrumentation
}

// Result is the outcome of one invocation.
type Result struct {
	Argv    []string
	State   State
	Stdout  string
	Stderr  string
	Elapsed time.Duration
	Timeout time.Duration
	// Err holds a start failure or a non-zero exit. It is informational: the
	// run still counts as attempted.
	Err error
	// Report is the instrumentation log contents, empty when unavailable.
	Report string
}

// TimedOut reports whether the run hit its deadline.
func (r Result) TimedOut() bool { return r.State == TimedOut }

// Started reports whether the solver process was ever running.
func (r Result) Started() bool { return r.State == Completed || r.State == TimedOut }

// CommandLine renders Argv for transcripts.
func (r Result) CommandLine() string {
	return strings.Join(r.Argv, " ")
}

// Marker is the harness line recording how the run ended.
func (r Result) Marker() string {
	switch r.State {
	case TimedOut:
		return fmt.Sprintf("[Run] TIMED OUT after %ss (elapsed=%.2fs)",
			strconv.FormatFloat(r.Timeout.Seconds(), 'f', -1, 64), r.Elapsed.Seconds())
	case StartFailed:
		return fmt.Sprintf("[Run] FAILED to start: %v", r.Err)
	}
	return fmt.Sprintf("[Run] Done in %.2fs", r.Elapsed.Seconds())
}

// TimeoutArg renders a limit for the {timeout} placeholder in whole seconds,
// rounded up so a sub-second limit never reads as zero.
func TimeoutArg(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

// BuildArgv splits the template and substitutes the placeholders in every
// argument, then prepends the instrumentation wrapper.
func BuildArgv(req Request) ([]string, error) {
	if !strings.Contains(req.Template, PatternPlaceholder) || !strings.Contains(req.Template, TargetPlaceholder) {
		return nil, fmt.Errorf("%q needs %s and %s: %w", req.Template, PatternPlaceholder, TargetPlaceholder, ErrBadTemplate)
	}
	words, err := shellwords.Parse(req.Template)
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", req.Template, err, ErrBadTemplate)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("empty template: %w", ErrBadTemplate)
	}
	r := strings.NewReplacer(
		PatternPlaceholder, req.Pattern,
		TargetPlaceholder, req.Target,
		TimeoutPlaceholder, TimeoutArg(req.Timeout),
	)
	for i, w := range words {
		words[i] = r.Replace(w)
	}

	if in := req.Instrument; in != nil {
		wrapped := make([]string, 0, len(in.Args)+len(words)+2)
		wrapped = append(wrapped, in.Tool)
		wrapped = append(wrapped, in.Args...)
		if in.LogFlag != "" && in.LogFile != "" {
			wrapped = append(wrapped, in.LogFlag+in.LogFile)
		}
		words = append(wrapped, words...)
	}
	return words, nil
}

// Run executes req and blocks until the process exits or is killed. Only a
// bad template is returned as an error; every other failure is part of the
// Result.
func Run(ctx context.Context, req Request) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	res := Result{State: Pending, Timeout: req.Timeout}

	argv, err := BuildArgv(req)
	if err != nil {
		return res, err
	}
	res.Argv = argv

	if req.Instrument != nil {
		instrumentMu.Lock()
		defer instrumentMu.Unlock()
		if req.Instrument.LogFile != "" {
			// A stale report would be read as this run's.
			_ = os.Remove(filepath.Join(req.WorkDir, req.Instrument.LogFile))
		}
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = req.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = killGrace

	logger.Debug("Starting solver process.", "argv", argv, "dir", req.WorkDir, "timeout", req.Timeout)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.State, res.Err = StartFailed, err
		logger.Warn("Solver process could not start.", "argv0", argv[0], "error", err)
		return res, nil
	}
	res.State = Running
	runErr := cmd.Wait()
	end := time.Now()
	res.Elapsed = end.Sub(start)

	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	switch {
	case deadlineHit(ctx, runCtx, end):
		res.State = TimedOut
		logger.Warn("Solver process timed out.", "timeout", req.Timeout, "elapsed", res.Elapsed)
	default:
		res.State = Completed
		if runErr != nil {
			res.Err = runErr
			logger.Debug("Solver process exited with error.", "error", runErr)
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
		}
	}

	if in := req.Instrument; in != nil && in.LogFile != "" {
		if data, err := os.ReadFile(filepath.Join(req.WorkDir, in.LogFile)); err == nil {
			res.Report = string(data)
		} else {
			logger.Debug("Instrumentation report unavailable.", "file", in.LogFile, "error", err)
		}
	}
	return res, nil
}

// deadlineHit reports whether the run was ended by its own limit: the
// process was still being waited on when the deadline passed. A process that
// exited before the deadline is not a timeout even when the deadline passed
// before this check.
func deadlineHit(parent, runCtx context.Context, end time.Time) bool {
	deadline, ok := runCtx.Deadline()
	return ok &&
		parent.Err() == nil &&
		errors.Is(runCtx.Err(), context.DeadlineExceeded) &&
		!end.Before(deadline)
}
