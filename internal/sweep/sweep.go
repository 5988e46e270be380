// Package sweep drives a benchmark sweep: it stages every (solver, family)
// pair, runs each staged case through a bounded worker pool, and folds the
// parsed outcomes into a results store.
//
// Staged graphs are shared read-only between concurrent runs. Each run owns
// its instrumentation report file, and instrumented runs are serialized by the
// runner. A failed, missing or timed-out case never stops the sweep; only a
// configuration error or cancellation of the parent context does.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/corpus"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/parse"
	"github.com/vk/isobench/internal/publish"
	"github.com/vk/isobench/internal/results"
	"github.com/vk/isobench/internal/runner"
	"github.com/vk/isobench/internal/stage"
)

// RunFunc executes one solver invocation.
type RunFunc func(ctx context.Context, req runner.Request) (runner.Result, error)

// Executor runs one sweep. Its fields are set by New and must not change
// while Execute is running.
type Executor struct {
	cfg         *config.Model
	manifest    *corpus.Manifest
	stager      *stage.Stager
	store       *results.Store
	transcripts *results.Transcripts
	publisher   publish.Publisher
	progress    *Progress
	sweepID     string
	run         RunFunc
}

// Option customizes an Executor.
type Option func(*Executor)

// WithPublisher streams every stored record to p.
func WithPublisher(p publish.Publisher) Option {
	return func(e *Executor) { e.publisher = p }
}

// WithProgress reports into p instead of a private counter.
func WithProgress(p *Progress) Option {
	return func(e *Executor) { e.progress = p }
}

// WithSweepID stamps every record with id.
func WithSweepID(id string) Option {
	return func(e *Executor) { e.sweepID = id }
}

// WithRunFunc replaces runner.Run.
func WithRunFunc(fn RunFunc) Option {
	return func(e *Executor) { e.run = fn }
}

// New returns an Executor writing records into store.
func New(cfg *config.Model, manifest *corpus.Manifest, store *results.Store, opts ...Option) *Executor {
	e := &Executor{
		cfg:         cfg,
		manifest:    manifest,
		stager:      stage.New(cfg.Sweep.CorpusDir),
		store:       store,
		transcripts: results.NewTranscripts(cfg.Sweep.ResultsDir),
		publisher:   publish.Nop{},
		progress:    &Progress{},
		run:         runner.Run,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// job is one staged case for one solver.
type job struct {
	solver    config.Solver
	extractor parse.Extractor
	staged    stage.Staged
}

// Execute stages all pairs and then runs every job. It returns an error only
// for a bad solver template, an unusable results directory or cancellation.
func (e *Executor) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, s := range e.cfg.Solvers {
		if _, err := runner.BuildArgv(runner.Request{Template: s.Command}); err != nil {
			return fmt.Errorf("solver %q: %w", s.Name, err)
		}
	}
	if err := os.MkdirAll(e.cfg.Sweep.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	defer e.transcripts.Close()

	jobs, pairs, err := e.stageAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := e.transcripts.Begin(p[0], p[1]); err != nil {
			return err
		}
	}
	e.progress.total.Add(int64(len(jobs)))
	logger.Info("🚀 Starting sweep.", "jobs", len(jobs), "workers", e.cfg.Sweep.Workers, "sweep_id", e.sweepID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.Sweep.Workers))
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			e.runJob(ctxlog.With(gctx, "job", i), j)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range pairs {
		if err := e.transcripts.End(p[0], p[1]); err != nil {
			logger.Warn("Closing transcript failed.", "solver", p[0], "family", p[1], "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := e.progress.Snapshot()
	logger.Info("🏁 Sweep finished.", "runs", snap.Done, "solved", snap.Solved, "timed_out", snap.TimedOut, "failed", snap.Failed)
	return nil
}

// stageAll stages every (solver, family) pair in manifest order. Pairs whose
// corpus is missing and families the configuration no longer names are
// skipped.
func (e *Executor) stageAll(ctx context.Context) ([]job, [][2]string, error) {
	logger := ctxlog.FromContext(ctx)
	var (
		jobs  []job
		pairs [][2]string
	)
	for _, family := range e.manifest.Families {
		if _, err := e.cfg.Family(family); err != nil {
			logger.Warn("Skipping corpus family absent from configuration.", "error", err)
			continue
		}
		cases := e.manifest.ForFamily(family)
		for _, s := range e.cfg.Solvers {
			if !s.Runs(family) {
				continue
			}
			staged, err := e.stager.Stage(ctx, s, family, cases)
			if errors.Is(err, stage.ErrCorpusMissing) {
				logger.Warn("Skipping solver on family: corpus missing.", "solver", s.Name, "family", family, "error", err)
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				logger.Error("Staging failed, skipping.", "solver", s.Name, "family", family, "error", err)
				continue
			}
			if len(staged) == 0 {
				continue
			}
			ex := parse.For(s.Kind)
			for _, st := range staged {
				jobs = append(jobs, job{solver: s, extractor: ex, staged: st})
			}
			pairs = append(pairs, [2]string{s.Name, family})
		}
	}
	return jobs, pairs, nil
}

func (e *Executor) runJob(ctx context.Context, j job) {
	tc := j.staged.Case
	logger := ctxlog.FromContext(ctx).With("solver", j.solver.Name, "case", tc.String())
	ctx = ctxlog.WithLogger(ctx, logger)

	req := runner.Request{
		WorkDir:  j.solver.WorkDir,
		Template: j.solver.Command,
		Pattern:  j.staged.Pattern,
		Target:   j.staged.Target,
		Timeout:  j.solver.Timeout,
	}
	if e.cfg.Instrumentation.Enabled && j.solver.Instrument {
		req.Instrument = &runner.Instrumentation{
			Tool:    e.cfg.Instrumentation.Tool,
			Args:    e.cfg.Instrumentation.Args,
			LogFlag: e.cfg.Instrumentation.LogFlag,
			LogFile: ReportFile(e.cfg.Instrumentation.Tool, j.solver.Name, tc),
		}
	}

	logger.Debug("Worker picked up case.")
	res, err := e.run(ctx, req)
	if err != nil {
		logger.Error("Run could not start.", "error", err)
		e.progress.failed.Add(1)
		e.progress.done.Add(1)
		return
	}
	if ctx.Err() != nil {
		logger.Debug("Sweep cancelled, run discarded.")
		return
	}

	in := parse.Input{Harness: res.Marker() + "\n"}
	block := results.Block{Header: header(j.solver.Name, tc), Command: res.CommandLine(), Marker: res.Marker()}
	if !res.TimedOut() {
		in.Stdout, in.Stderr, in.Instrumentation = res.Stdout, res.Stderr, res.Report
		block.Stdout, block.Stderr, block.Report = res.Stdout, res.Stderr, res.Report
	}
	out := parse.Parse(j.extractor, in)

	rec := results.Record{
		SweepID:        e.sweepID,
		Solver:         j.solver.Name,
		Family:         tc.Family,
		Group:          tc.Group,
		Level:          tc.Level,
		ElapsedSeconds: out.Elapsed,
		TimeSource:     out.TimeSource,
		WallSeconds:    res.Elapsed.Seconds(),
		TimedOut:       res.TimedOut(),
		BytesAllocated: out.BytesAllocated,
		InUseAtExit:    out.InUseAtExit,
		Found:          out.Found,
		RawOutputRef:   results.TranscriptFile(j.solver.Name, tc.Family),
	}
	if res.Err != nil {
		rec.ExitError = res.Err.Error()
	}
	e.store.Put(rec)

	if err := e.transcripts.Append(j.solver.Name, tc.Family, block); err != nil {
		logger.Warn("Transcript write failed.", "error", err)
	}
	if err := e.publisher.Publish(ctx, rec); err != nil {
		logger.Warn("Publishing record failed.", "error", err)
	}

	e.progress.done.Add(1)
	switch {
	case rec.TimedOut:
		e.progress.timedOut.Add(1)
		logger.Info("⏱️ Run timed out.", "limit", j.solver.Timeout)
	case !res.Started():
		e.progress.failed.Add(1)
		logger.Error("❌ Solver could not start.", "error", res.Err)
	case rec.Solved():
		e.progress.solved.Add(1)
		logger.Info("✅ Run finished.", "seconds", *rec.ElapsedSeconds, "source", rec.TimeSource)
	default:
		e.progress.failed.Add(1)
		logger.Warn("Run finished without a time.", "exit_error", rec.ExitError)
	}
}

// ReportFile names the instrumentation report of one run. Names differ for
// every (solver, case) pair so concurrent runs never share a report.
func ReportFile(tool, solver string, tc corpus.TestCase) string {
	prefix := filepath.Base(tool)
	if tc.Sampled() {
		return fmt.Sprintf("%s_%s_%s_grp%s_lvl%d.log", prefix, solver, tc.Family, tc.Group, tc.Level)
	}
	return fmt.Sprintf("%s_%s_%s_%s.log", prefix, solver, tc.Family, tc.Group)
}

func header(solver string, tc corpus.TestCase) string {
	if tc.Sampled() {
		return parse.GroupHeader(solver, tc.Group, tc.Level)
	}
	return parse.GraphHeader(solver, tc.Family, tc.Group)
}
