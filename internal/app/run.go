package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/google/uuid"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/corpus"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/parse"
	"github.com/vk/isobench/internal/results"
	"github.com/vk/isobench/internal/sweep"
)

// Run executes the stages selected by the configured mode.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	var err error
	switch a.config.Mode {
	case ModeGenerate:
		_, err = a.generate(ctx)
	case ModeRun:
		err = a.sweep(ctx, nil)
	case ModeSummarize:
		err = a.summarize(ctx)
	default:
		var m *corpus.Manifest
		if m, err = a.generate(ctx); err == nil {
			err = a.sweep(ctx, m)
		}
	}
	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

func (a *App) generate(ctx context.Context) (*corpus.Manifest, error) {
	a.logger.Info("📦 Generating corpus...", "dir", a.model.Sweep.CorpusDir, "families", len(a.model.Families))
	m, err := corpus.NewBuilder(a.model.Sweep).Build(ctx, a.model.Families)
	if corpus.IsConfigError(err) {
		return nil, fmt.Errorf("corpus configuration rejected: %w: %w", err, config.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("corpus generation failed: %w", err)
	}
	a.logger.Info("📦 Corpus ready.", "cases", len(m.Cases))
	return m, nil
}

// sweep runs every solver over the corpus described by m, loading the
// manifest from disk when m is nil. Summaries are written even when the
// sweep is cancelled part way.
func (a *App) sweep(ctx context.Context, m *corpus.Manifest) error {
	if m == nil {
		var err error
		if m, err = corpus.Load(a.model.Sweep.CorpusDir); err != nil {
			return fmt.Errorf("loading corpus manifest: %w", err)
		}
	}

	pub, err := a.publisher(ctx, a.model.Publish)
	if err != nil {
		return fmt.Errorf("connecting publisher: %w", err)
	}
	defer pub.Close()

	store := results.NewStore()
	a.store.Store(store)
	exec := sweep.New(a.model, m, store,
		sweep.WithPublisher(pub),
		sweep.WithProgress(a.progress),
		sweep.WithSweepID(uuid.NewString()),
	)
	runErr := exec.Execute(ctx)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		a.logger.Warn("Sweep interrupted, writing partial results.", "records", store.Len())
	} else if runErr != nil {
		return fmt.Errorf("sweep failed: %w", runErr)
	}

	if err := a.write(store); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// summarize rebuilds every summary from the transcripts left by earlier runs.
func (a *App) summarize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	store := results.NewStore()
	dir := a.model.Sweep.ResultsDir
	for _, s := range a.model.Solvers {
		ex := parse.For(s.Kind)
		for _, f := range a.model.Families {
			if !s.Runs(f.Name) {
				continue
			}
			recs, err := results.LoadTranscript(dir, s.Name, f.Name, ex)
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("No transcript, skipping.", "solver", s.Name, "family", f.Name)
				continue
			}
			if err != nil {
				logger.Warn("Transcript partly unreadable.", "solver", s.Name, "family", f.Name, "error", err)
			}
			for _, r := range recs {
				store.Put(r)
			}
		}
	}
	if store.Len() == 0 {
		logger.Warn("No transcripts found.", "dir", dir)
	}
	return a.write(store)
}

func (a *App) write(store *results.Store) error {
	files, err := results.WriteAll(a.model.Sweep.ResultsDir, store, a.summaryLevels())
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	a.logger.Info("📊 Results written.", "dir", a.model.Sweep.ResultsDir, "files", len(files), "records", store.Len())
	return nil
}

// summaryLevels is the sorted union of every family's sample levels.
func (a *App) summaryLevels() []int {
	var levels []int
	for _, f := range a.model.Families {
		for _, l := range f.Levels {
			if !slices.Contains(levels, l) {
				levels = append(levels, l)
			}
		}
	}
	slices.Sort(levels)
	return levels
}
