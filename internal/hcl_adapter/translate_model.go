// This file translates the HCL schema structs into the format-agnostic
// configuration model of the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/format"
	"github.com/vk/isobench/internal/generate"
	"github.com/vk/isobench/internal/parse"
	"github.com/vk/isobench/internal/runner"
)

// defaultTestDir is the staging subdirectory used when a solver names none.
const defaultTestDir = "test"

func (l *Loader) translateSweep(ctx context.Context, s *Sweep, evalCtx *hcl.EvalContext) (config.Sweep, error) {
	out := config.Sweep{
		CorpusDir:         s.CorpusDir,
		ResultsDir:        s.ResultsDir,
		Seed:              s.Seed,
		Timeout:           config.DefaultTimeout,
		Levels:            slices.Clone(config.DefaultLevels),
		MaxSampleAttempts: s.MaxSampleAttempts,
		Workers:           s.Workers,
	}
	if out.Workers == 0 {
		out.Workers = config.DefaultWorkers
	}
	if s.Timeout != "" {
		d, err := parseDuration("sweep.timeout", s.Timeout)
		if err != nil {
			return config.Sweep{}, err
		}
		out.Timeout = d
	}
	if isExprDefined(ctx, s.Levels, "levels") {
		levels, err := decodeLevels("sweep", s.Levels, evalCtx)
		if err != nil {
			return config.Sweep{}, err
		}
		out.Levels = levels
	}
	return out, nil
}

// translateInstrumentation fills the memcheck defaults for whatever the block
// leaves unset. A missing block disables instrumentation.
func translateInstrumentation(i *Instrumentation) config.Instrumentation {
	if i == nil {
		return config.Instrumentation{}
	}
	def := runner.Valgrind("")
	out := config.Instrumentation{Enabled: i.Enabled, Tool: i.Tool, Args: i.Args, LogFlag: i.LogFlag}
	if out.Tool == "" {
		out.Tool = def.Tool
	}
	if out.Tool == def.Tool && out.Args == nil {
		out.Args = def.Args
	}
	if out.LogFlag == "" {
		out.LogFlag = def.LogFlag
	}
	return out
}

// translateFamily converts one family block. A family without explicit levels
// inherits the sweep levels unless it matches a fixed pattern.
func (l *Loader) translateFamily(ctx context.Context, f *Family, sweepLevels []int, evalCtx *hcl.EvalContext) (config.Family, error) {
	logger := ctxlog.FromContext(ctx).With("family", f.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if f.Generator != config.EdgeList {
		if _, err := generate.ParseGenerator(f.Generator); err != nil {
			return config.Family{}, fmt.Errorf("family %q: %w", f.Name, err)
		}
	}
	out := config.Family{
		Name:      f.Name,
		Generator: f.Generator,
		Groups:    f.Groups,
		Nodes:     f.Nodes,
		P:         f.P,
		PMin:      f.PMin,
		PMax:      f.PMax,
		M:         f.M,
		SourceDir: f.SourceDir,
	}

	switch {
	case isExprDefined(ctx, f.Levels, "levels"):
		levels, err := decodeLevels("family "+f.Name, f.Levels, evalCtx)
		if err != nil {
			return config.Family{}, err
		}
		out.Levels = levels
	case f.Pattern == nil:
		logger.Debug("Family inherits sweep levels.", "levels", sweepLevels)
		out.Levels = sweepLevels
	}

	if p := f.Pattern; p != nil {
		if p.Shape != "" {
			if _, err := generate.Shape(p.Shape); err != nil {
				return config.Family{}, fmt.Errorf("family %q: %w", f.Name, err)
			}
		}
		out.Pattern = &config.Pattern{Name: p.Name, Shape: p.Shape, Nodes: p.Nodes, P: p.P, PMin: p.PMin, PMax: p.PMax}
	}
	return out, nil
}

func translateSolver(s *Solver, sweepTimeout time.Duration) (config.Solver, error) {
	kind := parse.Generic
	if s.Kind != "" {
		k, err := parse.ParseKind(s.Kind)
		if err != nil {
			return config.Solver{}, fmt.Errorf("solver %q: %w", s.Name, err)
		}
		kind = k
	}
	fm, err := format.Parse(s.Format)
	if err != nil {
		return config.Solver{}, fmt.Errorf("solver %q: %w", s.Name, err)
	}
	out := config.Solver{
		Name:       s.Name,
		Kind:       kind,
		WorkDir:    s.WorkDir,
		TestDir:    s.TestDir,
		Command:    s.Command,
		Format:     fm,
		Instrument: s.Instrument,
		Timeout:    sweepTimeout,
		Families:   s.Families,
	}
	if out.TestDir == "" {
		out.TestDir = defaultTestDir
	}
	if s.Timeout != "" {
		d, err := parseDuration(fmt.Sprintf("solver %q timeout", s.Name), s.Timeout)
		if err != nil {
			return config.Solver{}, err
		}
		out.Timeout = d
	}
	if _, err := runner.BuildArgv(runner.Request{Template: out.Command}); err != nil {
		return config.Solver{}, fmt.Errorf("solver %q: %w", s.Name, err)
	}
	return out, nil
}

func decodeLevels(where string, expr hcl.Expression, evalCtx *hcl.EvalContext) ([]int, error) {
	var levels []int
	if diags := gohcl.DecodeExpression(expr, evalCtx, &levels); diags.HasErrors() {
		return nil, fmt.Errorf("%s levels: %w", where, diags)
	}
	return levels, nil
}

func parseDuration(what, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %v: %w", what, s, err, config.ErrInvalidConfig)
	}
	return d, nil
}
