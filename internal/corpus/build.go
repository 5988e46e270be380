package corpus

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/format"
	"github.com/vk/isobench/internal/fsutil"
	"github.com/vk/isobench/internal/generate"
	"github.com/vk/isobench/internal/graph"
)

// EdgeListExts are the file suffixes read from an edge-list source directory.
var EdgeListExts = []string{".txt", ".edges", ".el"}

// Builder writes a corpus under Root.
type Builder struct {
	Root        string
	Seed        uint64
	MaxAttempts int
}

// NewBuilder configures a Builder from the sweep settings.
func NewBuilder(s config.Sweep) *Builder {
	return &Builder{Root: s.CorpusDir, Seed: s.Seed, MaxAttempts: s.MaxSampleAttempts}
}

type target struct {
	group string
	g     *graph.Graph
	rng   *rand.Rand
}

// Build regenerates every family and writes the manifest. Each family
// directory is replaced. A sample that cannot be drawn is logged and left
// out; an unknown generator or unreadable source aborts the build.
func (b *Builder) Build(ctx context.Context, families []config.Family) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(b.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus root: %w", err)
	}

	m := &Manifest{Seed: b.Seed}
	for _, f := range families {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cases, err := b.buildFamily(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("family %q: %w", f.Name, err)
		}
		m.Families = append(m.Families, f.Name)
		m.Cases = append(m.Cases, cases...)
		logger.Info("📦 Family generated.", "family", f.Name, "cases", len(cases))
	}

	if err := m.write(b.Root); err != nil {
		return nil, err
	}
	logger.Debug("Manifest written.", "path", filepath.Join(b.Root, ManifestFile), "cases", len(m.Cases))
	return m, nil
}

func (b *Builder) buildFamily(ctx context.Context, f config.Family) ([]TestCase, error) {
	logger := ctxlog.FromContext(ctx).With("family", f.Name)

	dir := filepath.Join(b.Root, f.Name)
	if err := os.RemoveAll(dir); err != nil {
		return nil, err
	}
	for _, fm := range format.All {
		if err := os.MkdirAll(filepath.Join(dir, string(fm)), 0o755); err != nil {
			return nil, err
		}
	}

	targets, err := b.targets(ctx, f)
	if err != nil {
		return nil, err
	}

	var patternFiles map[format.Format]string
	if f.Pattern != nil {
		p, err := b.pattern(f)
		if err != nil {
			return nil, err
		}
		patternFiles, err = b.writeAll(f.Name, p, format.Pattern, func(fm format.Format) string {
			return format.FixedPatternFile(fm, f.Pattern.Name)
		})
		if err != nil {
			return nil, err
		}
	}

	var cases []TestCase
	for _, t := range targets {
		name := func(fm format.Format) string { return format.TargetFile(fm, t.group) }
		if f.Pattern != nil {
			name = func(fm format.Format) string { return format.NamedFile(fm, t.group) }
		}
		targetFiles, err := b.writeAll(f.Name, t.g, format.Target, name)
		if err != nil {
			return nil, err
		}

		if patternFiles != nil {
			cases = append(cases, newCase(f.Name, t.group, 0, patternFiles, targetFiles))
		}
		if !f.Sampled() {
			continue
		}

		base := t.g.LargestComponent()
		for _, level := range f.Levels {
			sample, err := generate.SampleConnected(base, float64(level)/100, t.rng, b.MaxAttempts)
			if err != nil {
				logger.Warn("Skipping sample.", "group", t.group, "level", level, "error", err)
				continue
			}
			sampleFiles, err := b.writeAll(f.Name, sample, format.Pattern, func(fm format.Format) string {
				return format.SampleFile(fm, t.group, level)
			})
			if err != nil {
				return nil, err
			}
			cases = append(cases, newCase(f.Name, t.group, level, sampleFiles, targetFiles))
		}
	}
	return cases, nil
}

// targets generates or loads the data graphs of a family. Each target owns a
// random stream derived from the seed, family and group, so adding a family
// or a group never changes the graphs of another.
func (b *Builder) targets(ctx context.Context, f config.Family) ([]target, error) {
	logger := ctxlog.FromContext(ctx)

	if f.Generator == config.EdgeList {
		paths, err := fsutil.FindFiles(f.SourceDir, EdgeListExts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %v: %w", f.SourceDir, err, ErrSourceUnreadable)
		}
		out := make([]target, 0, len(paths))
		for _, path := range paths {
			g, err := loadEdgeList(path)
			if err != nil {
				return nil, err
			}
			group := fsutil.Stem(path)
			if n := g.SelfLoops(); n > 0 {
				logger.Debug("Dropped self-loops.", "graph", group, "count", n)
			}
			out = append(out, target{group: group, g: g, rng: b.stream(f.Name, group)})
		}
		return out, nil
	}

	gen, err := generate.ParseGenerator(f.Generator)
	if err != nil {
		return nil, err
	}
	out := make([]target, 0, f.Groups)
	for i := 1; i <= f.Groups; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := fmt.Sprint(i)
		if f.Pattern != nil {
			group = fmt.Sprintf("%d_%s_graph_%d", i, f.Name, f.Nodes)
		}
		rng := b.stream(f.Name, group)
		params := generate.Params{Nodes: f.Nodes, P: density(f.P, f.PMin, f.PMax, rng), M: f.M}
		if gen == generate.GNM && params.M == 0 {
			params.M = generate.EdgesForDensity(f.Nodes, params.P)
		}
		g, err := generate.Generate(gen, params, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, target{group: group, g: g, rng: rng})
	}
	return out, nil
}

func (b *Builder) pattern(f config.Family) (*graph.Graph, error) {
	p := f.Pattern
	if p.Shape != "" {
		return generate.Shape(p.Shape)
	}
	rng := b.stream(f.Name, "pattern/"+p.Name)
	d := density(p.P, p.PMin, p.PMax, rng)
	return generate.NewGNM(p.Nodes, generate.EdgesForDensity(p.Nodes, d), rng)
}

func (b *Builder) writeAll(family string, g *graph.Graph, role format.Role, name func(format.Format) string) (map[format.Format]string, error) {
	out := make(map[format.Format]string, len(format.All))
	for _, fm := range format.All {
		data, err := format.Encode(g, fm, role)
		if err != nil {
			return nil, err
		}
		rel := filepath.Join(family, string(fm), name(fm))
		if err := fsutil.WriteFileAtomic(filepath.Join(b.Root, rel), data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", rel, err)
		}
		out[fm] = rel
	}
	return out, nil
}

func (b *Builder) stream(family, group string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(family))
	h.Write([]byte{0})
	h.Write([]byte(group))
	return rand.New(rand.NewPCG(b.Seed, h.Sum64()))
}

func newCase(family, group string, level int, patterns, targets map[format.Format]string) TestCase {
	tc := TestCase{Family: family, Group: group, Level: level, Files: make(map[format.Format]Files, len(targets))}
	for fm, t := range targets {
		tc.Files[fm] = Files{Pattern: patterns[fm], Target: t}
	}
	return tc
}

// density draws uniformly from [lo, hi) when the range is non-empty and
// returns p otherwise.
func density(p, lo, hi float64, rng *rand.Rand) float64 {
	if hi > lo {
		return lo + rng.Float64()*(hi-lo)
	}
	return p
}

func loadEdgeList(path string) (*graph.Graph, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSourceUnreadable)
	}
	defer fh.Close()
	g, err := generate.LoadEdgeList(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// IsConfigError reports whether a Build error stems from configuration
// rather than I/O on the corpus itself.
func IsConfigError(err error) bool {
	return errors.Is(err, generate.ErrUnknownGenerator) ||
		errors.Is(err, generate.ErrInvalidParameter) ||
		errors.Is(err, ErrSourceUnreadable)
}
