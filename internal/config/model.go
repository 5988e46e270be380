package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/isobench/internal/format"
	"github.com/vk/isobench/internal/parse"
)

// Generator names accepted by a family block. Besides the synthetic models of
// the generate package, EdgeList loads real networks from SNAP files.
const EdgeList = "edge_list"

// Defaults applied by the loaders when a value is left unset.
const (
	DefaultTimeout = 120 * time.Second
	DefaultWorkers = 1
)

// DefaultLevels are the sample percentages drawn for every generated target.
var DefaultLevels = []int{10, 20, 60}

var (
	// ErrInvalidConfig wraps every semantic configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownFamily is returned when a family name is not configured.
	ErrUnknownFamily = errors.New("unknown family")
	// ErrUnknownSolver is returned when a solver name is not configured.
	ErrUnknownSolver = errors.New("unknown solver")
)

// Model is the complete, immutable benchmark configuration.
type Model struct {
	Sweep           Sweep
	Instrumentation Instrumentation
	Families        []Family
	Solvers         []Solver
	// Publish is nil when live publishing is disabled.
	Publish *Publish
}

// Sweep holds the run-wide settings.
type Sweep struct {
	CorpusDir  string
	ResultsDir string
	Seed       uint64
	// Timeout is the default per-run wall-clock limit.
	Timeout time.Duration
	Levels  []int
	// MaxSampleAttempts bounds fruitless random-walk draws per sample.
	MaxSampleAttempts int
	Workers           int
}

// Instrumentation configures the memory profiling wrapper.
type Instrumentation struct {
	Enabled bool
	Tool    string
	Args    []string
	// LogFlag prefixes the per-run report file name, e.g. "--log-file=".
	LogFlag string
}

// Family is one test family of the corpus.
type Family struct {
	Name string
	// Generator is one of the generate package models or EdgeList.
	Generator string
	// Groups is the number of generated targets.
	Groups int
	Nodes  int
	P      float64
	// PMin and PMax, when PMax > PMin, draw an edge density per target.
	PMin float64
	PMax float64
	M    int
	// Levels are the sample percentages; empty means full graph only.
	Levels []int
	// SourceDir holds the SNAP edge lists of an EdgeList family.
	SourceDir string
	// Pattern, when set, is matched against every target of the family.
	Pattern *Pattern
}

// Sampled reports whether the family draws connected samples.
func (f Family) Sampled() bool { return len(f.Levels) > 0 }

// Pattern is the shared query graph of a fixed-pattern family. Either Shape
// names a fixed cycle or Nodes and P describe a random G(n,m) pattern.
type Pattern struct {
	Name  string
	Shape string
	Nodes int
	P     float64
	PMin  float64
	PMax  float64
}

// Solver is an immutable solver profile.
type Solver struct {
	Name string
	Kind parse.Kind
	// WorkDir is the solver's current directory during a run.
	WorkDir string
	// TestDir is the staging subdirectory of WorkDir.
	TestDir string
	// Command holds {pattern}, {target} and optionally {timeout}.
	Command    string
	Format     format.Format
	Instrument bool
	Timeout    time.Duration
	// Families restricts the solver to the named families; empty means all.
	Families []string
}

// Runs reports whether the solver takes part in the named family.
func (s Solver) Runs(family string) bool {
	if len(s.Families) == 0 {
		return true
	}
	for _, f := range s.Families {
		if f == family {
			return true
		}
	}
	return false
}

// Publish configures the live socket.io record stream.
type Publish struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Family returns the named family.
func (m *Model) Family(name string) (Family, error) {
	for _, f := range m.Families {
		if f.Name == name {
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("%q: %w", name, ErrUnknownFamily)
}

// Solver returns the named solver profile.
func (m *Model) Solver(name string) (Solver, error) {
	for _, s := range m.Solvers {
		if s.Name == name {
			return s, nil
		}
	}
	return Solver{}, fmt.Errorf("%q: %w", name, ErrUnknownSolver)
}

// Validate checks cross-field constraints the loaders cannot express.
func (m *Model) Validate() error {
	if m.Sweep.CorpusDir == "" {
		return fmt.Errorf("sweep.corpus_dir is required: %w", ErrInvalidConfig)
	}
	if m.Sweep.ResultsDir == "" {
		return fmt.Errorf("sweep.results_dir is required: %w", ErrInvalidConfig)
	}
	if m.Sweep.Workers < 1 {
		return fmt.Errorf("sweep.workers=%d < 1: %w", m.Sweep.Workers, ErrInvalidConfig)
	}
	if m.Instrumentation.Enabled && m.Instrumentation.Tool == "" {
		return fmt.Errorf("instrumentation.tool is required when enabled: %w", ErrInvalidConfig)
	}

	families := make(map[string]struct{}, len(m.Families))
	for _, f := range m.Families {
		if _, dup := families[f.Name]; dup {
			return fmt.Errorf("family %q declared twice: %w", f.Name, ErrInvalidConfig)
		}
		families[f.Name] = struct{}{}
		if err := f.validate(); err != nil {
			return err
		}
	}

	solvers := make(map[string]struct{}, len(m.Solvers))
	for i, s := range m.Solvers {
		if _, dup := solvers[s.Name]; dup {
			return fmt.Errorf("solver %q declared twice: %w", s.Name, ErrInvalidConfig)
		}
		solvers[s.Name] = struct{}{}
		if s.WorkDir == "" || s.TestDir == "" {
			return fmt.Errorf("solver %q needs work_dir and test_dir: %w", s.Name, ErrInvalidConfig)
		}
		if s.Timeout <= 0 {
			return fmt.Errorf("solver %q timeout must be positive: %w", s.Name, ErrInvalidConfig)
		}
		for _, name := range s.Families {
			if _, ok := families[name]; !ok {
				return fmt.Errorf("solver %q: family %q: %w", s.Name, name, ErrUnknownFamily)
			}
		}
		for _, other := range m.Solvers[:i] {
			if overlaps(s.StagingRoot(), other.StagingRoot()) {
				return fmt.Errorf("solvers %q and %q stage into overlapping directories %s and %s: %w",
					other.Name, s.Name, other.StagingRoot(), s.StagingRoot(), ErrInvalidConfig)
			}
		}
	}
	if p := m.Publish; p != nil && p.URL == "" {
		return fmt.Errorf("publish.url is required: %w", ErrInvalidConfig)
	}
	return nil
}

func (f Family) validate() error {
	for _, l := range f.Levels {
		if l <= 0 || l > 100 {
			return fmt.Errorf("family %q: level %d not in 1..100: %w", f.Name, l, ErrInvalidConfig)
		}
	}
	if f.Generator == EdgeList {
		if f.SourceDir == "" {
			return fmt.Errorf("family %q: source_dir is required for %s: %w", f.Name, EdgeList, ErrInvalidConfig)
		}
	} else if f.Groups < 1 || f.Nodes < 1 {
		return fmt.Errorf("family %q: groups and nodes must be positive: %w", f.Name, ErrInvalidConfig)
	}
	if !f.Sampled() && f.Pattern == nil {
		return fmt.Errorf("family %q has neither levels nor a pattern: %w", f.Name, ErrInvalidConfig)
	}
	if p := f.Pattern; p != nil {
		if p.Name == "" {
			return fmt.Errorf("family %q: pattern needs a name: %w", f.Name, ErrInvalidConfig)
		}
		if p.Shape == "" && p.Nodes < 1 {
			return fmt.Errorf("family %q: pattern needs a shape or nodes: %w", f.Name, ErrInvalidConfig)
		}
	}
	return nil
}

// StagingRoot is the directory the stager owns for this solver. Everything
// below it is removed and recreated on every sweep.
func (s Solver) StagingRoot() string {
	return filepath.Clean(filepath.Join(s.WorkDir, s.TestDir))
}

// overlaps reports whether one directory equals or contains the other.
func overlaps(a, b string) bool {
	sep := string(filepath.Separator)
	return a == b || strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}
