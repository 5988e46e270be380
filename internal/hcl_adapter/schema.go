package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Variables       []*Variable      `hcl:"variable,block"`
	Sweep           *Sweep           `hcl:"sweep,block"`
	Instrumentation *Instrumentation `hcl:"instrumentation,block"`
	Families        []*Family        `hcl:"family,block"`
	Solvers         []*Solver        `hcl:"solver,block"`
	Publish         *Publish         `hcl:"publish,block"`
	Remain          hcl.Body         `hcl:",remain"`
}

// Variable declares a value reachable as var.<name> from every file.
type Variable struct {
	Name        string         `hcl:"name,label"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
	Remain      hcl.Body       `hcl:",remain"`
}

// Sweep maps the `sweep` block.
type Sweep struct {
	CorpusDir         string         `hcl:"corpus_dir"`
	ResultsDir        string         `hcl:"results_dir"`
	Seed              uint64         `hcl:"seed,optional"`
	Timeout           string         `hcl:"timeout,optional"`
	Levels            hcl.Expression `hcl:"levels,optional"`
	MaxSampleAttempts int            `hcl:"max_sample_attempts,optional"`
	Workers           int            `hcl:"workers,optional"`
}

// Instrumentation maps the `instrumentation` block.
type Instrumentation struct {
	Enabled bool     `hcl:"enabled,optional"`
	Tool    string   `hcl:"tool,optional"`
	Args    []string `hcl:"args,optional"`
	LogFlag string   `hcl:"log_flag,optional"`
}

// Family maps a `family "<name>"` block.
type Family struct {
	Name      string         `hcl:"name,label"`
	Generator string         `hcl:"generator"`
	Groups    int            `hcl:"groups,optional"`
	Nodes     int            `hcl:"nodes,optional"`
	P         float64        `hcl:"p,optional"`
	PMin      float64        `hcl:"p_min,optional"`
	PMax      float64        `hcl:"p_max,optional"`
	M         int            `hcl:"m,optional"`
	Levels    hcl.Expression `hcl:"levels,optional"`
	SourceDir string         `hcl:"source_dir,optional"`
	Pattern   *Pattern       `hcl:"pattern,block"`
}

// Pattern maps the `pattern "<name>"` block nested in a family.
type Pattern struct {
	Name  string  `hcl:"name,label"`
	Shape string  `hcl:"shape,optional"`
	Nodes int     `hcl:"nodes,optional"`
	P     float64 `hcl:"p,optional"`
	PMin  float64 `hcl:"p_min,optional"`
	PMax  float64 `hcl:"p_max,optional"`
}

// Solver maps a `solver "<name>"` block.
type Solver struct {
	Name       string   `hcl:"name,label"`
	Kind       string   `hcl:"kind,optional"`
	WorkDir    string   `hcl:"work_dir"`
	TestDir    string   `hcl:"test_dir,optional"`
	Command    string   `hcl:"command"`
	Format     string   `hcl:"format"`
	Instrument bool     `hcl:"instrument,optional"`
	Timeout    string   `hcl:"timeout,optional"`
	Families   []string `hcl:"families,optional"`
}

// Publish maps the `publish` block.
type Publish struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}
