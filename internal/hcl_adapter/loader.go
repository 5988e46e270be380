package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Vars override variable defaults by name. Values are strings.
	Vars map[string]string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader(vars map[string]string) *Loader {
	return &Loader{Vars: vars}
}

var variableSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "variable", LabelNames: []string{"name"}}},
}

type variableBody struct {
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
	Remain      hcl.Body       `hcl:",remain"`
}

// Load reads every .hcl file found under paths. Variables are collected from
// all files first, so any file may reference a variable declared in another.
// Singleton blocks (sweep, instrumentation, publish) may appear only once
// across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v: %w", paths, config.ErrInvalidConfig)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	files := make([]*hcl.File, 0, len(hclFiles))
	for _, file := range hclFiles {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		files = append(files, f)
	}

	vars, err := l.collectVariables(ctx, files)
	if err != nil {
		return nil, err
	}
	evalCtx := evalContext(vars)

	var (
		sweep    *Sweep
		inst     *Instrumentation
		pub      *Publish
		families []*Family
		solvers  []*Solver
	)
	for i, f := range files {
		var root fileRoot
		if diags := gohcl.DecodeBody(f.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", hclFiles[i], diags)
		}
		if root.Sweep != nil {
			if sweep != nil {
				return nil, fmt.Errorf("%s: duplicate sweep block: %w", hclFiles[i], config.ErrInvalidConfig)
			}
			sweep = root.Sweep
		}
		if root.Instrumentation != nil {
			if inst != nil {
				return nil, fmt.Errorf("%s: duplicate instrumentation block: %w", hclFiles[i], config.ErrInvalidConfig)
			}
			inst = root.Instrumentation
		}
		if root.Publish != nil {
			if pub != nil {
				return nil, fmt.Errorf("%s: duplicate publish block: %w", hclFiles[i], config.ErrInvalidConfig)
			}
			pub = root.Publish
		}
		families = append(families, root.Families...)
		solvers = append(solvers, root.Solvers...)
	}
	if sweep == nil {
		return nil, fmt.Errorf("a sweep block is required: %w", config.ErrInvalidConfig)
	}

	model := &config.Model{}
	if model.Sweep, err = l.translateSweep(ctx, sweep, evalCtx); err != nil {
		return nil, err
	}
	model.Instrumentation = translateInstrumentation(inst)
	for _, f := range families {
		fam, err := l.translateFamily(ctx, f, model.Sweep.Levels, evalCtx)
		if err != nil {
			return nil, err
		}
		model.Families = append(model.Families, fam)
	}
	for _, s := range solvers {
		sol, err := translateSolver(s, model.Sweep.Timeout)
		if err != nil {
			return nil, err
		}
		model.Solvers = append(model.Solvers, sol)
	}
	if pub != nil {
		model.Publish = &config.Publish{URL: pub.URL, Namespace: pub.Namespace, Event: pub.Event, InsecureSkipVerify: pub.InsecureSkipVerify}
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "families", len(model.Families), "solvers", len(model.Solvers), "variables", len(vars))
	return model, nil
}

// collectVariables evaluates every variable default against the environment
// and then applies the loader's overrides.
func (l *Loader) collectVariables(ctx context.Context, files []*hcl.File) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	base := &hcl.EvalContext{Variables: map[string]cty.Value{"env": envObject()}, Functions: functions}
	vars := make(map[string]cty.Value)

	for _, f := range files {
		content, _, diags := f.Body.PartialContent(variableSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("reading variables: %w", diags)
		}
		for _, block := range content.Blocks {
			name := block.Labels[0]
			if _, dup := vars[name]; dup {
				return nil, fmt.Errorf("variable %q declared twice: %w", name, config.ErrInvalidConfig)
			}
			var body variableBody
			if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
				return nil, fmt.Errorf("variable %q: %w", name, diags)
			}
			val := cty.NullVal(cty.DynamicPseudoType)
			if isExprDefined(ctx, body.Default, "default") {
				v, diags := body.Default.Value(base)
				if diags.HasErrors() {
					return nil, fmt.Errorf("variable %q default: %w", name, diags)
				}
				val = v
			}
			vars[name] = val
		}
	}

	overrides := make([]string, 0, len(l.Vars))
	for name := range l.Vars {
		overrides = append(overrides, name)
	}
	sort.Strings(overrides)
	for _, name := range overrides {
		if _, ok := vars[name]; !ok {
			return nil, fmt.Errorf("override for undeclared variable %q: %w", name, config.ErrInvalidConfig)
		}
		logger.Debug("Overriding variable.", "name", name)
		vars[name] = cty.StringVal(l.Vars[name])
	}
	return vars, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, in walk order.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
