// Package stage copies the corpus files a solver needs into the solver's own
// working tree, in the format and file names that solver reads.
package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/corpus"
	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/fsutil"
)

// ErrCorpusMissing is returned when a family's corpus files are absent.
var ErrCorpusMissing = errors.New("stage: corpus source missing")

// stagedPerm leaves staged graphs read-only; concurrent runs share them.
const stagedPerm = 0o444

// Staged is a test case ready to run, with paths relative to the solver's
// working directory.
type Staged struct {
	Case    corpus.TestCase
	Pattern string
	Target  string
}

// Stager copies from the corpus rooted at CorpusDir.
type Stager struct {
	CorpusDir string
}

// New returns a Stager reading from corpusDir.
func New(corpusDir string) *Stager {
	return &Stager{CorpusDir: corpusDir}
}

// Dir is the staging directory of a family inside the solver's tree.
func Dir(s config.Solver, family string) string {
	return filepath.Join(s.StagingRoot(), family)
}

// Stage replaces the solver's staging directory for family with the pattern
// and target files of cases. When the family's corpus directory is absent the
// destination is left alone and ErrCorpusMissing is returned. A single case
// whose files are missing is logged and dropped from the result.
func (st *Stager) Stage(ctx context.Context, s config.Solver, family string, cases []corpus.TestCase) ([]Staged, error) {
	logger := ctxlog.FromContext(ctx).With("solver", s.Name, "family", family)

	src := filepath.Join(st.CorpusDir, family, string(s.Format))
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", src, ErrCorpusMissing)
	}

	dst := Dir(s, family)
	if err := os.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", dst, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dst, err)
	}

	copied := make(map[string]string)
	place := func(rel string) (string, error) {
		if p, ok := copied[rel]; ok {
			return p, nil
		}
		name := filepath.Base(rel)
		if err := fsutil.CopyFile(filepath.Join(st.CorpusDir, rel), filepath.Join(dst, name), stagedPerm); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%s: %w", rel, ErrCorpusMissing)
			}
			return "", err
		}
		p := relToWorkDir(s, family, name)
		copied[rel] = p
		return p, nil
	}

	out := make([]Staged, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, ok := tc.Files[s.Format]
		if !ok {
			logger.Warn("Case has no files in solver format.", "case", tc.String(), "format", s.Format)
			continue
		}
		pattern, err := place(files.Pattern)
		if err == nil {
			var target string
			if target, err = place(files.Target); err == nil {
				out = append(out, Staged{Case: tc, Pattern: pattern, Target: target})
				continue
			}
		}
		if !errors.Is(err, ErrCorpusMissing) {
			return nil, err
		}
		logger.Warn("Skipping case with missing corpus file.", "case", tc.String(), "error", err)
	}

	logger.Debug("Staged test cases.", "dir", dst, "cases", len(out), "files", len(copied))
	return out, nil
}

func relToWorkDir(s config.Solver, family, name string) string {
	p := filepath.Join(s.TestDir, family, name)
	if filepath.IsAbs(p) {
		return p
	}
	return "./" + filepath.ToSlash(p)
}
