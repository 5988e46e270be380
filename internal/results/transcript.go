package results

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/isobench/internal/parse"
)

// TranscriptFile is the raw log of one solver on one family.
func TranscriptFile(solver, family string) string {
	return solver + "_" + family + "_results.txt"
}

// Block is the transcript section of one run.
type Block struct {
	// Header is parse.GroupHeader or parse.GraphHeader.
	Header  string
	Command string
	// Marker is the runner's Done or TIMED OUT line.
	Marker string
	Stdout string
	Stderr string
	// Report is the raw instrumentation report; only its heap summary lines
	// are kept.
	Report string
}

// HeapLines extracts the "in use at exit" and "total heap usage" lines of a
// memcheck report, in that order.
func HeapLines(report string) []string {
	var inUse, total string
	for line := range strings.Lines(report) {
		switch {
		case inUse == "" && strings.Contains(line, "in use at exit:"):
			inUse = strings.TrimSpace(line)
		case total == "" && strings.Contains(line, "total heap usage:"):
			total = strings.TrimSpace(line)
		}
	}
	var out []string
	for _, l := range []string{inUse, total} {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (b Block) render() string {
	var sb strings.Builder
	sb.WriteString("\n" + b.Header + "\n")
	if b.Command != "" {
		sb.WriteString(parse.CmdPrefix + " " + b.Command + "\n")
	}
	sb.WriteString(b.Marker + "\n")
	for _, text := range []string{b.Stdout, b.Stderr} {
		if text == "" {
			continue
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}
	for _, l := range HeapLines(b.Report) {
		sb.WriteString(parse.ValgrindPrefix + " " + l + "\n")
	}
	return sb.String()
}

type transcript struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Transcripts owns the open transcript files of a sweep. Each file is
// written by one goroutine at a time.
type Transcripts struct {
	dir   string
	mu    sync.Mutex
	files map[string]*transcript
}

// NewTranscripts writes transcripts into dir.
func NewTranscripts(dir string) *Transcripts {
	return &Transcripts{dir: dir, files: make(map[string]*transcript)}
}

// Begin truncates the transcript of solver on family and writes its opening
// line.
func (t *Transcripts) Begin(solver, family string) error {
	name := TranscriptFile(solver, family)
	f, err := os.Create(filepath.Join(t.dir, name))
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	tr := &transcript{f: f, w: bufio.NewWriter(f)}
	fmt.Fprintf(tr.w, "=== START %s (%s) ===\n", solver, family)

	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.files[name]; ok {
		old.f.Close()
	}
	t.files[name] = tr
	return nil
}

// Append writes one run block. Blocks of concurrent runs never interleave.
func (t *Transcripts) Append(solver, family string, b Block) error {
	t.mu.Lock()
	tr, ok := t.files[TranscriptFile(solver, family)]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("transcript %s not begun", TranscriptFile(solver, family))
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, err := tr.w.WriteString(b.render()); err != nil {
		return err
	}
	return tr.w.Flush()
}

// End writes the closing line and closes the file.
func (t *Transcripts) End(solver, family string) error {
	name := TranscriptFile(solver, family)
	t.mu.Lock()
	tr, ok := t.files[name]
	delete(t.files, name)
	t.mu.Unlock()
	if !ok {
		return nil
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	fmt.Fprintf(tr.w, "=== END   %s (%s) ===\n", solver, family)
	return errors.Join(tr.w.Flush(), tr.f.Close())
}

// Close closes transcripts left open after an aborted sweep.
func (t *Transcripts) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for name, tr := range t.files {
		tr.mu.Lock()
		errs = append(errs, tr.w.Flush(), tr.f.Close())
		tr.mu.Unlock()
		delete(t.files, name)
	}
	return errors.Join(errs...)
}

// LoadTranscript rebuilds the records of solver on family from a transcript
// written by an earlier sweep. The solver name in each block header wins over
// the solver argument.
func LoadTranscript(dir, solver, family string, ex parse.Extractor) ([]Record, error) {
	name := TranscriptFile(solver, family)
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := parse.ParseTranscript(f, ex)
	recs := make([]Record, 0, len(entries))
	for _, e := range entries {
		r := Record{
			Solver:         e.Solver,
			Family:         family,
			Group:          e.Group,
			Level:          e.Level,
			ElapsedSeconds: e.Output.Elapsed,
			TimeSource:     e.Output.TimeSource,
			TimedOut:       e.Output.TimedOut,
			BytesAllocated: e.Output.BytesAllocated,
			InUseAtExit:    e.Output.InUseAtExit,
			Found:          e.Output.Found,
			RawOutputRef:   name,
		}
		if r.Solver == "" {
			r.Solver = solver
		}
		recs = append(recs, r)
	}
	return recs, err
}
