package results

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/isobench/internal/fsutil"
)

// Separator joins the cells of every summary table.
const Separator = " | "

// Output file names.
const (
	RecordsFile      = "records.jsonl"
	SolvedCountsFile = "solved_counts.txt"
	nanCell          = "NaN"
	summarySuffix    = "_summary.txt"
)

// GroupedFile is the summary of a solver's sampled families.
func GroupedFile(solver string) string { return solver + summarySuffix }

// FlatFile is the summary of a solver's fixed-pattern cases in one family.
func FlatFile(solver, family string) string { return solver + "_" + family + summarySuffix }

// WriteGrouped renders the sampled rows of one solver: a section per family,
// one line per group with a time and an allocation column per level.
func WriteGrouped(w io.Writer, rows []SummaryRow, levels []int) error {
	bw := bufio.NewWriter(w)

	header := []string{"group"}
	for _, l := range levels {
		header = append(header, strconv.Itoa(l)+"_time(s)")
	}
	for _, l := range levels {
		header = append(header, strconv.Itoa(l)+"_alloc(B)")
	}

	for _, fam := range familiesOf(rows) {
		fmt.Fprintf(bw, "-- test family: %s --\n", fam)
		bw.WriteString(strings.Join(header, Separator) + "\n")

		byGroup := make(map[string]map[int]SummaryRow)
		var groups []string
		for _, r := range rows {
			if r.Family != fam || r.Level == 0 {
				continue
			}
			if _, ok := byGroup[r.Group]; !ok {
				byGroup[r.Group] = make(map[int]SummaryRow)
				groups = append(groups, r.Group)
			}
			byGroup[r.Group][r.Level] = r
		}

		for _, g := range groups {
			cells := []string{g}
			for _, l := range levels {
				cells = append(cells, byGroup[g][l].Time)
			}
			for _, l := range levels {
				cells = append(cells, byGroup[g][l].Alloc())
			}
			bw.WriteString(strings.Join(cells, Separator) + "\n")
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteFlat renders the fixed-pattern rows of one solver on one family.
// Timeouts and unknown values are written as NaN.
func WriteFlat(w io.Writer, solver, family string, rows []SummaryRow) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "=== Summary for solver: %s (%s graphs) ===\n\n", solver, family)
	bw.WriteString(strings.Join([]string{"graph", "time(s)", "alloc(B)"}, Separator) + "\n")
	for _, r := range rows {
		t := r.Time
		if t == "" || t == TimeoutCell {
			t = nanCell
		}
		alloc := r.Alloc()
		if alloc == "" {
			alloc = nanCell
		}
		bw.WriteString(strings.Join([]string{r.Group, t, alloc}, Separator) + "\n")
	}
	return bw.Flush()
}

// WriteSolvedCounts renders the solver × family matrix of solved cases.
func WriteSolvedCounts(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	families := s.Families()
	bw.WriteString(strings.Join(append([]string{"solver"}, families...), Separator) + "\n")
	for _, solver := range s.Solvers() {
		cells := []string{solver}
		for _, fam := range families {
			cells = append(cells, strconv.Itoa(s.SolvedCount(solver, fam)))
		}
		bw.WriteString(strings.Join(cells, Separator) + "\n")
	}
	return bw.Flush()
}

// WriteJSONL writes one JSON object per record.
func WriteJSONL(w io.Writer, recs []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %v: %w", r.Key(), err)
		}
	}
	return bw.Flush()
}

// WriteAll replaces every summary artifact in dir from the store. Summary
// tables of earlier runs are removed first, so a solver or family missing
// from s leaves no table behind.
func WriteAll(dir string, s *Store, levels []int) ([]string, error) {
	if err := removeSummaries(dir); err != nil {
		return nil, err
	}
	var written []string
	put := func(name string, render func(io.Writer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	rows := s.Rows()
	for _, solver := range s.Solvers() {
		var sampled []SummaryRow
		fixed := make(map[string][]SummaryRow)
		for _, r := range rows {
			switch {
			case r.Solver != solver:
			case r.Level > 0:
				sampled = append(sampled, r)
			default:
				fixed[r.Family] = append(fixed[r.Family], r)
			}
		}
		if len(sampled) > 0 {
			if err := put(GroupedFile(solver), func(w io.Writer) error { return WriteGrouped(w, sampled, levels) }); err != nil {
				return written, err
			}
		}
		for _, fam := range s.Families() {
			if len(fixed[fam]) == 0 {
				continue
			}
			if err := put(FlatFile(solver, fam), func(w io.Writer) error { return WriteFlat(w, solver, fam, fixed[fam]) }); err != nil {
				return written, err
			}
		}
	}

	if err := put(SolvedCountsFile, func(w io.Writer) error { return WriteSolvedCounts(w, s) }); err != nil {
		return written, err
	}
	if err := put(RecordsFile, func(w io.Writer) error { return WriteJSONL(w, s.Records(nil)) }); err != nil {
		return written, err
	}
	return written, nil
}

// removeSummaries deletes the summary tables directly inside dir.
func removeSummaries(dir string) error {
	files, err := fsutil.FindFiles(dir, summarySuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing old summaries: %w", err)
	}
	for _, f := range files {
		if filepath.Dir(f) != filepath.Clean(dir) {
			continue
		}
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("removing old summary: %w", err)
		}
	}
	return nil
}

func familiesOf(rows []SummaryRow) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if r.Level > 0 && !seen[r.Family] {
			seen[r.Family] = true
			out = append(out, r.Family)
		}
	}
	return out
}
