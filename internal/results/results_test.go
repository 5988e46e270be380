package results

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/isobench/internal/parse"
)

func ptr[T any](v T) *T { return &v }

func TestRow_TimeoutWinsOverElapsed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rec      Record
		wantTime string
	}{
		{name: "timeout with elapsed", rec: Record{TimedOut: true, ElapsedSeconds: ptr(59.9)}, wantTime: TimeoutCell},
		{name: "solved", rec: Record{ElapsedSeconds: ptr(1.23456)}, wantTime: "1.235"},
		{name: "no time", rec: Record{}, wantTime: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantTime, Row(tc.rec).Time)
		})
	}
}

func TestStore_OverwritesAndIgnoresOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	recs := []Record{
		{Solver: "VF3", Family: "er", Group: "10", Level: 10, ElapsedSeconds: ptr(3.0)},
		{Solver: "VF3", Family: "er", Group: "2", Level: 10, ElapsedSeconds: ptr(1.0)},
		{Solver: "VF3", Family: "er", Group: "2", Level: 10, ElapsedSeconds: ptr(2.0)},
		{Solver: "Glasgow", Family: "er", Group: "2", Level: 60, TimedOut: true},
	}
	forward, backward := NewStore(), NewStore()

	// --- Act ---
	var wg sync.WaitGroup
	for _, r := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forward.Put(r)
		}()
	}
	wg.Wait()
	for i := len(recs) - 1; i >= 0; i-- {
		backward.Put(recs[i])
	}

	// --- Assert ---
	assert.Equal(t, 3, forward.Len())
	got, ok := backward.Get(Key{Solver: "VF3", Family: "er", Group: "2", Level: 10})
	require.True(t, ok)
	assert.Equal(t, 1.0, *got.ElapsedSeconds)

	keys := func(s *Store) []Key {
		var out []Key
		for _, r := range s.Records(nil) {
			out = append(out, r.Key())
		}
		return out
	}
	assert.Equal(t, []Key{
		{Solver: "Glasgow", Family: "er", Group: "2", Level: 60},
		{Solver: "VF3", Family: "er", Group: "2", Level: 10},
		{Solver: "VF3", Family: "er", Group: "10", Level: 10},
	}, keys(forward))
	assert.Equal(t, keys(forward), keys(backward))
}

func TestSolvedWithin_MonotoneAndBounded(t *testing.T) {
	t.Parallel()

	s := NewStore()
	for i, el := range []*float64{ptr(0.5), ptr(2.0), ptr(2.0), nil, ptr(10.0)} {
		s.Put(Record{Solver: "RI", Family: "tree", Group: fmt.Sprint(i), Level: 20, ElapsedSeconds: el})
	}
	s.Put(Record{Solver: "RI", Family: "tree", Group: "9", Level: 20, ElapsedSeconds: ptr(0.1), TimedOut: true})

	prev := -1
	for _, budget := range []float64{0, 0.1, 0.5, 1, 2, 5, 10, 100} {
		solved, total := s.SolvedWithin("RI", "tree", budget)
		assert.Equal(t, 6, total)
		assert.GreaterOrEqual(t, solved, prev)
		assert.LessOrEqual(t, solved, total)
		prev = solved
	}
	assert.Equal(t, 4, prev)
	assert.Equal(t, []float64{0.5, 2, 2, 10}, s.Curve("RI", "tree"))
}

func TestWriteGrouped(t *testing.T) {
	t.Parallel()

	rows := []SummaryRow{
		{Key: Key{Solver: "LAD", Family: "er", Group: "1", Level: 10}, Time: "0.120", BytesAllocated: ptr(int64(4096))},
		{Key: Key{Solver: "LAD", Family: "er", Group: "1", Level: 60}, Time: TimeoutCell},
		{Key: Key{Solver: "LAD", Family: "tree", Group: "1", Level: 20}, Time: "1.000"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGrouped(&buf, rows, []int{10, 20, 60}))

	want := "-- test family: er --\n" +
		"group | 10_time(s) | 20_time(s) | 60_time(s) | 10_alloc(B) | 20_alloc(B) | 60_alloc(B)\n" +
		"1 | 0.120 |  | TIMEOUT | 4096 |  | \n" +
		"\n" +
		"-- test family: tree --\n" +
		"group | 10_time(s) | 20_time(s) | 60_time(s) | 10_alloc(B) | 20_alloc(B) | 60_alloc(B)\n" +
		"1 |  | 1.000 |  |  |  | \n" +
		"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("grouped summary mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFlat(t *testing.T) {
	t.Parallel()

	rows := []SummaryRow{
		{Key: Key{Group: "roadNet-CA"}, Time: TimeoutCell},
		{Key: Key{Group: "karate"}, Time: "0.004", BytesAllocated: ptr(int64(72704))},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, "RI", "real", rows))

	assert.Equal(t, "=== Summary for solver: RI (real graphs) ===\n\n"+
		"graph | time(s) | alloc(B)\n"+
		"roadNet-CA | NaN | NaN\n"+
		"karate | 0.004 | 72704\n", buf.String())
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	s := NewStore()
	s.Put(Record{Solver: "SICS", Family: "er", Group: "1", Level: 10, ElapsedSeconds: ptr(0.2)})
	s.Put(Record{Solver: "SICS", Family: "random", Group: "1_random_graph_1000", ElapsedSeconds: ptr(3.0)})
	s.Put(Record{Solver: "VF3", Family: "random", Group: "1_random_graph_1000", TimedOut: true})

	// --- Act ---
	written, err := WriteAll(dir, s, []int{10, 20, 60})

	// --- Assert ---
	require.NoError(t, err)
	for _, name := range []string{"SICS_summary.txt", "SICS_random_summary.txt", "VF3_random_summary.txt", SolvedCountsFile, RecordsFile} {
		assert.Contains(t, written, filepath.Join(dir, name))
	}
	assert.NotContains(t, written, filepath.Join(dir, "VF3_summary.txt"))

	counts, err := os.ReadFile(filepath.Join(dir, SolvedCountsFile))
	require.NoError(t, err)
	assert.Equal(t, "solver | er | random\nSICS | 1 | 1\nVF3 | 0 | 0\n", string(counts))

	jsonl, err := os.ReadFile(filepath.Join(dir, RecordsFile))
	require.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(jsonl, []byte("\n")))
	assert.Contains(t, string(jsonl), `"elapsed_seconds":null`)
}

func TestWriteAll_DropsStaleSummaries(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	stale := filepath.Join(dir, "Retired_summary.txt")
	transcript := filepath.Join(dir, TranscriptFile("Retired", "er"))
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))
	require.NoError(t, os.WriteFile(transcript, []byte("[Run] Retired grp=1 lvl=10\n"), 0o644))
	s := NewStore()
	s.Put(Record{Solver: "SICS", Family: "er", Group: "1", Level: 10, ElapsedSeconds: ptr(0.2)})

	// --- Act ---
	_, err := WriteAll(dir, s, []int{10})

	// --- Assert ---
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, transcript)
	assert.FileExists(t, filepath.Join(dir, GroupedFile("SICS")))
}

func TestTranscript_WriteThenLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	tr := NewTranscripts(dir)
	require.NoError(t, tr.Begin("Glasgow", "er"))
	require.NoError(t, tr.Append("Glasgow", "er", Block{
		Header:  parse.GroupHeader("Glasgow", "1", 10),
		Command: "valgrind ./glasgow ./test/er/1_subgraph_10 ./test/er/1_original_graph",
		Marker:  "[Run] Done in 0.52s",
		Stdout:  "status = true\nruntime = 31\n",
		Report:  "==5== HEAP SUMMARY:\n==5==     in use at exit: 0 bytes in 0 blocks\n==5==   total heap usage: 10 allocs, 3 frees, 4,096 bytes allocated\n",
	}))
	require.NoError(t, tr.Append("Glasgow", "er", Block{
		Header: parse.GroupHeader("Glasgow", "1", 60),
		Marker: "[Run] TIMED OUT after 60s (elapsed=60.01s)",
	}))
	require.NoError(t, tr.End("Glasgow", "er"))

	// --- Act ---
	recs, err := LoadTranscript(dir, "Glasgow", "er", parse.For(parse.Glasgow))

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 0.031, *recs[0].ElapsedSeconds)
	assert.Equal(t, parse.SourceSolver, recs[0].TimeSource)
	assert.Equal(t, int64(4096), *recs[0].BytesAllocated)
	assert.True(t, *recs[0].Found)
	assert.True(t, recs[1].TimedOut)
	assert.Equal(t, 60, recs[1].Level)
	assert.Equal(t, TimeoutCell, Row(recs[1]).Time)

	raw, err := os.ReadFile(filepath.Join(dir, TranscriptFile("Glasgow", "er")))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "=== START Glasgow (er) ===\n")
	assert.Contains(t, string(raw), "[Valgrind] ==5==     in use at exit: 0 bytes in 0 blocks\n")
	assert.Contains(t, string(raw), "=== END   Glasgow (er) ===\n")
}

func TestHeapLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{
		"==1== in use at exit: 8 bytes in 1 blocks",
		"==1== total heap usage: 2 allocs, 1 frees, 1,024 bytes allocated",
	}, HeapLines("==1== total heap usage: 2 allocs, 1 frees, 1,024 bytes allocated\n  ==1== in use at exit: 8 bytes in 1 blocks  \n"))
	assert.Empty(t, HeapLines("garbage"))
}
