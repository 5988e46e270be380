package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"glasgow", "PathLAD", "lad", "ri", "vf3", "sics", "generic"} {
		_, err := ParseKind(name)
		assert.NoError(t, err, name)
	}
	k, err := ParseKind("lad")
	require.NoError(t, err)
	assert.Equal(t, PathLAD, k)
	assert.Equal(t, "pathlad", k.String())

	_, err = ParseKind("gurobi")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		kind      Kind
		output    string
		wantTime  float64
		wantOK    bool
		wantFound *bool
	}{
		{
			name:      "glasgow runtime in ms",
			kind:      Glasgow,
			output:    "status = true\nnodes = 12\nruntime = 1500\n",
			wantTime:  1.5,
			wantOK:    true,
			wantFound: ptr(true),
		},
		{
			name:      "glasgow unsat",
			kind:      Glasgow,
			output:    "status = false\nruntime = 3\n",
			wantTime:  0.003,
			wantOK:    true,
			wantFound: ptr(false),
		},
		{
			name:      "pathlad run completed line",
			kind:      PathLAD,
			output:    "Run completed: 4 solutions; 10 fail nodes; 33 nodes; 0.012000 seconds\n",
			wantTime:  0.012,
			wantOK:    true,
			wantFound: ptr(true),
		},
		{
			name:      "ri total time",
			kind:      RI,
			output:    "reading time: 0.1\nmatching time: 0.2\ntotal time: 0.35\nnumber of found matches: 0\n",
			wantTime:  0.35,
			wantOK:    true,
			wantFound: ptr(false),
		},
		{
			name:     "vf3 first numeric row",
			kind:     VF3,
			output:   "Loading graphs\n2 0.0041 0.0090\n",
			wantTime: 2,
			wantOK:   true,
		},
		{
			name:     "vf3 skips mixed rows",
			kind:     VF3,
			output:   "solutions 3\n0.25 1.5\n",
			wantTime: 0.25,
			wantOK:   true,
		},
		{
			name:      "sics first match",
			kind:      SICS,
			output:    "Time to first match: 250 ms\n",
			wantTime:  0.25,
			wantOK:    true,
			wantFound: ptr(true),
		},
		{
			name:   "generic never matches",
			kind:   Generic,
			output: "runtime = 10\ntotal time: 3\n",
		},
		{
			name:   "glasgow truncated output",
			kind:   Glasgow,
			output: "status = tr",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ex := For(tc.kind)
			assert.Equal(t, tc.kind, ex.Kind())

			got, ok := ex.SolveTime(tc.output)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.InDelta(t, tc.wantTime, got, 1e-9)
			}

			found, ok := ex.Found(tc.output)
			if tc.wantFound == nil {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, *tc.wantFound, found)
			}
		})
	}
}

func TestBytesAllocated(t *testing.T) {
	t.Parallel()

	report := "==42== HEAP SUMMARY:\n" +
		"==42==     in use at exit: 1,024 bytes in 2 blocks\n" +
		"==42==   total heap usage: 10 allocs, 3 frees, 4,096 bytes allocated\n"

	got := BytesAllocated(report)
	require.NotNil(t, got)
	assert.Equal(t, int64(4096), *got)

	inUse := InUseAtExit(report)
	require.NotNil(t, inUse)
	assert.Equal(t, int64(1024), *inUse)

	assert.Nil(t, BytesAllocated("==42== total heap usage: 10 allocs, 3 fr"))
	assert.Nil(t, BytesAllocated(""))
}

func TestParse_FallsBackToHarnessMarker(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := Input{
		Stdout:  "garbled output without a runtime line",
		Harness: "[Run] CMD: ./a.out p t\n[Run] Done in 0.42s\n",
	}

	// --- Act ---
	out := Parse(For(Glasgow), in)

	// --- Assert ---
	require.NotNil(t, out.Elapsed)
	assert.InDelta(t, 0.42, *out.Elapsed, 1e-9)
	assert.Equal(t, SourceWallClock, out.TimeSource)
	assert.Nil(t, out.BytesAllocated, "missing memory stays nil, never zero")
	assert.Nil(t, out.Found)
}

func TestParse_SolverTimeWins(t *testing.T) {
	t.Parallel()

	out := Parse(For(RI), Input{
		Stdout:  "total time: 0.010\n",
		Harness: "[Run] Done in 0.90s\n",
	})

	require.NotNil(t, out.Elapsed)
	assert.InDelta(t, 0.010, *out.Elapsed, 1e-9)
	assert.Equal(t, SourceSolver, out.TimeSource)
}

func TestParse_TimeoutIgnoresSolverOutput(t *testing.T) {
	t.Parallel()

	out := Parse(For(Glasgow), Input{
		Stdout:          "status = true\nruntime = 5\n",
		Harness:         "[Run] TIMED OUT after 60s (elapsed=60.02s)\n",
		Instrumentation: "total heap usage: 1 allocs, 1 frees, 77 bytes allocated",
	})

	assert.True(t, out.TimedOut)
	require.NotNil(t, out.Elapsed)
	assert.InDelta(t, 60.02, *out.Elapsed, 1e-9)
	assert.Nil(t, out.Found)
	require.NotNil(t, out.BytesAllocated)
	assert.Equal(t, int64(77), *out.BytesAllocated)
}

func TestParse_EmptyInput(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{Generic, Glasgow, PathLAD, RI, VF3, SICS} {
		out := Parse(For(k), Input{})
		assert.Nil(t, out.Elapsed, k.String())
		assert.Equal(t, SourceNone, out.TimeSource)
		assert.False(t, out.TimedOut)
	}
}

func TestParseTranscript(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	transcript := strings.Join([]string{
		"=== START Glasgow (er) ===",
		"",
		GroupHeader("Glasgow", "1", 10),
		"[Run] CMD: valgrind --tool=memcheck ./build/glasgow_subgraph_solver ./test/er/1_subgraph_10 ./test/er/1_original_graph",
		"[Run] Done in 1.25s",
		"status = true",
		"runtime = 800",
		"[Valgrind] ==1== total heap usage: 5 allocs, 5 frees, 12,345 bytes allocated",
		"",
		GroupHeader("Glasgow", "1", 20),
		"[Run] CMD: valgrind ./build/glasgow_subgraph_solver a b",
		"[Run] TIMED OUT after 60s (elapsed=60.00s)",
		"",
		GraphHeader("Glasgow", "real", "roadNet-PA"),
		"[Run] CMD: ./build/glasgow_subgraph_solver graph=fake",
		"[Run] Done in 2",
		"=== END   Glasgow (er) ===",
	}, "\n")

	// --- Act ---
	entries, err := ParseTranscript(strings.NewReader(transcript), For(Glasgow))

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "Glasgow", first.Solver)
	assert.Equal(t, "1", first.Group)
	assert.Equal(t, 10, first.Level)
	require.NotNil(t, first.Output.Elapsed)
	assert.InDelta(t, 0.8, *first.Output.Elapsed, 1e-9)
	require.NotNil(t, first.Output.BytesAllocated)
	assert.Equal(t, int64(12345), *first.Output.BytesAllocated)

	second := entries[1]
	assert.Equal(t, 20, second.Level)
	assert.True(t, second.Output.TimedOut)

	third := entries[2]
	assert.Equal(t, "roadNet-PA", third.Group)
	assert.Equal(t, 0, third.Level)
	assert.Nil(t, third.Output.Elapsed, "a truncated marker yields no time")
}

func ptr[T any](v T) *T { return &v }
