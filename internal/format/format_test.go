package format

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/isobench/internal/graph"
)

func fiveCycle() *graph.Graph {
	g := graph.New()
	for i := int64(0); i < 5; i++ {
		g.AddEdge(i, (i+1)%5)
	}
	return g
}

func randomGraph(seed uint64, n int, p float64) *graph.Graph {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := graph.New()
	for i := 0; i < n; i++ {
		// sparse, non-contiguous ids exercise the relabeling
		g.AddNode(int64(i*7 + 3))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				g.AddEdge(int64(i*7+3), int64(j*7+3))
			}
		}
	}
	return g
}

func TestEncode_LADFiveCycle(t *testing.T) {
	t.Parallel()

	out, err := Encode(fiveCycle(), LAD, Target)
	require.NoError(t, err)

	want := "5\n2 1 4\n2 0 2\n2 1 3\n2 2 4\n2 0 3\n"
	assert.Equal(t, want, string(out))
}

func TestEncode_RIHeaderAndSortedEdges(t *testing.T) {
	t.Parallel()

	g := graph.New()
	g.AddEdge(30, 10)
	g.AddEdge(20, 10)
	g.AddNode(40)

	target, err := Encode(g, RI, Target)
	require.NoError(t, err)
	pattern, err := Encode(g, RI, Pattern)
	require.NoError(t, err)

	assert.Equal(t, "#data\n4\na\na\na\na\n2\n0 1\n0 2\n", string(target))
	assert.Equal(t, "#query\n4\na\na\na\na\n2\n0 1\n0 2\n", string(pattern))

	_, role, err := decodeRI(newTokens(pattern))
	require.NoError(t, err)
	assert.Equal(t, Pattern, role)
}

func TestEncode_VF3Blocks(t *testing.T) {
	t.Parallel()

	g := graph.New()
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.SetLabel(2, 7)

	out, err := Encode(g, VF3, Pattern)
	require.NoError(t, err)

	want := "3\n0 1\n1 1\n2 7\n" +
		"1\n0 1\n" +
		"2\n1 0\n1 2\n" +
		"1\n2 1\n"
	assert.Equal(t, want, string(out))
}

func TestEncode_IsolatedNodeLAD(t *testing.T) {
	t.Parallel()

	g := graph.New()
	g.AddNode(5)
	g.AddEdge(1, 2)

	out, err := Encode(g, LAD, Target)
	require.NoError(t, err)
	assert.Equal(t, "3\n1 1\n1 0\n0\n", string(out))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	graphs := map[string]*graph.Graph{
		"cycle":  fiveCycle(),
		"sparse": randomGraph(1, 30, 0.1),
		"dense":  randomGraph(2, 20, 0.6),
		"empty":  graph.New(),
	}

	for name, g := range graphs {
		for _, f := range All {
			t.Run(name+"/"+string(f), func(t *testing.T) {
				t.Parallel()

				// --- Arrange ---
				first, err := Encode(g, f, Target)
				require.NoError(t, err)

				// --- Act ---
				decoded, err := Decode(first, f)
				require.NoError(t, err)
				second, err := Encode(decoded, f, Target)
				require.NoError(t, err)

				// --- Assert ---
				assert.Equal(t, string(first), string(second))

				canon := g.Canonical()
				assert.Equal(t, canon.Nodes(), decoded.Nodes())
				if diff := cmp.Diff(canon.Edges(), decoded.Edges()); diff != "" {
					t.Errorf("edges mismatch (-canonical +decoded):\n%s", diff)
				}
			})
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		f     Format
		input string
	}{
		{"lad truncated", LAD, "3\n1 1\n"},
		{"lad neighbor out of range", LAD, "2\n1 5\n0\n"},
		{"lad not a number", LAD, "x\n"},
		{"ri bad header", RI, "#nope\n1\na\n0\n"},
		{"ri truncated edges", RI, "#data\n2\na\na\n1\n0\n"},
		{"vf3 wrong block owner", VF3, "2\n0 1\n1 1\n1\n1 0\n0\n"},
		{"lad trailing garbage", LAD, "1\n0\n9\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tc.input), tc.f)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := Parse(" VF3 ")
	require.NoError(t, err)
	assert.Equal(t, VF3, f)

	_, err = Parse("gml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Encode(fiveCycle(), Format("gml"), Target)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3_original_graph", TargetFile(LAD, "3"))
	assert.Equal(t, "3_subgraph_20", SampleFile(LAD, "3", 20))
	assert.Equal(t, "3_original_graph.gfu", TargetFile(RI, "3"))
	assert.Equal(t, "3_subgraph_60.gfu", SampleFile(RI, "3", 60))
	assert.Equal(t, "3graph.grf", TargetFile(VF3, "3"))
	assert.Equal(t, "3graph10.sub.grf", SampleFile(VF3, "3", 10))
	assert.Equal(t, "triangle.sub.grf", FixedPatternFile(VF3, "triangle"))
	assert.Equal(t, "roadNet.lad", NamedFile(LAD, "roadNet"))
}
