// Package generate builds the synthetic and real-network graphs of the
// benchmark corpus and draws connected samples from them.
//
// All randomness flows through an explicit *rand.Rand so a corpus can be
// reproduced from its seed.
package generate

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/vk/isobench/internal/graph"
)

// Generator names a synthetic graph model.
type Generator string

const (
	// Tree is the minimum spanning tree of a randomly weighted complete graph.
	Tree Generator = "tree"
	// ErdosRenyi is G(n, p).
	ErdosRenyi Generator = "er"
	// ScaleFree is Barabási–Albert preferential attachment.
	ScaleFree Generator = "scale_free"
	// GNM is a uniform graph with exactly m edges.
	GNM Generator = "gnm"
)

var (
	// ErrInvalidParameter is returned when a size, probability or edge count
	// is outside its domain.
	ErrInvalidParameter = errors.New("generate: invalid parameter")
	// ErrUnknownGenerator is returned for unrecognized generator names.
	ErrUnknownGenerator = errors.New("generate: unknown generator")
)

// Params carries the generator parameters. Unused fields are ignored.
type Params struct {
	Nodes int
	P     float64
	M     int
}

// ParseGenerator validates a generator name.
func ParseGenerator(name string) (Generator, error) {
	switch g := Generator(name); g {
	case Tree, ErdosRenyi, ScaleFree, GNM:
		return g, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownGenerator)
}

// Generate dispatches to the named model.
func Generate(gen Generator, p Params, rng *rand.Rand) (*graph.Graph, error) {
	switch gen {
	case Tree:
		return NewTree(p.Nodes, rng)
	case ErdosRenyi:
		return NewErdosRenyi(p.Nodes, p.P, rng)
	case ScaleFree:
		return NewBarabasiAlbert(p.Nodes, p.M, rng)
	case GNM:
		return NewGNM(p.Nodes, p.M, rng)
	}
	return nil, fmt.Errorf("%q: %w", gen, ErrUnknownGenerator)
}

// NewErdosRenyi includes each of the n(n-1)/2 possible edges independently
// with probability p.
func NewErdosRenyi(n int, p float64, rng *rand.Rand) (*graph.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("er: n=%d < 1: %w", n, ErrInvalidParameter)
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("er: p=%f not in [0,1]: %w", p, ErrInvalidParameter)
	}
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddNode(int64(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				g.AddEdge(int64(i), int64(j))
			}
		}
	}
	return g, nil
}

// NewBarabasiAlbert grows a graph from a star on m+1 nodes; every further
// node attaches to m distinct existing nodes chosen with probability
// proportional to their degree.
func NewBarabasiAlbert(n, m int, rng *rand.Rand) (*graph.Graph, error) {
	if m < 1 || m >= n {
		return nil, fmt.Errorf("scale_free: need 1 <= m < n, got n=%d m=%d: %w", n, m, ErrInvalidParameter)
	}
	g := graph.New()
	// Each edge endpoint appears once, so a uniform pick is degree-weighted.
	repeated := make([]int64, 0, 2*n*m)
	for i := 1; i <= m; i++ {
		g.AddEdge(0, int64(i))
		repeated = append(repeated, 0, int64(i))
	}
	for src := m + 1; src < n; src++ {
		targets := make(map[int64]struct{}, m)
		for len(targets) < m {
			targets[repeated[rng.IntN(len(repeated))]] = struct{}{}
		}
		for _, t := range slices.Sorted(maps.Keys(targets)) {
			g.AddEdge(int64(src), t)
			repeated = append(repeated, int64(src), t)
		}
	}
	return g, nil
}

// NewTree returns the minimum spanning tree of the complete graph on n nodes
// with independent uniform [0,1) edge weights.
func NewTree(n int, rng *rand.Rand) (*graph.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("tree: n=%d < 1: %w", n, ErrInvalidParameter)
	}
	complete := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		complete.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			complete.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(i),
				T: simple.Node(j),
				W: rng.Float64(),
			})
		}
	}

	mst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(mst, complete)

	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddNode(int64(i))
	}
	edges := mst.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		g.AddEdge(e.From().ID(), e.To().ID())
	}
	return g, nil
}

// NewGNM draws m distinct edges uniformly among the n(n-1)/2 possible ones.
func NewGNM(n, m int, rng *rand.Rand) (*graph.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("gnm: n=%d < 1: %w", n, ErrInvalidParameter)
	}
	maxEdges := n * (n - 1) / 2
	if m < 0 || m > maxEdges {
		return nil, fmt.Errorf("gnm: m=%d not in [0,%d]: %w", m, maxEdges, ErrInvalidParameter)
	}
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddNode(int64(i))
	}
	for added := 0; added < m; {
		u, v := int64(rng.IntN(n)), int64(rng.IntN(n))
		if u == v || g.HasEdge(u, v) {
			continue
		}
		g.AddEdge(u, v)
		added++
	}
	return g, nil
}

// EdgesForDensity is the edge count int(p·n(n-1)/2) used for random
// negative instances.
func EdgesForDensity(n int, p float64) int {
	return int(p * float64(n*(n-1)) / 2)
}
