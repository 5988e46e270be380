package graph

import (
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Edge is an undirected edge stored smaller endpoint first.
type Edge struct {
	U, V int64
}

// Graph is an undirected simple graph with optional node labels.
type Graph struct {
	g         *simple.UndirectedGraph
	labels    map[int64]int64
	selfLoops int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:      simple.NewUndirectedGraph(),
		labels: make(map[int64]int64),
	}
}

// AddNode inserts id if it is not already present.
func (g *Graph) AddNode(id int64) {
	if g.g.Node(id) != nil {
		return
	}
	g.g.AddNode(simple.Node(id))
}

// SetLabel attaches a label to id, adding the node when needed.
func (g *Graph) SetLabel(id, label int64) {
	g.AddNode(id)
	g.labels[id] = label
}

// Label returns the label of id, if one was set.
func (g *Graph) Label(id int64) (int64, bool) {
	l, ok := g.labels[id]
	return l, ok
}

// AddEdge inserts the undirected edge {u,v}. Self-loops are not stored; they
// are counted and reported as false.
func (g *Graph) AddEdge(u, v int64) bool {
	if u == v {
		g.AddNode(u)
		g.selfLoops++
		return false
	}
	g.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	return true
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id int64) bool {
	return g.g.Node(id) != nil
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v int64) bool {
	return g.g.HasEdgeBetween(u, v)
}

// Order is the number of nodes.
func (g *Graph) Order() int {
	return g.g.Nodes().Len()
}

// Size is the number of edges.
func (g *Graph) Size() int {
	return g.g.Edges().Len()
}

// SelfLoops is the number of self-loops dropped on insert.
func (g *Graph) SelfLoops() int {
	return g.selfLoops
}

// Degree returns the number of neighbors of id.
func (g *Graph) Degree(id int64) int {
	return g.g.From(id).Len()
}

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []int64 {
	return sortedIDs(g.g.Nodes())
}

// Neighbors returns the neighbors of id in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	return sortedIDs(g.g.From(id))
}

// Edges returns every edge once, smaller endpoint first, sorted
// lexicographically.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.Size())
	it := g.g.Edges()
	for it.Next() {
		e := it.Edge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		edges = append(edges, Edge{U: u, V: v})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.U != b.U {
			return cmpInt64(a.U, b.U)
		}
		return cmpInt64(a.V, b.V)
	})
	return edges
}

// Relabeling maps each original id to its canonical id (rank in ascending
// id order).
func (g *Graph) Relabeling() map[int64]int64 {
	ids := g.Nodes()
	m := make(map[int64]int64, len(ids))
	for i, id := range ids {
		m[id] = int64(i)
	}
	return m
}

// Canonical returns a copy of g with nodes relabeled to 0..n-1 by ascending
// original id. Labels follow their nodes.
func (g *Graph) Canonical() *Graph {
	m := g.Relabeling()
	out := New()
	for _, id := range g.Nodes() {
		out.AddNode(m[id])
		if l, ok := g.labels[id]; ok {
			out.labels[m[id]] = l
		}
	}
	for _, e := range g.Edges() {
		out.AddEdge(m[e.U], m[e.V])
	}
	out.selfLoops = g.selfLoops
	return out
}

// Induced returns the subgraph induced by ids. Unknown ids are ignored.
func (g *Graph) Induced(ids []int64) *Graph {
	keep := make(map[int64]struct{}, len(ids))
	out := New()
	for _, id := range ids {
		if !g.HasNode(id) {
			continue
		}
		keep[id] = struct{}{}
		out.AddNode(id)
		if l, ok := g.labels[id]; ok {
			out.labels[id] = l
		}
	}
	for id := range keep {
		for _, n := range g.Neighbors(id) {
			if _, ok := keep[n]; ok && id < n {
				out.AddEdge(id, n)
			}
		}
	}
	return out
}

// IsConnected reports whether g has at most one connected component.
func (g *Graph) IsConnected() bool {
	if g.Order() == 0 {
		return true
	}
	return len(topo.ConnectedComponents(g.g)) == 1
}

// LargestComponent returns the induced subgraph of the largest connected
// component. Ties go to the component holding the smallest node id.
func (g *Graph) LargestComponent() *Graph {
	comps := topo.ConnectedComponents(g.g)
	if len(comps) <= 1 {
		return g.Induced(g.Nodes())
	}
	var best []int64
	for _, c := range comps {
		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		if len(ids) > len(best) || (len(ids) == len(best) && ids[0] < best[0]) {
			best = ids
		}
	}
	return g.Induced(best)
}

func sortedIDs(it gonum.Nodes) []int64 {
	ids := make([]int64, 0, it.Len())
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	slices.Sort(ids)
	return ids
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
