package format

import (
	"bytes"

	"github.com/vk/isobench/internal/graph"
)

// encodeLAD writes n, then one "k n1 .. nk" line per node.
func encodeLAD(buf *bytes.Buffer, g *graph.Graph) {
	nodes := g.Nodes()
	writeInts(buf, int64(len(nodes)))
	for _, id := range nodes {
		nbrs := g.Neighbors(id)
		line := make([]int64, 0, len(nbrs)+1)
		line = append(line, int64(len(nbrs)))
		line = append(line, nbrs...)
		writeInts(buf, line...)
	}
}

func decodeLAD(t *tokens) (*graph.Graph, error) {
	n, err := t.count()
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddNode(int64(i))
	}
	for i := 0; i < n; i++ {
		k, err := t.count()
		if err != nil {
			return nil, err
		}
		for j := 0; j < k; j++ {
			v, err := t.node(n)
			if err != nil {
				return nil, err
			}
			g.AddEdge(int64(i), v)
		}
	}
	return g, t.done()
}
