package format

import (
	"bytes"
	"fmt"

	"github.com/vk/isobench/internal/graph"
)

// vf3DefaultAttr is written for nodes without a label.
const vf3DefaultAttr = 1

func encodeVF3(buf *bytes.Buffer, g *graph.Graph) {
	nodes := g.Nodes()
	writeInts(buf, int64(len(nodes)))
	for _, id := range nodes {
		attr, ok := g.Label(id)
		if !ok {
			attr = vf3DefaultAttr
		}
		writeInts(buf, id, attr)
	}
	for _, id := range nodes {
		nbrs := g.Neighbors(id)
		writeInts(buf, int64(len(nbrs)))
		for _, v := range nbrs {
			writeInts(buf, id, v)
		}
	}
}

// decodeVF3 keeps any attribute other than the default as a node label.
func decodeVF3(t *tokens) (*graph.Graph, error) {
	n, err := t.count()
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for i := 0; i < n; i++ {
		id, err := t.node(n)
		if err != nil {
			return nil, err
		}
		attr, err := t.int()
		if err != nil {
			return nil, err
		}
		g.AddNode(id)
		if attr != vf3DefaultAttr {
			g.SetLabel(id, attr)
		}
	}
	if g.Order() != n {
		return nil, fmt.Errorf("%d distinct node ids declared, want %d: %w", g.Order(), n, ErrMalformed)
	}

	for i := 0; i < n; i++ {
		k, err := t.count()
		if err != nil {
			return nil, err
		}
		for j := 0; j < k; j++ {
			u, err := t.node(n)
			if err != nil {
				return nil, err
			}
			if u != int64(i) {
				return nil, fmt.Errorf("edge source %d listed in block of node %d: %w", u, i, ErrMalformed)
			}
			v, err := t.node(n)
			if err != nil {
				return nil, err
			}
			g.AddEdge(u, v)
		}
	}
	return g, t.done()
}
