package format

import (
	"bytes"
	"fmt"

	"github.com/vk/isobench/internal/graph"
)

const (
	riTargetHeader  = "#data"
	riPatternHeader = "#query"
	// riLabel is written for every node; no labeling scheme is used.
	riLabel = "a"
)

func encodeRI(buf *bytes.Buffer, g *graph.Graph, role Role) {
	if role == Pattern {
		buf.WriteString(riPatternHeader)
	} else {
		buf.WriteString(riTargetHeader)
	}
	buf.WriteByte('\n')

	n := g.Order()
	writeInts(buf, int64(n))
	for i := 0; i < n; i++ {
		buf.WriteString(riLabel)
		buf.WriteByte('\n')
	}

	edges := g.Edges()
	writeInts(buf, int64(len(edges)))
	for _, e := range edges {
		writeInts(buf, e.U, e.V)
	}
}

func decodeRI(t *tokens) (*graph.Graph, Role, error) {
	header, err := t.next()
	if err != nil {
		return nil, Target, err
	}
	var role Role
	switch header {
	case riTargetHeader:
		role = Target
	case riPatternHeader:
		role = Pattern
	default:
		return nil, Target, fmt.Errorf("header %q: %w", header, ErrMalformed)
	}

	n, err := t.count()
	if err != nil {
		return nil, role, err
	}
	g := graph.New()
	for i := 0; i < n; i++ {
		if _, err := t.next(); err != nil {
			return nil, role, err
		}
		g.AddNode(int64(i))
	}

	m, err := t.count()
	if err != nil {
		return nil, role, err
	}
	for i := 0; i < m; i++ {
		u, err := t.node(n)
		if err != nil {
			return nil, role, err
		}
		v, err := t.node(n)
		if err != nil {
			return nil, role, err
		}
		g.AddEdge(u, v)
	}
	return g, role, t.done()
}
