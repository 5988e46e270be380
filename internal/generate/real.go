package generate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/isobench/internal/graph"
)

// ErrMalformedEdgeList is returned when an edge list line does not start with
// two integers.
var ErrMalformedEdgeList = errors.New("generate: malformed edge list")

// shapes are the fixed query graphs searched for in real networks.
var shapes = map[string]int{
	"triangle":      3,
	"quadrilateral": 4,
	"pentagon":      5,
}

// Shape returns the named cycle pattern.
func Shape(name string) (*graph.Graph, error) {
	k, ok := shapes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("shape %q: %w", name, ErrUnknownGenerator)
	}
	g := graph.New()
	for i := 0; i < k; i++ {
		g.AddEdge(int64(i), int64((i+1)%k))
	}
	return g, nil
}

// LoadEdgeList reads a SNAP style edge list: lines starting with '#' or '%'
// and blank lines are skipped, and only the first two columns of every other
// line are used. Self-loops are tolerated and dropped.
func LoadEdgeList(r io.Reader) (*graph.Graph, error) {
	g := graph.New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '%' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want two columns: %w", lineNo, ErrMalformedEdgeList)
		}
		u, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", lineNo, fields[0], ErrMalformedEdgeList)
		}
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", lineNo, fields[1], ErrMalformedEdgeList)
		}
		g.AddEdge(u, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading edge list: %w", err)
	}
	return g, nil
}
