// Package format encodes graphs into the LAD, RI (.gfu) and VF3 (.grf) text
// grammars read by the benchmarked solvers, and decodes them back.
//
// Every encoder canonicalizes its input first, so node ids in the output are
// always 0..n-1 in ascending order of the original ids.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/isobench/internal/graph"
)

// Format names one of the solver input grammars.
type Format string

const (
	LAD Format = "lad"
	RI  Format = "ri"
	VF3 Format = "vf3"
)

// All lists every supported format.
var All = []Format{LAD, RI, VF3}

// Role tells the RI encoder which header to write.
type Role int

const (
	// Target is the data graph searched in.
	Target Role = iota
	// Pattern is the query graph searched for.
	Pattern
)

func (r Role) String() string {
	if r == Pattern {
		return "pattern"
	}
	return "target"
}

var (
	// ErrUnknownFormat is returned for format names outside LAD, RI and VF3.
	ErrUnknownFormat = errors.New("format: unknown format")
	// ErrMalformed is returned when input does not follow the grammar.
	ErrMalformed = errors.New("format: malformed input")
)

// Parse maps a case-insensitive name to a Format.
func Parse(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case LAD, RI, VF3:
		return f, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
}

// Encode serializes the canonical form of g in format f.
func Encode(g *graph.Graph, f Format, role Role) ([]byte, error) {
	c := g.Canonical()
	var buf bytes.Buffer
	switch f {
	case LAD:
		encodeLAD(&buf, c)
	case RI:
		encodeRI(&buf, c, role)
	case VF3:
		encodeVF3(&buf, c)
	default:
		return nil, fmt.Errorf("encode %q: %w", f, ErrUnknownFormat)
	}
	return buf.Bytes(), nil
}

// Decode parses data written in format f.
func Decode(data []byte, f Format) (*graph.Graph, error) {
	var (
		g   *graph.Graph
		err error
	)
	switch f {
	case LAD:
		g, err = decodeLAD(newTokens(data))
	case RI:
		g, _, err = decodeRI(newTokens(data))
	case VF3:
		g, err = decodeVF3(newTokens(data))
	default:
		return nil, fmt.Errorf("decode %q: %w", f, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	return g, nil
}

// tokens walks whitespace separated fields.
type tokens struct {
	fields []string
	pos    int
}

func newTokens(data []byte) *tokens {
	return &tokens{fields: strings.Fields(string(data))}
}

func (t *tokens) next() (string, error) {
	if t.pos >= len(t.fields) {
		return "", fmt.Errorf("unexpected end of input after %d tokens: %w", t.pos, ErrMalformed)
	}
	s := t.fields[t.pos]
	t.pos++
	return s, nil
}

func (t *tokens) int() (int64, error) {
	s, err := t.next()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return 0, fmt.Errorf("token %d %q is not an integer: %w", t.pos, s, ErrMalformed)
	}
	return v, nil
}

func (t *tokens) count() (int, error) {
	v, err := t.int()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative count %d: %w", v, ErrMalformed)
	}
	return int(v), nil
}

func (t *tokens) node(n int) (int64, error) {
	v, err := t.int()
	if err != nil {
		return 0, err
	}
	if v < 0 || v >= int64(n) {
		return 0, fmt.Errorf("node id %d outside 0..%d: %w", v, n-1, ErrMalformed)
	}
	return v, nil
}

func (t *tokens) done() error {
	if t.pos != len(t.fields) {
		return fmt.Errorf("%d trailing tokens: %w", len(t.fields)-t.pos, ErrMalformed)
	}
	return nil
}

func writeInts(buf *bytes.Buffer, vals ...int64) {
	var scratch [20]byte
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.Write(strconv.AppendInt(scratch[:0], v, 10))
	}
	buf.WriteByte('\n')
}
