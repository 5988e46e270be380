package parse

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a solver family and with it the grammar of its output.
type Kind int

const (
	Generic Kind = iota
	Glasgow
	PathLAD
	RI
	VF3
	SICS
)

// ErrUnknownKind is returned for solver kinds without an extraction rule.
var ErrUnknownKind = errors.New("parse: unknown solver kind")

var kindNames = map[Kind]string{
	Generic: "generic",
	Glasgow: "glasgow",
	PathLAD: "pathlad",
	RI:      "ri",
	VF3:     "vf3",
	SICS:    "sics",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a case-insensitive name to a Kind. "lad" is accepted as an
// alias of pathlad.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "lad" {
		return PathLAD, nil
	}
	for k, s := range kindNames {
		if s == n {
			return k, nil
		}
	}
	return Generic, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}
