package parse

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Extractor reads the solver's own report from its stdout and stderr.
type Extractor interface {
	Kind() Kind
	// SolveTime returns the solver-reported solve time in seconds.
	SolveTime(output string) (float64, bool)
	// Found reports whether the solver claims to have found a match.
	Found(output string) (bool, bool)
}

// For returns the extraction rule of kind k. Unknown kinds get the generic
// rule, which never matches.
func For(k Kind) Extractor {
	switch k {
	case Glasgow:
		return glasgow{}
	case PathLAD:
		return pathLAD{}
	case RI:
		return ri{}
	case VF3:
		return vf3{}
	case SICS:
		return sics{}
	}
	return generic{}
}

const number = `([0-9]+(?:\.[0-9]*)?(?:[eE][-+]?[0-9]+)?)`

var (
	glasgowRuntimeRe = regexp.MustCompile(`(?m)^\s*runtime\s*=\s*` + number)
	glasgowStatusRe  = regexp.MustCompile(`(?m)^\s*status\s*=\s*(true|false)\b`)

	pathLADRunRe = regexp.MustCompile(`Run completed:\s*([0-9]+)\s+solutions?;.*?` + number + `\s+seconds`)

	riTotalRe   = regexp.MustCompile(`(?i)total time:\s*` + number)
	riMatchesRe = regexp.MustCompile(`(?i)number of found matches:\s*([0-9]+)`)

	sicsFirstRe = regexp.MustCompile(`(?i)first (?:match|solution)\D*?` + number + `\s*ms`)
)

type generic struct{}

func (generic) Kind() Kind { return Generic }

func (generic) SolveTime(string) (float64, bool) { return 0, false }

func (generic) Found(string) (bool, bool) { return false, false }

// glasgow prints "runtime = <ms>" and "status = true|false".
type glasgow struct{}

func (glasgow) Kind() Kind { return Glasgow }

func (glasgow) SolveTime(out string) (float64, bool) {
	ms, ok := firstFloat(glasgowRuntimeRe, out)
	if !ok {
		return 0, false
	}
	return ms / 1000, true
}

func (glasgow) Found(out string) (bool, bool) {
	m := glasgowStatusRe.FindStringSubmatch(out)
	if m == nil {
		return false, false
	}
	return m[1] == "true", true
}

// pathLAD prints "Run completed: N solutions; ...; X seconds".
type pathLAD struct{}

func (pathLAD) Kind() Kind { return PathLAD }

func (pathLAD) SolveTime(out string) (float64, bool) {
	m := pathLADRunRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	return parseFloat(m[2])
}

func (pathLAD) Found(out string) (bool, bool) {
	m := pathLADRunRe.FindStringSubmatch(out)
	if m == nil {
		return false, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return false, false
	}
	return n > 0, true
}

// ri prints "total time: <s>" and "number of found matches: N".
type ri struct{}

func (ri) Kind() Kind { return RI }

func (ri) SolveTime(out string) (float64, bool) {
	return firstFloat(riTotalRe, out)
}

func (ri) Found(out string) (bool, bool) {
	m := riMatchesRe.FindStringSubmatch(out)
	if m == nil {
		return false, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return false, false
	}
	return n > 0, true
}

// vf3 prints a whitespace separated row of numbers; its first column is the
// elapsed seconds.
type vf3 struct{}

func (vf3) Kind() Kind { return VF3 }

func (vf3) SolveTime(out string) (float64, bool) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		vals := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, ok := parseFloat(f)
			if !ok {
				break
			}
			vals = append(vals, v)
		}
		if len(vals) == len(fields) {
			return vals[0], true
		}
	}
	return 0, false
}

func (vf3) Found(string) (bool, bool) { return false, false }

// sics reports only the time to the first match, in milliseconds.
type sics struct{}

func (sics) Kind() Kind { return SICS }

func (sics) SolveTime(out string) (float64, bool) {
	ms, ok := firstFloat(sicsFirstRe, out)
	if !ok {
		return 0, false
	}
	return ms / 1000, true
}

func (sics) Found(out string) (bool, bool) {
	if sicsFirstRe.MatchString(out) {
		return true, true
	}
	return false, false
}

func firstFloat(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseFloat(m[1])
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
