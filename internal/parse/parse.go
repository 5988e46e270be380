// Package parse turns the raw text of one solver run into numbers: the solve
// time (solver-reported where a rule exists, the harness marker otherwise),
// whether a match was reported, and the heap totals of the instrumentation
// report.
//
// Nothing in this package returns an error for unexpected text. A field that
// cannot be read is left nil.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// TimeSource records where an elapsed value came from.
type TimeSource string

const (
	SourceNone   TimeSource = ""
	SourceSolver TimeSource = "solver"
	// SourceWallClock is the harness's own measurement around the process
	// call, including process start-up and instrumentation overhead.
	SourceWallClock TimeSource = "wall-clock"
)

// Input is the text produced by one run.
type Input struct {
	Stdout string
	Stderr string
	// Harness holds the runner's own marker lines ("[Run] Done in ...").
	Harness string
	// Instrumentation is the memory tool's side-channel report.
	Instrumentation string
}

// Output is what could be read from an Input.
type Output struct {
	Elapsed        *float64
	TimeSource     TimeSource
	TimedOut       bool
	Found          *bool
	BytesAllocated *int64
	InUseAtExit    *int64
}

var (
	doneRe    = regexp.MustCompile(`Done in ([0-9.]+)s`)
	timeoutRe = regexp.MustCompile(`TIMED OUT after [0-9.]+s\s+\(elapsed=([0-9.]+)s\)`)
	heapRe    = regexp.MustCompile(`total heap usage: [0-9,]+ allocs, [0-9,]+ frees, ([0-9,]+) bytes allocated`)
	inUseRe   = regexp.MustCompile(`in use at exit: ([0-9,]+) bytes`)
)

// Parse applies ex to the solver output, falls back to the harness marker for
// the time, and reads memory from the instrumentation report.
func Parse(ex Extractor, in Input) Output {
	var out Output
	solverText := in.Stdout
	if in.Stderr != "" {
		solverText += "\n" + in.Stderr
	}

	out.BytesAllocated = BytesAllocated(in.Instrumentation)
	out.InUseAtExit = InUseAtExit(in.Instrumentation)

	// Output of a killed process is not trusted.
	if v, ok := TimeoutMarker(in.Harness); ok {
		out.TimedOut = true
		out.Elapsed, out.TimeSource = &v, SourceWallClock
		return out
	}

	if v, ok := ex.SolveTime(solverText); ok {
		out.Elapsed, out.TimeSource = &v, SourceSolver
	} else if v, ok := DoneMarker(in.Harness); ok {
		out.Elapsed, out.TimeSource = &v, SourceWallClock
	}

	if found, ok := ex.Found(solverText); ok {
		out.Found = &found
	}
	return out
}

// DoneMarker reads the harness "Done in <s>s" marker.
func DoneMarker(text string) (float64, bool) {
	return firstFloat(doneRe, text)
}

// TimeoutMarker reads the elapsed value of the harness timeout marker.
func TimeoutMarker(text string) (float64, bool) {
	return firstFloat(timeoutRe, text)
}

// BytesAllocated reads the "total heap usage" line of a memcheck report.
// Thousands separators are accepted.
func BytesAllocated(report string) *int64 {
	return commaInt(heapRe, report)
}

// InUseAtExit reads the "in use at exit" line of a memcheck report.
func InUseAtExit(report string) *int64 {
	return commaInt(inUseRe, report)
}

func commaInt(re *regexp.Regexp, s string) *int64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
