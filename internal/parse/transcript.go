package parse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Transcript line prefixes.
const (
	RunPrefix      = "[Run]"
	CmdPrefix      = "[Run] CMD:"
	ValgrindPrefix = "[Valgrind]"

	sectionPrefix = "==="
	maxLineBytes  = 4 * 1024 * 1024
)

var (
	groupHeaderRe = regexp.MustCompile(`^\[Run\] (\S+) grp=(\S+) lvl=(\S+)`)
	graphHeaderRe = regexp.MustCompile(`^\[Run\] (\S+) .+ graph=([^\s]+)`)
)

// Entry is one run recovered from a transcript.
type Entry struct {
	Solver string
	Group  string
	// Level is the sample percentage, or 0 for a full graph.
	Level  int
	Output Output
}

// GroupHeader opens the transcript block of a sampled test case.
func GroupHeader(solver, group string, level int) string {
	return fmt.Sprintf("%s %s grp=%s lvl=%d", RunPrefix, solver, group, level)
}

// GraphHeader opens the transcript block of a named target graph.
func GraphHeader(solver, family, name string) string {
	return fmt.Sprintf("%s %s %s graph=%s", RunPrefix, solver, family, name)
}

// ParseTranscript splits a transcript into run blocks and parses each one
// with ex. Text before the first header is ignored. Only read errors are
// returned; a truncated block yields an Entry with nil fields.
func ParseTranscript(r io.Reader, ex Extractor) ([]Entry, error) {
	var (
		entries []Entry
		cur     *Entry
		in      Input
		stdout  strings.Builder
		harness strings.Builder
		report  strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		in.Stdout, in.Harness, in.Instrumentation = stdout.String(), harness.String(), report.String()
		cur.Output = Parse(ex, in)
		entries = append(entries, *cur)
		cur, in = nil, Input{}
		stdout.Reset()
		harness.Reset()
		report.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, CmdPrefix) {
			if cur != nil {
				harness.WriteString(line)
				harness.WriteByte('\n')
			}
			continue
		}
		if m := groupHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			lvl, _ := strconv.Atoi(m[3])
			cur = &Entry{Solver: m[1], Group: m[2], Level: lvl}
			continue
		}
		if m := graphHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Entry{Solver: m[1], Group: m[2]}
			continue
		}
		if cur == nil || strings.HasPrefix(line, sectionPrefix) {
			continue
		}
		switch {
		case strings.HasPrefix(line, RunPrefix):
			harness.WriteString(line)
			harness.WriteByte('\n')
		case strings.HasPrefix(line, ValgrindPrefix):
			report.WriteString(line)
			report.WriteByte('\n')
		default:
			stdout.WriteString(line)
			stdout.WriteByte('\n')
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("reading transcript: %w", err)
	}
	return entries, nil
}
