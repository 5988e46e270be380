package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *Model {
	return &Model{
		Sweep: Sweep{CorpusDir: "corpus", ResultsDir: "results", Workers: 1, Levels: DefaultLevels},
		Families: []Family{
			{Name: "er", Generator: "er", Groups: 2, Nodes: 100, P: 0.05, Levels: DefaultLevels},
			{Name: "real", Generator: EdgeList, SourceDir: "snap", Pattern: &Pattern{Name: "triangle", Shape: "triangle"}},
		},
		Solvers: []Solver{
			{Name: "VF3", WorkDir: "/opt/vf3", TestDir: "test", Command: "./bin/vf3 -u {pattern} {target}", Timeout: time.Minute},
		},
	}
}

// sibling copies s under another name with its own staging location.
func sibling(s Solver, workDir, testDir string) Solver {
	s.Name, s.WorkDir, s.TestDir = "RI", workDir, testDir
	return s
}

func TestModel_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(m *Model)
		wantErr error
	}{
		{name: "valid", mutate: func(*Model) {}},
		{name: "missing corpus dir", mutate: func(m *Model) { m.Sweep.CorpusDir = "" }, wantErr: ErrInvalidConfig},
		{name: "no workers", mutate: func(m *Model) { m.Sweep.Workers = 0 }, wantErr: ErrInvalidConfig},
		{name: "instrumentation without tool", mutate: func(m *Model) { m.Instrumentation.Enabled = true }, wantErr: ErrInvalidConfig},
		{name: "level out of range", mutate: func(m *Model) { m.Families[0].Levels = []int{150} }, wantErr: ErrInvalidConfig},
		{name: "duplicate family", mutate: func(m *Model) { m.Families[1].Name = "er" }, wantErr: ErrInvalidConfig},
		{name: "edge list without source", mutate: func(m *Model) { m.Families[1].SourceDir = "" }, wantErr: ErrInvalidConfig},
		{name: "nothing to run", mutate: func(m *Model) { m.Families[0].Levels = nil }, wantErr: ErrInvalidConfig},
		{name: "solver without timeout", mutate: func(m *Model) { m.Solvers[0].Timeout = 0 }, wantErr: ErrInvalidConfig},
		{name: "solver names unknown family", mutate: func(m *Model) { m.Solvers[0].Families = []string{"tree"} }, wantErr: ErrUnknownFamily},
		{name: "solvers share a staging dir", mutate: func(m *Model) { m.Solvers = append(m.Solvers, sibling(m.Solvers[0], "/opt/vf3", "test")) }, wantErr: ErrInvalidConfig},
		{name: "staging dirs nest", mutate: func(m *Model) { m.Solvers = append(m.Solvers, sibling(m.Solvers[0], "/opt/vf3/test/", "lad")) }, wantErr: ErrInvalidConfig},
		{name: "solvers share a work dir only", mutate: func(m *Model) { m.Solvers = append(m.Solvers, sibling(m.Solvers[0], "/opt/vf3", "test_ri")) }},
		{name: "publish without url", mutate: func(m *Model) { m.Publish = &Publish{} }, wantErr: ErrInvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := validModel()
			tc.mutate(m)
			err := m.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestModel_Lookup(t *testing.T) {
	t.Parallel()
	m := validModel()

	f, err := m.Family("real")
	require.NoError(t, err)
	assert.False(t, f.Sampled())

	_, err = m.Solver("Glasgow")
	assert.ErrorIs(t, err, ErrUnknownSolver)

	s, err := m.Solver("VF3")
	require.NoError(t, err)
	assert.True(t, s.Runs("er"))
	s.Families = []string{"real"}
	assert.False(t, s.Runs("er"))
}
