package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/isobench/internal/app"
)

func TestParse_FullFlags(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{
		"-config", "base.hcl",
		"-var", "solvers_root=/opt/s",
		"-var", "seed=9",
		"-mode", "RUN",
		"-workers", "3",
		"-healthcheck-port", "8080",
		"-log-level", "DEBUG",
		"solvers/",
	}

	// --- Act ---
	cfg, exit, err := Parse(args, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, &app.Config{
		ConfigPaths:     []string{"base.hcl", "solvers/"},
		Vars:            map[string]string{"solvers_root": "/opt/s", "seed": "9"},
		Mode:            app.ModeRun,
		LogFormat:       "text",
		LogLevel:        "debug",
		HealthcheckPort: 8080,
		Workers:         3,
	}, cfg)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
	}{
		{name: "bad mode", args: []string{"-mode", "plot", "bench.hcl"}},
		{name: "bad log format", args: []string{"-log-format", "xml", "bench.hcl"}},
		{name: "bad log level", args: []string{"-log-level", "trace", "bench.hcl"}},
		{name: "bad var", args: []string{"-var", "novalue", "bench.hcl"}},
		{name: "negative workers", args: []string{"-workers", "-2", "bench.hcl"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
