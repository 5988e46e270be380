package app

import (
	"errors"
	"fmt"
)

// Mode selects which pipeline stages Run executes.
type Mode string

const (
	// ModeGenerate builds the corpus and its manifest.
	ModeGenerate Mode = "generate"
	// ModeRun sweeps every solver over an existing corpus and writes results.
	ModeRun Mode = "run"
	// ModeSummarize rebuilds the summaries from the transcripts on disk.
	ModeSummarize Mode = "summarize"
	// ModeAll generates the corpus and then sweeps it.
	ModeAll Mode = "all"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeGenerate, ModeRun, ModeSummarize, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be 'generate', 'run', 'summarize' or 'all'", s)
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // hcl files or directories
	// Vars override HCL variable defaults.
	Vars map[string]string
	Mode Mode

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// Workers overrides sweep.workers when positive.
	Workers int
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAll
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return &cfg, nil
}
