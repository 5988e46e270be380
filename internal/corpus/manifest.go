// Package corpus materializes the benchmark corpus: every target graph,
// connected sample and fixed pattern of every configured family, serialized
// in all wire formats, plus the manifest that enumerates the resulting test
// cases.
//
// Later stages never list directories to discover work. They read the
// manifest, whose case order is the generation order.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/isobench/internal/format"
	"github.com/vk/isobench/internal/fsutil"
)

// ManifestFile is the manifest's name inside the corpus root.
const ManifestFile = "manifest.json"

var (
	// ErrNoManifest is returned when a corpus root has no readable manifest.
	ErrNoManifest = errors.New("corpus: manifest missing")
	// ErrSourceUnreadable is returned when an edge-list directory cannot be read.
	ErrSourceUnreadable = errors.New("corpus: source directory unreadable")
)

// Files are the corpus-relative paths of one case in one format.
type Files struct {
	Pattern string `json:"pattern"`
	Target  string `json:"target"`
}

// TestCase is one (family, group, level) instance.
type TestCase struct {
	Family string `json:"family"`
	Group  string `json:"group"`
	// Level is the sample percentage; 0 means a fixed pattern against the
	// full target.
	Level int                     `json:"level,omitempty"`
	Files map[format.Format]Files `json:"files"`
}

// Sampled reports whether the pattern is a connected sample of the target.
func (tc TestCase) Sampled() bool { return tc.Level > 0 }

// String renders the case for logs.
func (tc TestCase) String() string {
	if tc.Sampled() {
		return tc.Family + "/" + tc.Group + "@" + strconv.Itoa(tc.Level)
	}
	return tc.Family + "/" + tc.Group
}

// Manifest enumerates the cases of a corpus.
type Manifest struct {
	Seed     uint64     `json:"seed"`
	Families []string   `json:"families"`
	Cases    []TestCase `json:"cases"`
}

// ForFamily returns the cases of one family in generation order.
func (m *Manifest) ForFamily(family string) []TestCase {
	var out []TestCase
	for _, tc := range m.Cases {
		if tc.Family == family {
			out = append(out, tc)
		}
	}
	return out
}

// Load reads the manifest of the corpus at root.
func Load(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", root, err, ErrNoManifest)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s manifest: %w", root, err)
	}
	return &m, nil
}

func (m *Manifest) write(root string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(root, ManifestFile), append(data, '\n'), 0o644)
}
