package runner

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind selects what the engine analyzes.
type Kind string

const (
	FullProject Kind = "full"
	CurrentFile Kind = "file"
	Git         Kind = "git"
	DBSchema    Kind = "db"
)

// Kinds lists every analysis kind.
func Kinds() []Kind {
	return []Kind{FullProject, CurrentFile, Git, DBSchema}
}

// ParseKind accepts a kind name or one of its long aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full", "full-project", "project":
		return FullProject, nil
	case "file", "current-file":
		return CurrentFile, nil
	case "git", "git-analytics":
		return Git, nil
	case "db", "db-schema", "schema":
		return DBSchema, nil
	default:
		return "", fmt.Errorf("unknown analysis kind %q (supported: full, file, git, db)", s)
	}
}

// Request describes one analysis. It is not modified by the runner.
type Request struct {
	ProjectRoot string        `json:"project_root" yaml:"project_root"`
	EngineHint  string        `json:"engine_hint,omitempty" yaml:"engine_hint,omitempty"` // Overrides engine resolution
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`                             // 0 uses the runner default
	Cache       bool          `json:"cache" yaml:"cache"`
	Kind        Kind          `json:"kind" yaml:"kind"`
	TargetFile  string        `json:"target_file,omitempty" yaml:"target_file,omitempty"` // Required for CurrentFile
}

// cacheKey identifies a cache slot. Current-file analyses are additionally
// keyed by their target so two files never share a slot.
type cacheKey struct {
	root   string
	kind   Kind
	target string
}

func (r Request) key() cacheKey {
	k := cacheKey{root: cleanRoot(r.ProjectRoot), kind: r.Kind}
	if r.Kind == CurrentFile {
		k.target = filepath.Clean(r.TargetFile)
	}
	return k
}

func cleanRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}
