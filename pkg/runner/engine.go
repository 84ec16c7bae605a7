package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/simonhull/firebird-suite/heron/pkg/logger"
)

// resolveEngine picks the engine executable: the request hint, then the
// first executable matching a search pattern under root, then the
// configured command on PATH. The returned path is absolute.
func (r *Runner) resolveEngine(root string, req Request) (string, error) {
	if hint := strings.TrimSpace(req.EngineHint); hint != "" {
		if !filepath.IsAbs(hint) && strings.ContainsRune(hint, filepath.Separator) {
			hint = filepath.Join(root, hint)
		}
		path, err := r.exec.LookPath(hint)
		if err != nil {
			return "", fmt.Errorf("engine %q: %w", req.EngineHint, err)
		}
		return filepath.Abs(path)
	}

	if path, ok := r.searchEngine(root); ok {
		return path, nil
	}

	path, err := r.exec.LookPath(r.command)
	if err != nil {
		return "", fmt.Errorf("engine %q: %w", r.command, err)
	}
	return filepath.Abs(path)
}

// searchEngine globs the configured search patterns relative to root.
func (r *Runner) searchEngine(root string) (string, bool) {
	fsys := os.DirFS(root)
	for _, pattern := range r.searchPaths {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			r.logger.Debug("Invalid engine search pattern", logger.F("pattern", pattern), logger.F("error", err))
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			candidate := filepath.Join(root, filepath.FromSlash(m))
			if isExecutable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	return st.Mode().Perm()&0o111 != 0
}

// engineArgs builds the invocation arguments:
// <args...> <projectRoot> --kind <kind> [--file <target>].
func (r *Runner) engineArgs(root string, req Request) []string {
	args := make([]string, 0, len(r.args)+5)
	args = append(args, r.args...)
	args = append(args, root, "--kind", string(req.Kind))
	if req.TargetFile != "" {
		args = append(args, "--file", req.TargetFile)
	}
	return args
}
