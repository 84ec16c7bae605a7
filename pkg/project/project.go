// Package project inspects a project root before it is handed to the
// analysis engine.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrNotDirectory is returned when the project root is missing or is a file.
var ErrNotDirectory = errors.New("project root is not a directory")

// pythonMarkers are files whose presence marks a Python project.
var pythonMarkers = []string{
	"pyproject.toml",
	"setup.py",
	"setup.cfg",
	"requirements.txt",
	"Pipfile",
	"poetry.lock",
}

// Info describes what was found at a project root.
type Info struct {
	Root          string   // Absolute, cleaned root path
	PythonMarkers []string // Python marker files present at the root
	GoModule      string   // Module path from go.mod, if any
	GoVersion     string   // go directive from go.mod, if any
	GoModErr      error    // Why go.mod could not be read; the rest of Info is still valid
}

// IsPython reports whether any Python marker file was found.
func (i *Info) IsPython() bool { return len(i.PythonMarkers) > 0 }

// IsGo reports whether a go.mod was found.
func (i *Info) IsGo() bool { return i.GoModule != "" }

// Kind returns a short label for display ("python", "go", "mixed" or "unknown").
func (i *Info) Kind() string {
	switch {
	case i.IsPython() && i.IsGo():
		return "mixed"
	case i.IsPython():
		return "python"
	case i.IsGo():
		return "go"
	default:
		return "unknown"
	}
}

// Detect validates rootPath and collects project markers.
func Detect(rootPath string) (*Info, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	st, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotDirectory, abs)
		}
		return nil, fmt.Errorf("reading project root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	info := &Info{Root: abs}
	for _, marker := range pythonMarkers {
		if _, err := os.Stat(filepath.Join(abs, marker)); err == nil {
			info.PythonMarkers = append(info.PythonMarkers, marker)
		}
	}

	info.GoModErr = detectGoModule(abs, info)
	return info, nil
}

// detectGoModule fills module information from go.mod. A missing go.mod is
// not an error. An unreadable or malformed one is reported but leaves the
// root usable, since the engine never reads it.
func detectGoModule(root string, info *Info) error {
	modPath := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read go.mod: %w", err)
	}

	mf, err := modfile.ParseLax(modPath, data, nil)
	if err != nil {
		return fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if mf.Module != nil {
		info.GoModule = mf.Module.Mod.Path
	}
	if mf.Go != nil {
		info.GoVersion = mf.Go.Version
	}
	return nil
}
