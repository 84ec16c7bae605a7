package normalize

import (
	"path"
	"path/filepath"
	"strings"
)

// RelativePath rewrites p relative to root when p lies inside root.
//
// Relative input is only cleaned. Absolute paths outside root are kept
// absolute rather than expressed with a leading "..". The result always
// uses forward slashes; an empty path becomes "unknown".
func RelativePath(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return unknownName
	}
	if !filepath.IsAbs(p) {
		return path.Clean(filepath.ToSlash(p))
	}

	p = filepath.Clean(p)
	if root == "" {
		return filepath.ToSlash(p)
	}

	rel, err := filepath.Rel(filepath.Clean(root), p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (n *Normalizer) relPath(p string) string {
	return RelativePath(n.root, p)
}

// folderOf returns the containing folder of a normalized module path.
func folderOf(p string) string {
	if p == unknownName {
		return unknownName
	}
	return path.Dir(p)
}
