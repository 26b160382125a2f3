package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the invoice directory.
var ErrOutsideRoot = errors.New("path is outside the invoice directory")

// PathValidator confines file and directory arguments to one root directory.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, errors.New("invoice directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invoice directory: %w", err)
	}
	return &PathValidator{root: abs}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns a file argument into an absolute path inside the root.
// Relative paths are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs := filepath.Clean(path)

	if !v.Contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// ResolveDirectory resolves a directory argument. An empty argument means
// the root itself.
func (v *PathValidator) ResolveDirectory(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return v.root, nil
	}
	abs, err := v.Resolve(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dir)
	}
	return abs, nil
}

// Contains reports whether an absolute path lies inside the root, after
// resolving symlinks on both sides where they exist.
func (v *PathValidator) Contains(abs string) bool {
	if !within(v.root, abs) {
		return false
	}
	realRoot := realPath(v.root)
	return within(realRoot, realPath(abs))
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// realPath resolves symlinks for the longest existing prefix of path.
func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(realPath(parent), filepath.Base(path))
}
