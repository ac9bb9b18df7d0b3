package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var ErrOutsideRoot = errors.New("safeio: path escapes root")

// Dir writes and reads files confined to a fixed root directory.
type Dir struct {
	absRoot string // absolute root with symlinks resolved
}

// NewDir creates root if needed and locks all operations to it.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Dir{absRoot: abs}, nil
}

func (d *Dir) Root() string {
	if d == nil {
		return ""
	}
	return d.absRoot
}

// WriteFile writes data to a slash-separated path under the root, creating
// parent directories. Existing files are replaced atomically.
func (d *Dir) WriteFile(rel string, data []byte) error {
	p, err := d.target(rel)
	if err != nil {
		return err
	}
	parent := filepath.Dir(p)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	// a symlinked parent could point anywhere
	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return err
	}
	if !hasPathPrefix(realParent, d.absRoot) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	tmp, err := os.CreateTemp(realParent, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(realParent, filepath.Base(p)))
}

// ReadFile reads a slash-separated path under the root.
func (d *Dir) ReadFile(rel string) ([]byte, error) {
	p, err := d.target(rel)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return nil, err
	}
	if !hasPathPrefix(resolved, d.absRoot) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(resolved)
}

func (d *Dir) target(rel string) (string, error) {
	if d == nil {
		return "", errors.New("safeio: directory not configured")
	}
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return filepath.Join(d.absRoot, clean), nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
