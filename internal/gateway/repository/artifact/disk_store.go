package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore persists artifacts under a local root directory by runID/path.
// Content types are derived from the file extension on read.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: strings.TrimSpace(root)}
}

func (s *DiskStore) Put(_ context.Context, runID string, obj Object) error {
	fullPath, err := s.pathFor(runID, obj.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, obj.Content, 0o644)
}

func (s *DiskStore) Get(_ context.Context, runID, path string) (Object, error) {
	fullPath, err := s.pathFor(runID, path)
	if err != nil {
		return Object{}, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, err
	}
	ct := mime.TypeByExtension(filepath.Ext(fullPath))
	if ct == "" {
		ct = defaultContentType
	}
	_, rel, _ := normalizeKey(runID, path)
	return Object{Path: rel, Content: data, ContentType: ct}, nil
}

func (s *DiskStore) GetURL(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (s *DiskStore) List(_ context.Context, runID string) ([]string, error) {
	runRoot, err := s.runRoot(runID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, 32)
	walkErr := filepath.WalkDir(runRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(runRoot, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return []string{}, nil
		}
		return nil, walkErr
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *DiskStore) runRoot(runID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if s.root == "" {
		return "", fmt.Errorf("root is required")
	}
	runID, err := normalizeRun(runID)
	if err != nil {
		return "", err
	}
	if strings.Contains(runID, "..") || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("invalid run_id: %s", runID)
	}
	return filepath.Join(s.root, runID), nil
}

func (s *DiskStore) pathFor(runID, path string) (string, error) {
	runRoot, err := s.runRoot(runID)
	if err != nil {
		return "", err
	}
	_, path, err = normalizeKey(runID, path)
	if err != nil {
		return "", err
	}
	if strings.Contains(path, "..") || filepath.IsAbs(path) {
		return "", fmt.Errorf("invalid path: %s", path)
	}
	return filepath.Join(runRoot, filepath.FromSlash(path)), nil
}
