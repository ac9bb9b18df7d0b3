package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, runID string, obj Object) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	runID, path, err := normalizeKey(runID, obj.Path)
	if err != nil {
		return err
	}
	ct := obj.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID+"/"+path] = Object{Path: path, Content: append([]byte(nil), obj.Content...), ContentType: ct}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID, path string) (Object, error) {
	if s == nil {
		return Object{}, fmt.Errorf("store is nil")
	}
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return Object{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[runID+"/"+path]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Content = append([]byte(nil), obj.Content...)
	return obj, nil
}

func (s *MemoryStore) List(_ context.Context, runID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	runID, err := normalizeRun(runID)
	if err != nil {
		return nil, err
	}
	prefix := runID + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}
