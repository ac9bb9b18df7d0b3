package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sitegen/internal/generation"
)

// Entry is one persisted conversation turn of a run.
type Entry struct {
	RunID     string
	Seq       int
	Role      generation.Role
	Text      string
	CreatedAt time.Time
}

// Store persists the committed turn history of generation runs.
type Store interface {
	Append(ctx context.Context, runID string, turn generation.Turn) error
	// List returns the turns of a run in commit order, or ErrNotFound when
	// the run has none.
	List(ctx context.Context, runID string) ([]Entry, error)
}

var ErrNotFound = errors.New("transcript not found")

func validate(runID string, turn generation.Turn) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	switch turn.Role {
	case generation.RoleUser, generation.RoleModel:
	default:
		return "", fmt.Errorf("invalid role %q", turn.Role)
	}
	return runID, nil
}

// Turns strips persistence metadata from entries.
func Turns(entries []Entry) []generation.Turn {
	out := make([]generation.Turn, 0, len(entries))
	for _, e := range entries {
		out = append(out, generation.Turn{Role: e.Role, Text: e.Text})
	}
	return out
}

type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, runID string, turn generation.Turn) error {
	runID, err := validate(runID, turn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = append(s.runs[runID], Entry{
		RunID:     runID,
		Seq:       len(s.runs[runID]) + 1,
		Role:      turn.Role,
		Text:      turn.Text,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *MemoryStore) List(_ context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.runs[strings.TrimSpace(runID)]
	if !ok || len(entries) == 0 {
		return nil, ErrNotFound
	}
	return append([]Entry(nil), entries...), nil
}
