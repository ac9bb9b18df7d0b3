package transcript

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"sitegen/internal/generation"
	"sitegen/internal/tester"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "transcripts.db"))
	tester.NoErr(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{"memory": NewMemoryStore(), "sqlite": sq}
}

func TestStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			tester.NoErr(t, s.Append(ctx, "run-1", generation.Turn{Role: generation.RoleUser, Text: "Create a portfolio"}))
			tester.NoErr(t, s.Append(ctx, "run-1", generation.Turn{Role: generation.RoleModel, Text: "## Draft"}))
			tester.NoErr(t, s.Append(ctx, "run-2", generation.Turn{Role: generation.RoleUser, Text: "other"}))

			entries, err := s.List(ctx, "run-1")
			tester.NoErr(t, err)
			tester.Eq(t, len(entries), 2)
			tester.Eq(t, entries[0].Seq, 1)
			tester.Eq(t, entries[1].Seq, 2)
			tester.Eq(t, Turns(entries), []generation.Turn{
				{Role: generation.RoleUser, Text: "Create a portfolio"},
				{Role: generation.RoleModel, Text: "## Draft"},
			})
		})
	}
}

func TestStore_NotFoundAndValidation(t *testing.T) {
	ctx := context.Background()
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.List(ctx, "nope")
			tester.True(t, errors.Is(err, ErrNotFound), err)

			tester.True(t, s.Append(ctx, " ", generation.Turn{Role: generation.RoleUser}) != nil, "blank run id")
			tester.True(t, s.Append(ctx, "r", generation.Turn{Role: "system"}) != nil, "bad role")
		})
	}
}

func TestSQLiteStore_ConcurrentAppend(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "t.db"))
	tester.NoErr(t, err)
	defer s.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, "r", generation.Turn{Role: generation.RoleUser, Text: "x"})
		}()
	}
	wg.Wait()

	entries, err := s.List(ctx, "r")
	tester.NoErr(t, err)
	tester.Eq(t, len(entries), 8)
	for i, e := range entries {
		tester.Eq(t, e.Seq, i+1)
	}
}
