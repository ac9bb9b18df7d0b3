package session

import (
	"errors"
	"strings"
	"testing"

	"sitegen/internal/generation"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/tester"
)

func TestAccumulator_ConcatenatesInOrder(t *testing.T) {
	parts := []string{"<h", "1>", "", "Hi", "Hi", "</h1>"}
	acc := NewAccumulator()
	var want strings.Builder
	for _, p := range parts {
		want.WriteString(p)
		snap := acc.Add(llmclient.Fragment{Text: p})
		tester.False(t, snap.Done)
		tester.Eq(t, snap.Text, want.String())
	}
	final := acc.Finish()
	tester.True(t, final.Done)
	tester.Eq(t, final.Text, "<h1>HiHi</h1>")
	tester.Eq(t, acc.Fragments(), len(parts))
}

func TestAccumulator_CitationsVerbatim(t *testing.T) {
	acc := NewAccumulator()
	a := generation.Citation{URI: "https://a.example", Title: "A"}
	acc.Add(llmclient.Fragment{Text: "x", Citations: []generation.Citation{a}})
	acc.Add(llmclient.Fragment{Citations: []generation.Citation{a, {URI: "https://b.example"}}})

	final := acc.Finish()
	tester.Eq(t, final.Citations, []generation.Citation{a, a, {URI: "https://b.example"}})
	tester.True(t, acc.Finish().Citations != nil)
	tester.True(t, NewAccumulator().Finish().Citations == nil)
}

func TestAccumulator_FailDiscardsPartialText(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(llmclient.Fragment{Text: "partial"})
	boom := errors.New("boom")
	snap := acc.Fail(boom)
	tester.False(t, snap.Done)
	tester.Eq(t, snap.Text, "")
	tester.True(t, errors.Is(snap.Err, boom))
}

func TestAccumulator_SnapshotsAreCopies(t *testing.T) {
	acc := NewAccumulator()
	first := acc.Add(llmclient.Fragment{Text: "a"})
	acc.Add(llmclient.Fragment{Text: "b"})
	tester.Eq(t, first.Text, "a")
}
