package session

import (
	"strings"

	"sitegen/internal/generation"
	llmclient "sitegen/internal/llmClient"
)

// Snapshot is the published state of one turn's stream.
type Snapshot struct {
	Text      string
	Done      bool
	Citations []generation.Citation
	Err       error
}

// Accumulator concatenates the fragments of a single turn in arrival order.
// Use a new Accumulator per turn.
type Accumulator struct {
	buf   strings.Builder
	cites []generation.Citation
	n     int
}

func NewAccumulator() *Accumulator { return &Accumulator{} }

// Add appends f and returns the partial snapshot.
func (a *Accumulator) Add(f llmclient.Fragment) Snapshot {
	a.n++
	a.buf.WriteString(f.Text)
	a.cites = append(a.cites, f.Citations...)
	return Snapshot{Text: a.buf.String()}
}

// Finish returns the final snapshot with every citation seen on the stream.
func (a *Accumulator) Finish() Snapshot {
	var cites []generation.Citation
	if len(a.cites) > 0 {
		cites = append(cites, a.cites...)
	}
	return Snapshot{Text: a.buf.String(), Done: true, Citations: cites}
}

// Fail discards the partial text and returns an error snapshot.
func (a *Accumulator) Fail(err error) Snapshot {
	a.buf.Reset()
	a.cites = nil
	return Snapshot{Err: err}
}

// Fragments reports how many fragments were added.
func (a *Accumulator) Fragments() int { return a.n }
