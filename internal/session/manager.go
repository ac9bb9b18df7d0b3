package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"sitegen/internal/generation"
	llmclient "sitegen/internal/llmClient"
)

// State of a Manager.
type State int

const (
	Idle State = iota
	Starting
	Active
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// resultBuffer bounds how far the stream goroutine may run ahead of a slow reader.
const resultBuffer = 16

// Manager owns one remote session and its conversation history.
// At most one turn is in flight; extra calls are rejected, not queued.
type Manager struct {
	client llmclient.SessionClient

	mu       sync.Mutex
	state    State
	policy   generation.Policy
	handle   llmclient.SessionHandle
	history  []generation.Turn
	inFlight bool
	cancel   context.CancelFunc
}

func NewManager(client llmclient.SessionClient) *Manager {
	return &Manager{client: client}
}

// Start opens the session for req and streams its first turn.
// The returned channel carries partial results followed by exactly one
// final result, then closes.
func (m *Manager) Start(ctx context.Context, req generation.Request) (<-chan generation.Result, error) {
	m.mu.Lock()
	if m.state != Idle {
		st := m.state
		m.mu.Unlock()
		if st == Closed {
			return nil, generation.NewError(generation.InvalidCallSequence, "start", generation.ErrSessionClosed)
		}
		return nil, generation.NewError(generation.InvalidCallSequence, "start", generation.ErrStarted)
	}
	m.state = Starting
	m.mu.Unlock()

	h, err := m.client.OpenSession(ctx, llmclient.NewSessionRequest(req))

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if m.state == Starting {
			m.state = Errored
		}
		return nil, generation.NewError(generation.SessionOpenFailure, "start", err)
	}
	if m.state == Closed {
		_ = h.Close()
		return nil, generation.NewError(generation.InvalidCallSequence, "start", generation.ErrSessionClosed)
	}
	m.state = Active
	m.handle = h
	m.policy = req.Policy
	return m.beginTurnLocked(ctx, req.TurnPrompt), nil
}

// SendTurn sends a refinement message. It is rejected with an
// InvalidCallSequence error unless the session is Active and idle.
func (m *Manager) SendTurn(ctx context.Context, msg string) (<-chan generation.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state == Closed:
		return nil, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrSessionClosed)
	case m.state != Active:
		return nil, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrNotActive)
	case m.inFlight:
		return nil, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrTurnInFlight)
	}
	return m.beginTurnLocked(ctx, msg), nil
}

func (m *Manager) beginTurnLocked(ctx context.Context, prompt string) <-chan generation.Result {
	m.inFlight = true
	m.history = append(m.history, generation.Turn{Role: generation.RoleUser, Text: prompt})
	turnCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	out := make(chan generation.Result, resultBuffer)
	go m.stream(turnCtx, cancel, m.handle, m.policy, prompt, out)
	return out
}

func (m *Manager) stream(ctx context.Context, cancel context.CancelFunc, h llmclient.SessionHandle, p generation.Policy, prompt string, out chan<- generation.Result) {
	defer close(out)
	defer cancel()

	send := func(r generation.Result) bool {
		select {
		case out <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(acc *Accumulator, err error) {
		m.rollback()
		snap := acc.Fail(err)
		send(generation.Failed(p.OutputMode, generation.NewError(generation.StreamTransportFailure, "stream", snap.Err)))
	}

	acc := NewAccumulator()
	for frag, err := range h.SendAndStream(ctx, prompt) {
		if err != nil {
			log.Printf("session: turn failed after %d fragments: %v", acc.Fragments(), err)
			fail(acc, err)
			return
		}
		snap := acc.Add(frag)
		if !send(generation.Partial(p.OutputMode, snap.Text)) {
			fail(acc, ctx.Err())
			return
		}
	}
	// A stream that ran to completion is committed even if ctx was cancelled
	// after the last fragment: the remote side has already recorded the turn.
	final := acc.Finish()
	res := generation.Interpret(final.Text, p).WithCitations(p, final.Citations)
	m.commit(final.Text)
	send(res)
}

// commit records the model turn and frees the session for the next turn.
func (m *Manager) commit(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, generation.Turn{Role: generation.RoleModel, Text: text})
	m.inFlight = false
	m.cancel = nil
}

// rollback drops the in-flight user turn.
func (m *Manager) rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.history); n > 0 && m.history[n-1].Role == generation.RoleUser {
		m.history = m.history[:n-1]
	}
	m.inFlight = false
	m.cancel = nil
}

// Close ends the session and cancels any in-flight turn. It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return nil
	}
	m.state = Closed
	cancel, h := m.cancel, m.handle
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if h != nil {
		return h.Close()
	}
	return nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// InFlight reports whether a turn is streaming.
func (m *Manager) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Policy returns the policy the session was opened with.
func (m *Manager) Policy() generation.Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy
}

// History returns a copy of the conversation. While a turn is in flight the
// last entry is its user turn.
func (m *Manager) History() []generation.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Turn(nil), m.history...)
}

// IsRejected reports whether err is a synchronous call-sequence rejection.
func IsRejected(err error) bool {
	var ge *generation.Error
	return errors.As(err, &ge) && ge.Kind == generation.InvalidCallSequence
}
