package session

import (
	"context"
	"iter"
	"sync"

	llmclient "sitegen/internal/llmClient"
)

// scriptedTurn is what one SendAndStream call produces. When gate is set,
// the stream waits for it to close before finishing.
type scriptedTurn struct {
	frags []llmclient.Fragment
	err   error // yielded after frags
	gate  chan struct{}
	after func() // runs once the stream is exhausted
}

type scriptedClient struct {
	openErr error

	mu      sync.Mutex
	turns   []scriptedTurn
	prompts []string
	reqs    []llmclient.SessionRequest
	closed  int
}

func (c *scriptedClient) Name() string { return "scripted" }
func (c *scriptedClient) Close() error { return nil }

func (c *scriptedClient) OpenSession(ctx context.Context, req llmclient.SessionRequest) (llmclient.SessionHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &scriptedHandle{c: c}, nil
}

type scriptedHandle struct{ c *scriptedClient }

func (h *scriptedHandle) Close() error {
	h.c.mu.Lock()
	h.c.closed++
	h.c.mu.Unlock()
	return nil
}

func (h *scriptedHandle) SendAndStream(ctx context.Context, prompt string) iter.Seq2[llmclient.Fragment, error] {
	return func(yield func(llmclient.Fragment, error) bool) {
		h.c.mu.Lock()
		h.c.prompts = append(h.c.prompts, prompt)
		var turn scriptedTurn
		if len(h.c.turns) > 0 {
			turn, h.c.turns = h.c.turns[0], h.c.turns[1:]
		}
		h.c.mu.Unlock()

		for _, f := range turn.frags {
			if !yield(f, nil) {
				return
			}
		}
		if turn.gate != nil {
			select {
			case <-turn.gate:
			case <-ctx.Done():
				yield(llmclient.Fragment{}, ctx.Err())
				return
			}
		}
		if turn.err != nil {
			yield(llmclient.Fragment{}, turn.err)
			return
		}
		if turn.after != nil {
			turn.after()
		}
	}
}

func texts(parts ...string) []llmclient.Fragment {
	out := make([]llmclient.Fragment, len(parts))
	for i, p := range parts {
		out[i] = llmclient.Fragment{Text: p}
	}
	return out
}
