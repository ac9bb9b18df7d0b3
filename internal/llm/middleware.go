package llm

import (
	"context"
	"iter"
	"log"
	"os"
	"strconv"
	"time"

	llmclient "sitegen/internal/llmClient"
)

// Middleware decorates a SessionClient to inject cross-cutting concerns
// (rate limiting, logging).
type Middleware func(llmclient.SessionClient) llmclient.SessionClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.SessionClient, mws ...Middleware) llmclient.SessionClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits how often sessions are opened and turns are started.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.SessionClient) llmclient.SessionClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

// RateLimitFromEnv reads RPS/BURST from environment variables with the
// given prefixes in priority order. For example, ("LLM","GEMINI")
// checks LLM_RPS/LLM_BURST first, then GEMINI_RPS/GEMINI_BURST.
func RateLimitFromEnv(prefixes ...string) Middleware {
	find := func(suffix string) string {
		for _, p := range prefixes {
			if p == "" {
				continue
			}
			if v := os.Getenv(p + suffix); v != "" {
				return v
			}
		}
		return ""
	}
	rps, _ := strconv.ParseFloat(find("_RPS"), 64)
	burst, _ := strconv.Atoi(find("_BURST"))
	return RateLimit(rps, burst)
}

type rateLimited struct {
	next llmclient.SessionClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) OpenSession(ctx context.Context, req llmclient.SessionRequest) (llmclient.SessionHandle, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	h, err := c.next.OpenSession(ctx, req)
	if err != nil {
		return nil, err
	}
	return &rateLimitedHandle{next: h, rl: c.rl}, nil
}

type rateLimitedHandle struct {
	next llmclient.SessionHandle
	rl   *rpsLimiter
}

func (h *rateLimitedHandle) Close() error { return h.next.Close() }

func (h *rateLimitedHandle) SendAndStream(ctx context.Context, prompt string) iter.Seq2[llmclient.Fragment, error] {
	return func(yield func(llmclient.Fragment, error) bool) {
		if err := h.rl.Acquire(ctx); err != nil {
			yield(llmclient.Fragment{}, err)
			return
		}
		for frag, err := range h.next.SendAndStream(ctx, prompt) {
			if !yield(frag, err) {
				return
			}
		}
	}
}

// -------- Logging --------

// WithLogging logs session opens, turn sizes and errors. Provide a custom
// logger or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.SessionClient) llmclient.SessionClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.SessionClient
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) OpenSession(ctx context.Context, req llmclient.SessionRequest) (llmclient.SessionHandle, error) {
	l.log.Printf("LLM open session (%s): mime=%s tools=%v system=%d bytes", l.next.Name(), req.ResponseMIMEType, req.Tools, len(req.SystemInstruction))
	h, err := l.next.OpenSession(ctx, req)
	if err != nil {
		l.log.Printf("LLM open error (%s): %v", l.next.Name(), err)
		return nil, err
	}
	return &loggingHandle{next: h, log: l.log, name: l.next.Name()}, nil
}

type loggingHandle struct {
	next llmclient.SessionHandle
	log  *log.Logger
	name string
}

func (h *loggingHandle) Close() error { return h.next.Close() }

func (h *loggingHandle) SendAndStream(ctx context.Context, prompt string) iter.Seq2[llmclient.Fragment, error] {
	return func(yield func(llmclient.Fragment, error) bool) {
		start := time.Now()
		h.log.Printf("LLM stream request (%s): %d bytes", h.name, len(prompt))
		frags, size := 0, 0
		for frag, err := range h.next.SendAndStream(ctx, prompt) {
			if err != nil {
				h.log.Printf("LLM stream error (%s) after %d fragments: %v", h.name, frags, err)
			} else {
				frags++
				size += len(frag.Text)
			}
			if !yield(frag, err) {
				return
			}
		}
		h.log.Printf("LLM stream done (%s): %d fragments, %d bytes in %s", h.name, frags, size, time.Since(start).Round(time.Millisecond))
	}
}
