package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"iter"
	"strings"
	"sync"
	"time"

	"sitegen/internal/generation"
)

// FakeClient streams deterministic responses for offline runs and tests.
// Text sessions get markdown, json sessions get a valid artifact array,
// and search sessions end with a fixed citation.
type FakeClient struct {
	chunk int
	delay time.Duration
}

func NewFakeClient(chunkSize int, delay time.Duration) *FakeClient {
	if chunkSize <= 0 {
		chunkSize = 24
	}
	return &FakeClient{chunk: chunkSize, delay: delay}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) OpenSession(ctx context.Context, req SessionRequest) (SessionHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &fakeSession{client: f, json: req.ResponseMIMEType == "application/json"}
	for _, t := range req.Tools {
		if t == generation.ToolGoogleSearch {
			s.search = true
		}
	}
	return s, nil
}

type fakeSession struct {
	client *FakeClient
	json   bool
	search bool

	mu     sync.Mutex
	turns  int
	closed bool
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) SendAndStream(ctx context.Context, prompt string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			yield(Fragment{}, ErrHandleClosed)
			return
		}
		turn := s.turns + 1
		s.mu.Unlock()

		body := s.render(turn, prompt)
		for _, piece := range split(body, s.client.chunk) {
			if s.client.delay > 0 {
				select {
				case <-ctx.Done():
					yield(Fragment{}, ctx.Err())
					return
				case <-time.After(s.client.delay):
				}
			} else if err := ctx.Err(); err != nil {
				yield(Fragment{}, err)
				return
			}
			if !yield(Fragment{Text: piece}, nil) {
				return
			}
		}
		if s.search {
			cite := generation.Citation{URI: "https://example.com/design-trends", Title: "Design trends"}
			if !yield(Fragment{Citations: []generation.Citation{cite}}, nil) {
				return
			}
		}

		s.mu.Lock()
		s.turns = turn
		s.mu.Unlock()
	}
}

func (s *fakeSession) render(turn int, prompt string) string {
	first := firstLine(prompt)
	if !s.json {
		return fmt.Sprintf("## Draft %d\n\n%s\n\n- Hero section\n- Services grid\n- Contact call-to-action\n", turn, first)
	}
	arts := []generation.Artifact{
		{
			Path: "index.html",
			Content: fmt.Sprintf("<!doctype html>\n<html><head><link rel=\"stylesheet\" href=\"css/site.css\"></head>"+
				"<body><h1>Draft %d</h1><p>%s</p></body></html>\n", turn, html.EscapeString(first)),
		},
		{Path: "css/site.css", Content: "body { font-family: sans-serif; }\n"},
	}
	b, _ := json.Marshal(arts)
	return string(b)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func split(s string, n int) []string {
	r := []rune(s)
	var out []string
	for len(r) > 0 {
		k := min(n, len(r))
		out = append(out, string(r[:k]))
		r = r[k:]
	}
	return out
}
