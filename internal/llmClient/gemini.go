package llmclient

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"

	"sitegen/internal/generation"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// Each session is a genai Chat, which keeps the turn history and records a
// turn only after its stream finishes.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a client for model. An empty apiKey lets genai read
// GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) OpenSession(ctx context.Context, req SessionRequest) (SessionHandle, error) {
	cfg, err := geminiConfig(req)
	if err != nil {
		return nil, err
	}
	chat, err := g.cli.Chats.Create(ctx, g.model, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &geminiSession{chat: chat}, nil
}

func geminiConfig(req SessionRequest) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Params.Temperature)),
		TopP:             genai.Ptr(float32(req.Params.TopP)),
		TopK:             genai.Ptr(float32(req.Params.TopK)),
		MaxOutputTokens:  int32(req.Params.MaxOutputTokens),
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(req.Params.ThinkingBudget))},
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   req.Schema,
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	for _, t := range req.Tools {
		switch t {
		case generation.ToolGoogleSearch:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		default:
			return nil, NewPermanentError(fmt.Errorf("gemini: %w: %s", ErrUnsupportedTool, t))
		}
	}
	return cfg, nil
}

type geminiSession struct {
	chat   *genai.Chat
	closed atomic.Bool
}

func (s *geminiSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *geminiSession) SendAndStream(ctx context.Context, prompt string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		if s.closed.Load() {
			yield(Fragment{}, ErrHandleClosed)
			return
		}
		for resp, err := range s.chat.SendStream(ctx, &genai.Part{Text: prompt}) {
			if err != nil {
				yield(Fragment{}, fmt.Errorf("gemini: stream: %w", err))
				return
			}
			frag := Fragment{Text: responseText(resp), Citations: groundingCitations(resp)}
			if frag.Text == "" && len(frag.Citations) == 0 {
				continue
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// responseText concatenates the visible text parts of the first candidate.
// Thought parts are skipped.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func groundingCitations(resp *genai.GenerateContentResponse) []generation.Citation {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var out []generation.Citation
	for _, ch := range gm.GroundingChunks {
		if ch == nil || ch.Web == nil || ch.Web.URI == "" {
			continue
		}
		out = append(out, generation.Citation{URI: ch.Web.URI, Title: ch.Web.Title})
	}
	return out
}
