package llmclient

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"sitegen/internal/generation"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient streams chat completions from any OpenAI-compatible endpoint
// (OpenAI, Groq, local gateways). It has no server-side search tool, so
// sessions that ask for one are rejected.
type OpenAIClient struct {
	cli   openai.Client
	model string
}

// NewOpenAIClient creates a client. baseURL may be empty for the default endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, NewPermanentError(fmt.Errorf("openai: api key missing"))
	}
	if model == "" {
		return nil, NewPermanentError(fmt.Errorf("openai: model is required"))
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{cli: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAIClient) Name() string { return "OpenAI:" + o.model }
func (o *OpenAIClient) Close() error { return nil }

func (o *OpenAIClient) OpenSession(ctx context.Context, req SessionRequest) (SessionHandle, error) {
	if len(req.Tools) > 0 {
		return nil, NewPermanentError(fmt.Errorf("openai: %w: %s", ErrUnsupportedTool, req.Tools[0]))
	}
	s := &openAISession{cli: o.cli, model: o.model, params: req.Params}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		s.history = append(s.history, openai.SystemMessage(req.SystemInstruction))
	}
	return s, nil
}

type openAISession struct {
	cli    openai.Client
	model  string
	params generation.Params

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
	closed  bool
}

func (s *openAISession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *openAISession) SendAndStream(ctx context.Context, prompt string) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			yield(Fragment{}, ErrHandleClosed)
			return
		}
		msgs := append(append([]openai.ChatCompletionMessageParamUnion(nil), s.history...), openai.UserMessage(prompt))
		s.mu.Unlock()

		params := openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(s.model),
			Messages:    msgs,
			Temperature: openai.Float(s.params.Temperature),
			TopP:        openai.Float(s.params.TopP),
		}
		if s.params.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(s.params.MaxOutputTokens))
		}

		stream := s.cli.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		var full strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}
			full.WriteString(text)
			if !yield(Fragment{Text: text}, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(Fragment{}, fmt.Errorf("openai: stream: %w", err))
			return
		}

		s.mu.Lock()
		s.history = append(msgs, openai.AssistantMessage(full.String()))
		s.mu.Unlock()
	}
}
