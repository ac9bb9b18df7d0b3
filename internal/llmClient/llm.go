package llmclient

import (
	"context"
	"errors"
	"iter"

	"sitegen/internal/generation"

	genai "google.golang.org/genai"
)

var (
	ErrHandleClosed    = errors.New("session handle closed")
	ErrUnsupportedTool = errors.New("tool not supported by provider")
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Fragment is one incremental piece of a model turn.
type Fragment struct {
	Text      string
	Citations []generation.Citation
}

// SessionRequest fixes the constraints of a remote session for its lifetime.
type SessionRequest struct {
	SystemInstruction string
	Params            generation.Params
	Tools             []generation.Tool
	Schema            *genai.Schema
	ResponseMIMEType  string
}

// NewSessionRequest derives the session constraints from a composed request.
func NewSessionRequest(req generation.Request) SessionRequest {
	return SessionRequest{
		SystemInstruction: req.SystemInstruction,
		Params:            req.Params,
		Tools:             append([]generation.Tool(nil), req.Policy.Tools...),
		Schema:            req.Policy.Schema,
		ResponseMIMEType:  req.Policy.OutputMode.MIMEType(),
	}
}

// SessionClient opens multi-turn sessions against a model provider.
// Cross-cutting concerns (rate limiting, logging) are applied by middleware
// in package llm.
type SessionClient interface {
	Name() string
	OpenSession(ctx context.Context, req SessionRequest) (SessionHandle, error)
	Close() error
}

// SessionHandle is one open conversation. The handle keeps the remote
// history; a turn is recorded there only when its stream completes.
type SessionHandle interface {
	// SendAndStream sends prompt as the next user turn and yields fragments
	// in arrival order. A non-nil error ends the sequence.
	SendAndStream(ctx context.Context, prompt string) iter.Seq2[Fragment, error]
	Close() error
}
