package main

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"sitegen/internal/generation"
	"sitegen/internal/gateway/handler/rpc"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/session"
	"sitegen/internal/siteconfig"
)

// conversation is one generation session, in-process or behind a gateway.
type conversation interface {
	Start(ctx context.Context) (<-chan generation.Result, error)
	Send(ctx context.Context, msg string) (<-chan generation.Result, error)
	Close() error
}

type localConversation struct {
	mgr *session.Manager
	req generation.Request
}

func newLocalConversation(cli llmclient.SessionClient, cfg siteconfig.Config) *localConversation {
	return &localConversation{
		mgr: session.NewManager(cli),
		req: generation.Compose(cfg, generation.Resolve(cfg)),
	}
}

func (c *localConversation) Start(ctx context.Context) (<-chan generation.Result, error) {
	return c.mgr.Start(ctx, c.req)
}

func (c *localConversation) Send(ctx context.Context, msg string) (<-chan generation.Result, error) {
	return c.mgr.SendTurn(ctx, msg)
}

func (c *localConversation) Close() error { return c.mgr.Close() }

type remoteConversation struct {
	client *rpc.GenerationClient
	cfg    siteconfig.Config
	runID  string
}

func newRemoteConversation(client *rpc.GenerationClient, cfg siteconfig.Config) *remoteConversation {
	return &remoteConversation{client: client, cfg: cfg}
}

func (c *remoteConversation) Start(ctx context.Context) (<-chan generation.Result, error) {
	cfg := c.cfg
	stream, err := c.client.StartRun(ctx, &rpc.StartRunRequest{Config: &cfg})
	if err != nil {
		return nil, err
	}
	return c.relay(stream), nil
}

func (c *remoteConversation) Send(ctx context.Context, msg string) (<-chan generation.Result, error) {
	if c.runID == "" {
		return nil, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrNotActive)
	}
	stream, err := c.client.SendTurn(ctx, &rpc.SendTurnRequest{RunID: c.runID, Message: msg})
	if err != nil {
		return nil, err
	}
	return c.relay(stream), nil
}

func (c *remoteConversation) Close() error {
	if c.runID == "" {
		return nil
	}
	_, err := c.client.CloseRun(context.Background(), &rpc.CloseRunRequest{RunID: c.runID})
	if connect.CodeOf(err) == connect.CodeNotFound {
		return nil
	}
	return err
}

// relay converts stream events to results. A call-level failure becomes a
// final error result.
func (c *remoteConversation) relay(stream *connect.ServerStreamForClient[rpc.RunEvent]) <-chan generation.Result {
	out := make(chan generation.Result, 16)
	go func() {
		defer close(out)
		defer stream.Close()
		for stream.Receive() {
			ev := stream.Msg()
			if c.runID == "" {
				c.runID = ev.RunID
			}
			out <- fromRunEvent(ev)
		}
		if err := stream.Err(); err != nil {
			kind := generation.StreamTransportFailure
			var ce *connect.Error
			if errors.As(err, &ce) && ce.Code() == connect.CodeFailedPrecondition {
				kind = generation.InvalidCallSequence
			}
			out <- generation.Failed("", generation.NewError(kind, "remote", err))
		}
	}()
	return out
}

func fromRunEvent(ev *rpc.RunEvent) generation.Result {
	res := generation.Result{
		Freeform:  ev.Text,
		Artifacts: ev.Artifacts,
		Citations: ev.Citations,
		Streaming: ev.Streaming,
		Raw:       ev.Raw,
	}
	switch ev.Kind {
	case generation.ResultArtifacts.String():
		res.Kind = generation.ResultArtifacts
	case generation.ResultError.String():
		res.Kind = generation.ResultError
		res.Err = &generation.Error{Kind: parseKind(ev.ErrorKind), Op: "remote", Raw: ev.Raw, Err: errors.New(ev.Error)}
	default:
		res.Kind = generation.ResultFreeform
	}
	return res
}

func parseKind(s string) generation.ErrorKind {
	for _, k := range []generation.ErrorKind{
		generation.SessionOpenFailure,
		generation.StreamTransportFailure,
		generation.StructuredDecodeFailure,
		generation.InvalidCallSequence,
	} {
		if k.String() == s {
			return k
		}
	}
	return generation.KindUnknown
}
