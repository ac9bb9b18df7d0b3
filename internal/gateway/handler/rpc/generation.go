package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"sitegen/internal/generation"
	"sitegen/internal/gateway/repository/transcript"
	runsvc "sitegen/internal/gateway/service/run"
	"sitegen/internal/siteconfig"
)

const GenerationServiceName = "sitegen.v1.GenerationService"

const (
	StartRunProcedure = "/" + GenerationServiceName + "/StartRun"
	SendTurnProcedure = "/" + GenerationServiceName + "/SendTurn"
	CloseRunProcedure = "/" + GenerationServiceName + "/CloseRun"
	GetRunProcedure   = "/" + GenerationServiceName + "/GetRun"
)

type GenerationHandler struct {
	svc *runsvc.Service
}

func NewGenerationHandler(svc *runsvc.Service) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// NewGenerationServiceHandler mounts the generation procedures under one path
// prefix, the way generated connect handlers do.
func NewGenerationServiceHandler(h *GenerationHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	start := connect.NewServerStreamHandler(StartRunProcedure, h.StartRun, opts...)
	send := connect.NewServerStreamHandler(SendTurnProcedure, h.SendTurn, opts...)
	closeRun := connect.NewUnaryHandler(CloseRunProcedure, h.CloseRun, opts...)
	getRun := connect.NewUnaryHandler(GetRunProcedure, h.GetRun, opts...)

	return "/" + GenerationServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case StartRunProcedure:
			start.ServeHTTP(w, r)
		case SendTurnProcedure:
			send.ServeHTTP(w, r)
		case CloseRunProcedure:
			closeRun.ServeHTTP(w, r)
		case GetRunProcedure:
			getRun.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *GenerationHandler) StartRun(ctx context.Context, req *connect.Request[StartRunRequest], stream *connect.ServerStream[RunEvent]) error {
	cfg := siteconfig.Default()
	if req.Msg.Config != nil {
		cfg = *req.Msg.Config
	}
	run, err := h.svc.Start(ctx, cfg)
	if err != nil {
		return toConnectError(err)
	}
	stream.ResponseHeader().Set("Sitegen-Run-Id", run.ID)
	sub, cancel := run.Subscribe()
	defer cancel()
	return forwardTurn(ctx, sub, 1, stream)
}

func (h *GenerationHandler) SendTurn(ctx context.Context, req *connect.Request[SendTurnRequest], stream *connect.ServerStream[RunEvent]) error {
	runID := strings.TrimSpace(req.Msg.RunID)
	msg := strings.TrimSpace(req.Msg.Message)
	if runID == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("run_id is required"))
	}
	if msg == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("message is required"))
	}
	run, ok := h.svc.Get(runID)
	if !ok {
		return toConnectError(fmt.Errorf("%w: %s", runsvc.ErrRunNotFound, runID))
	}
	// subscribe first so no event of the new turn is missed
	sub, cancel := run.Subscribe()
	defer cancel()
	_, turn, err := h.svc.Send(runID, msg)
	if err != nil {
		return toConnectError(err)
	}
	return forwardTurn(ctx, sub, turn, stream)
}

func (h *GenerationHandler) CloseRun(_ context.Context, req *connect.Request[CloseRunRequest]) (*connect.Response[CloseRunResponse], error) {
	runID := strings.TrimSpace(req.Msg.RunID)
	if runID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("run_id is required"))
	}
	if err := h.svc.Close(runID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CloseRunResponse{RunID: runID, Closed: true}), nil
}

func (h *GenerationHandler) GetRun(ctx context.Context, req *connect.Request[GetRunRequest]) (*connect.Response[GetRunResponse], error) {
	runID := strings.TrimSpace(req.Msg.RunID)
	if runID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("run_id is required"))
	}
	if run, ok := h.svc.Get(runID); ok {
		return connect.NewResponse(toGetRunResponse(run.Info())), nil
	}
	entries, err := h.svc.Transcript(ctx, runID)
	if errors.Is(err, transcript.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("run %s not found", runID))
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&GetRunResponse{
		RunID:   runID,
		State:   "closed",
		Turn:    len(entries) / 2,
		History: transcript.Turns(entries),
	}), nil
}

// forwardTurn relays events until the final event of turn. Newer turns also
// end the stream since latest-wins delivery may skip a final event.
func forwardTurn(ctx context.Context, sub <-chan runsvc.Event, turn int, stream *connect.ServerStream[RunEvent]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if ev.Turn < turn {
				continue
			}
			if err := stream.Send(toRunEvent(ev)); err != nil {
				return connect.NewError(connect.CodeInternal, fmt.Errorf("failed to send event: %w", err))
			}
			if ev.Turn > turn || ev.Result.Final() {
				return nil
			}
		}
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, siteconfig.ErrInvalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, runsvc.ErrRunNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	}
	switch generation.KindOf(err) {
	case generation.InvalidCallSequence:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case generation.SessionOpenFailure, generation.StreamTransportFailure:
		return connect.NewError(connect.CodeUnavailable, err)
	case generation.StructuredDecodeFailure:
		return connect.NewError(connect.CodeDataLoss, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("generation service failed: %w", err))
	}
}
