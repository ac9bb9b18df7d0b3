package rpc

import (
	"sitegen/internal/generation"
	runsvc "sitegen/internal/gateway/service/run"
	"sitegen/internal/siteconfig"
)

type StartRunRequest struct {
	// Config defaults to the form defaults when omitted.
	Config *siteconfig.Config `json:"config,omitempty"`
}

type SendTurnRequest struct {
	RunID   string `json:"runId"`
	Message string `json:"message"`
}

type CloseRunRequest struct {
	RunID string `json:"runId"`
}

type CloseRunResponse struct {
	RunID  string `json:"runId"`
	Closed bool   `json:"closed"`
}

type GetRunRequest struct {
	RunID string `json:"runId"`
}

type GetRunResponse struct {
	RunID      string            `json:"runId"`
	Live       bool              `json:"live"`
	State      string            `json:"state"`
	Turn       int               `json:"turn"`
	InFlight   bool              `json:"inFlight"`
	OutputMode string            `json:"outputMode,omitempty"`
	Tools      []string          `json:"tools,omitempty"`
	History    []generation.Turn `json:"history"`
	Latest     *RunEvent         `json:"latest,omitempty"`
	Files      []string          `json:"files,omitempty"`
	Trace      []map[string]any  `json:"trace,omitempty"`
}

// RunEvent is one snapshot of a turn as seen by clients.
type RunEvent struct {
	RunID     string                `json:"runId"`
	Turn      int                   `json:"turn"`
	State     string                `json:"state"`
	Kind      string                `json:"kind"`
	Streaming bool                  `json:"streaming"`
	Text      string                `json:"text,omitempty"`
	Artifacts []generation.Artifact `json:"artifacts,omitempty"`
	Citations []generation.Citation `json:"citations,omitempty"`
	ErrorKind string                `json:"errorKind,omitempty"`
	Error     string                `json:"error,omitempty"`
	Raw       string                `json:"raw,omitempty"`
	Files     []string              `json:"files,omitempty"`
}

// Final reports whether this is the last event of its turn.
func (e *RunEvent) Final() bool { return !e.Streaming }

func toRunEvent(ev runsvc.Event) *RunEvent {
	res := ev.Result
	out := &RunEvent{
		RunID:     ev.RunID,
		Turn:      ev.Turn,
		State:     ev.State.String(),
		Kind:      res.Kind.String(),
		Streaming: res.Streaming,
		Text:      res.Freeform,
		Artifacts: res.Artifacts,
		Citations: res.Citations,
		Raw:       res.Raw,
		Files:     ev.Files,
	}
	if res.Err != nil {
		out.ErrorKind = res.Err.Kind.String()
		out.Error = res.Err.Error()
	}
	return out
}

func toGetRunResponse(info runsvc.Info) *GetRunResponse {
	out := &GetRunResponse{
		RunID:      info.ID,
		Live:       true,
		State:      info.State.String(),
		Turn:       info.Turn,
		InFlight:   info.InFlight,
		OutputMode: string(info.Policy.OutputMode),
		History:    info.History,
		Files:      info.Files,
		Trace:      info.Trace,
	}
	for _, t := range info.Policy.Tools {
		out.Tools = append(out.Tools, string(t))
	}
	if info.Latest != nil {
		out.Latest = toRunEvent(*info.Latest)
	}
	return out
}
