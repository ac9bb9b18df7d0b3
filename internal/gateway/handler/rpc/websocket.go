package rpc

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
)

const (
	runWSWriteWait = 10 * time.Second
	runWSPongWait  = 60 * time.Second
	runWSPingEvery = (runWSPongWait * 9) / 10
)

var runWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type runWSInbound struct {
	Type    string `json:"type"`
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message,omitempty"`
}

type runWSOutbound struct {
	Type    string    `json:"type"`
	RunID   string    `json:"runId,omitempty"`
	Turn    int       `json:"turn,omitempty"`
	Event   *RunEvent `json:"event,omitempty"`
	Closed  bool      `json:"closed,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// HandleRunWS streams every event of a live run and accepts refinement
// messages on the same connection.
func (h *GenerationHandler) HandleRunWS(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	run, ok := h.svc.Get(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := runWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(runWSPongWait)); err != nil {
		log.Printf("run ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(runWSPongWait))
	})

	writeCh := make(chan runWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(runWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(runWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(runWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sub, unsubscribe := run.Subscribe()
	defer unsubscribe()
	pushRunWS(writeCh, runWSOutbound{Type: "subscribed", RunID: runID})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					pushRunWS(writeCh, runWSOutbound{Type: "closed", RunID: runID, Closed: true})
					return
				}
				pushRunWS(writeCh, runWSOutbound{Type: "event", RunID: runID, Turn: ev.Turn, Event: toRunEvent(ev)})
			}
		}
	}()

	for {
		var in runWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		if msgType == "" {
			pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
			continue
		}
		if v := strings.TrimSpace(in.RunID); v != "" && v != runID {
			pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "runId mismatch"})
			continue
		}

		switch msgType {
		case "ping":
			pushRunWS(writeCh, runWSOutbound{Type: "pong"})
		case "send":
			msg := strings.TrimSpace(in.Message)
			if msg == "" {
				pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "message is required"})
				continue
			}
			_, turn, err := h.svc.Send(runID, msg)
			if err != nil {
				pushRunWS(writeCh, runWSOutbound{Type: "error", Code: wsErrorCode(err), Message: err.Error()})
				continue
			}
			pushRunWS(writeCh, runWSOutbound{Type: "send_ack", RunID: runID, Turn: turn})
		case "close":
			if err := h.svc.Close(runID); err != nil {
				pushRunWS(writeCh, runWSOutbound{Type: "error", Code: wsErrorCode(err), Message: err.Error()})
				continue
			}
			pushRunWS(writeCh, runWSOutbound{Type: "close_ack", RunID: runID, Closed: true})
		default:
			pushRunWS(writeCh, runWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

func wsErrorCode(err error) string {
	return connect.CodeOf(toConnectError(err)).String()
}

func pushRunWS(writeCh chan runWSOutbound, out runWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
