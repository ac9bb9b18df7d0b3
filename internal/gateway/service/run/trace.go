package run

import (
	"sync"
	"time"
)

// TraceLogger keeps a per-run log of lifecycle stages for GetRun.
type TraceLogger struct {
	mu     sync.RWMutex
	events map[string][]map[string]any
}

func NewTraceLogger() *TraceLogger {
	return &TraceLogger{
		events: make(map[string][]map[string]any),
	}
}

func (l *TraceLogger) Append(runID, stage string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	evt := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		evt[k] = v
	}
	evt["run_id"] = runID
	evt["stage"] = stage
	if _, ok := evt["timestamp"]; !ok {
		evt["timestamp"] = time.Now().Format(time.RFC3339Nano)
	}
	l.events[runID] = append(l.events[runID], evt)
}

func (l *TraceLogger) Read(runID string) []map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	events := l.events[runID]
	out := make([]map[string]any, len(events))
	copy(out, events)
	return out
}

func (l *TraceLogger) Forget(runID string) {
	l.mu.Lock()
	delete(l.events, runID)
	l.mu.Unlock()
}
