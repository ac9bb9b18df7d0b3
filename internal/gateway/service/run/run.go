package run

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sitegen/internal/export"
	"sitegen/internal/generation"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
	"sitegen/internal/gateway/repository/transcript"
	"sitegen/internal/session"
	"sitegen/internal/siteconfig"
)

// persistTimeout bounds artifact and transcript writes after a final result.
const persistTimeout = 30 * time.Second

// Event is one result published by a run. Turn numbers start at 1.
type Event struct {
	RunID  string
	Turn   int
	State  session.State
	Result generation.Result
	// Files lists the stored artifact paths of a final result.
	Files []string
}

// Run is one live generation session together with its subscribers.
type Run struct {
	ID        string
	Config    siteconfig.Config
	Request   generation.Request
	CreatedAt time.Time

	mgr         *session.Manager
	ctx         context.Context
	cancel      context.CancelFunc
	artifacts   artifactrepo.Store
	transcripts transcript.Store
	trace       *TraceLogger

	mu        sync.Mutex
	turn      int
	busy      bool
	closed    bool
	persisted int
	latest    *Event
	files     []string
	subs      map[int]chan Event
	nextSub   int
}

// Info is a point-in-time view of a run.
type Info struct {
	ID        string
	State     session.State
	Turn      int
	InFlight  bool
	CreatedAt time.Time
	Policy    generation.Policy
	History   []generation.Turn
	Latest    *Event
	Files     []string
	Trace     []map[string]any
}

func (r *Run) Info() Info {
	r.mu.Lock()
	var latest *Event
	if r.latest != nil {
		ev := cloneEvent(*r.latest)
		latest = &ev
	}
	info := Info{
		ID:        r.ID,
		Turn:      r.turn,
		InFlight:  r.busy,
		CreatedAt: r.CreatedAt,
		Latest:    latest,
		Files:     append([]string(nil), r.files...),
	}
	r.mu.Unlock()

	info.State = r.mgr.State()
	info.Policy = r.mgr.Policy()
	info.History = r.mgr.History()
	info.Trace = r.trace.Read(r.ID)
	return info
}

// Subscribe returns a channel carrying the latest event of the run. A slow
// reader only sees the newest event; the current latest event is replayed
// immediately. The channel closes when the run closes or cancel is called.
func (r *Run) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		if r.latest != nil {
			ch <- cloneEvent(*r.latest)
		}
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	if r.latest != nil {
		ch <- cloneEvent(*r.latest)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
}

// Send starts a refinement turn and returns its number.
func (r *Run) Send(msg string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrSessionClosed)
	}
	if r.busy {
		return 0, generation.NewError(generation.InvalidCallSequence, "send turn", generation.ErrTurnInFlight)
	}
	ch, err := r.mgr.SendTurn(r.ctx, msg)
	if err != nil {
		return 0, err
	}
	return r.beginLocked(ch), nil
}

func (r *Run) beginLocked(ch <-chan generation.Result) int {
	r.turn++
	r.busy = true
	turn := r.turn
	r.trace.Append(r.ID, "turn_started", map[string]any{"turn": turn})
	go r.pump(turn, ch)
	return turn
}

func (r *Run) pump(turn int, ch <-chan generation.Result) {
	var final *generation.Result
	for res := range ch {
		ev := Event{RunID: r.ID, Turn: turn, State: r.mgr.State(), Result: res}
		if res.Final() {
			ev.Files = r.persist(turn, res)
			final = &res
		}
		r.publish(ev)
	}

	fields := map[string]any{"turn": turn}
	switch {
	case final == nil:
		fields["outcome"] = "cancelled"
	case final.Err != nil:
		fields["outcome"] = final.Err.Kind.String()
		fields["error"] = final.Err.Error()
		log.Printf("run %s: turn %d failed: %v", r.ID, turn, final.Err)
	default:
		fields["outcome"] = final.Kind.String()
	}
	r.trace.Append(r.ID, "turn_finished", fields)

	r.mu.Lock()
	if r.turn == turn {
		r.busy = false
	}
	r.mu.Unlock()
}

// persist stores the turn's committed history and exported files.
// The turn stays busy until this returns, so History ends with this turn.
func (r *Run) persist(turn int, res generation.Result) []string {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if r.transcripts != nil {
		hist := r.mgr.History()
		r.mu.Lock()
		from := r.persisted
		r.mu.Unlock()
		for i := from; i < len(hist); i++ {
			if err := r.transcripts.Append(ctx, r.ID, hist[i]); err != nil {
				log.Printf("run %s: append transcript: %v", r.ID, err)
				break
			}
			from = i + 1
		}
		r.mu.Lock()
		r.persisted = from
		r.mu.Unlock()
	}

	if r.artifacts == nil || res.Kind == generation.ResultError {
		return nil
	}
	files, err := export.Files(res)
	if err != nil {
		log.Printf("run %s: export turn %d: %v", r.ID, turn, err)
		return nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := fmt.Sprintf("turns/%03d/%s", turn, f.Path)
		obj := artifactrepo.Object{Path: p, Content: f.Content, ContentType: f.ContentType}
		if err := r.artifacts.Put(ctx, r.ID, obj); err != nil {
			log.Printf("run %s: store %s: %v", r.ID, p, err)
			continue
		}
		paths = append(paths, p)
	}
	r.mu.Lock()
	r.files = paths
	r.mu.Unlock()
	return paths
}

func (r *Run) publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	stored := cloneEvent(ev)
	r.latest = &stored
	// the session accepts a new turn as soon as its final result is out
	if ev.Result.Final() && ev.Turn == r.turn {
		r.busy = false
	}
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cloneEvent(ev)
	}
}

// Close ends the session, cancels any in-flight turn and releases
// subscribers. It is idempotent.
func (r *Run) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
	r.mu.Unlock()

	err := r.mgr.Close()
	r.cancel()
	r.trace.Append(r.ID, "closed", nil)
	return err
}

func (r *Run) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func cloneEvent(ev Event) Event {
	ev.Result = ev.Result.Clone()
	ev.Files = append([]string(nil), ev.Files...)
	return ev
}
