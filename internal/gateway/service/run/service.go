package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"sitegen/internal/generation"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
	"sitegen/internal/gateway/repository/transcript"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/session"
	"sitegen/internal/siteconfig"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	// MaxRuns caps live runs; the least recently started run is closed first.
	MaxRuns int
	// TTL closes runs that saw no new turn for this long.
	TTL time.Duration
}

func DefaultOptions() Options {
	return Options{MaxRuns: 256, TTL: 30 * time.Minute}
}

// Service owns all live generation runs.
type Service struct {
	client      llmclient.SessionClient
	artifacts   artifactrepo.Store
	transcripts transcript.Store
	runs        *expirable.LRU[string, *Run]
	trace       *TraceLogger
}

// New creates a run service. artifacts and transcripts may be nil to skip
// persistence.
func New(client llmclient.SessionClient, artifacts artifactrepo.Store, transcripts transcript.Store, opts Options) *Service {
	def := DefaultOptions()
	if opts.MaxRuns <= 0 {
		opts.MaxRuns = def.MaxRuns
	}
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	s := &Service{
		client:      client,
		artifacts:   artifacts,
		transcripts: transcripts,
		trace:       NewTraceLogger(),
	}
	s.runs = expirable.NewLRU[string, *Run](opts.MaxRuns, func(id string, r *Run) {
		if err := r.Close(); err != nil {
			log.Printf("run %s: close on evict: %v", id, err)
		}
		s.trace.Forget(id)
	}, opts.TTL)
	return s
}

func (s *Service) Artifacts() artifactrepo.Store { return s.artifacts }

// Start validates cfg, opens a session and streams the first turn.
func (s *Service) Start(ctx context.Context, cfg siteconfig.Config) (*Run, error) {
	if err := siteconfig.Validate(cfg); err != nil {
		return nil, err
	}
	p := generation.Resolve(cfg)
	req := generation.Compose(cfg, p)

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	// open within the caller's deadline, but let turns outlive the request
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	mgr := session.NewManager(s.client)
	ch, err := mgr.Start(runCtx, req)
	if err != nil {
		cancel()
		log.Printf("run %s: start failed: %v", id, err)
		return nil, err
	}
	if !stop() {
		_ = mgr.Close()
		cancel()
		return nil, generation.NewError(generation.SessionOpenFailure, "start", ctx.Err())
	}

	r := &Run{
		ID:          id,
		Config:      cfg.Clone(),
		Request:     req,
		CreatedAt:   time.Now(),
		mgr:         mgr,
		ctx:         runCtx,
		cancel:      cancel,
		artifacts:   s.artifacts,
		transcripts: s.transcripts,
		trace:       s.trace,
		subs:        make(map[int]chan Event),
	}
	s.trace.Append(id, "started", map[string]any{
		"provider":    s.client.Name(),
		"output_mode": string(p.OutputMode),
		"tools":       len(p.Tools),
		"overrides":   siteconfig.Overrides(cfg),
	})
	log.Printf("run %s: started (%s, mode=%s)", id, s.client.Name(), p.OutputMode)

	r.mu.Lock()
	r.beginLocked(ch)
	r.mu.Unlock()
	s.runs.Add(id, r)
	return r, nil
}

func (s *Service) Get(runID string) (*Run, bool) {
	return s.runs.Peek(strings.TrimSpace(runID))
}

// Send starts a refinement turn on a live run.
func (s *Service) Send(runID, msg string) (*Run, int, error) {
	r, ok := s.Get(runID)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	turn, err := r.Send(msg)
	if err != nil {
		return r, 0, err
	}
	s.runs.Add(r.ID, r)
	return r, turn, nil
}

// Close closes and forgets a live run.
func (s *Service) Close(runID string) error {
	runID = strings.TrimSpace(runID)
	r, ok := s.runs.Peek(runID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	s.runs.Remove(runID)
	// eviction already closed it; Close is idempotent
	return r.Close()
}

// Transcript returns the persisted turns of a run, live or not.
func (s *Service) Transcript(ctx context.Context, runID string) ([]transcript.Entry, error) {
	if s.transcripts == nil {
		return nil, transcript.ErrNotFound
	}
	return s.transcripts.List(ctx, runID)
}

// Shutdown closes every live run.
func (s *Service) Shutdown() {
	s.runs.Purge()
}
