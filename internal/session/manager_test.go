package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitegen/internal/generation"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/siteconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRequest() generation.Request {
	cfg := siteconfig.Default()
	return generation.Compose(cfg, generation.Resolve(cfg))
}

func jsonRequest() generation.Request {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputJSON
	return generation.Compose(cfg, generation.Resolve(cfg))
}

// drain reads every result until the channel closes.
func drain(t *testing.T, ch <-chan generation.Result) []generation.Result {
	t.Helper()
	var out []generation.Result
	timeout := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-timeout:
			t.Fatal("timed out waiting for results")
		}
	}
}

func TestManager_FirstTurnStreamsAndCommits(t *testing.T) {
	cli := &scriptedClient{turns: []scriptedTurn{{frags: texts("## Ho", "me", "\nWelcome")}}}
	m := NewManager(cli)
	req := textRequest()

	ch, err := m.Start(context.Background(), req)
	require.NoError(t, err)
	res := drain(t, ch)

	require.Len(t, res, 4)
	assert.Equal(t, "## Ho", res[0].Freeform)
	assert.True(t, res[0].Streaming)
	assert.Equal(t, "## Home", res[1].Freeform)
	final := res[3]
	assert.False(t, final.Streaming)
	assert.Equal(t, generation.ResultFreeform, final.Kind)
	assert.Equal(t, "## Home\nWelcome", final.Freeform)

	require.Equal(t, Active, m.State())
	require.False(t, m.InFlight())
	require.Equal(t, []generation.Turn{
		{Role: generation.RoleUser, Text: req.TurnPrompt},
		{Role: generation.RoleModel, Text: "## Home\nWelcome"},
	}, m.History())

	// Session constraints come from the resolved policy.
	require.Equal(t, "text/plain", cli.reqs[0].ResponseMIMEType)
	require.Equal(t, req.SystemInstruction, cli.reqs[0].SystemInstruction)
	require.Equal(t, req.TurnPrompt, cli.prompts[0])
}

func TestManager_StructuredTurnDecodes(t *testing.T) {
	cli := &scriptedClient{turns: []scriptedTurn{
		{frags: texts(`[{"path":"index.html",`, `"content":"<p>x</p>"}]`)},
		{frags: texts(`[{"path":"index.html"}]`)},
	}}
	m := NewManager(cli)
	ch, err := m.Start(context.Background(), jsonRequest())
	require.NoError(t, err)
	res := drain(t, ch)
	final := res[len(res)-1]
	require.Equal(t, generation.ResultArtifacts, final.Kind)
	assert.Equal(t, []generation.Artifact{{Path: "index.html", Content: "<p>x</p>"}}, final.Artifacts)
	require.NotNil(t, cli.reqs[0].Schema)

	// A decode failure is a result-level error; the session stays usable.
	ch, err = m.SendTurn(context.Background(), "add an about page")
	require.NoError(t, err)
	res = drain(t, ch)
	final = res[len(res)-1]
	require.Equal(t, generation.ResultError, final.Kind)
	assert.Equal(t, generation.StructuredDecodeFailure, final.Err.Kind)
	assert.Equal(t, `[{"path":"index.html"}]`, final.Raw)
	require.Equal(t, Active, m.State())
	require.Equal(t, 4, len(m.History()))
}

func TestManager_ConcurrentSendTurnOneAccepted(t *testing.T) {
	gate := make(chan struct{})
	cli := &scriptedClient{turns: []scriptedTurn{
		{frags: texts("first")},
		{frags: texts("second"), gate: gate},
	}}
	m := NewManager(cli)
	ch, err := m.Start(context.Background(), textRequest())
	require.NoError(t, err)
	drain(t, ch)

	ch1, err1 := m.SendTurn(context.Background(), "refine A")
	ch2, err2 := m.SendTurn(context.Background(), "refine B")

	require.NoError(t, err1)
	require.Error(t, err2)
	assert.Nil(t, ch2)
	assert.True(t, IsRejected(err2))
	assert.True(t, errors.Is(err2, generation.ErrTurnInFlight))

	close(gate)
	res := drain(t, ch1)
	assert.Equal(t, "second", res[len(res)-1].Freeform)
	require.Equal(t, []string{textRequest().TurnPrompt, "refine A"}, cli.prompts)
	require.Equal(t, 4, len(m.History()))
}

func TestManager_CloseThenSendRejects(t *testing.T) {
	cli := &scriptedClient{turns: []scriptedTurn{{frags: texts("ok")}}}
	m := NewManager(cli)
	ch, err := m.Start(context.Background(), textRequest())
	require.NoError(t, err)
	drain(t, ch)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.Equal(t, Closed, m.State())
	require.Equal(t, 1, cli.closed)

	for i := 0; i < 3; i++ {
		_, err := m.SendTurn(context.Background(), "more")
		require.Error(t, err)
		assert.Equal(t, generation.InvalidCallSequence, generation.KindOf(err))
		assert.True(t, errors.Is(err, generation.ErrSessionClosed))
	}
}

func TestManager_SendBeforeStartRejects(t *testing.T) {
	m := NewManager(&scriptedClient{})
	_, err := m.SendTurn(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, generation.ErrNotActive))
	require.Equal(t, Idle, m.State())
}

func TestManager_OpenFailure(t *testing.T) {
	m := NewManager(&scriptedClient{openErr: errors.New("dial tcp: refused")})
	ch, err := m.Start(context.Background(), textRequest())
	require.Error(t, err)
	assert.Nil(t, ch)
	assert.Equal(t, generation.SessionOpenFailure, generation.KindOf(err))
	require.Equal(t, Errored, m.State())
	require.Equal(t, 0, len(m.History()))

	_, err = m.SendTurn(context.Background(), "hi")
	assert.True(t, errors.Is(err, generation.ErrNotActive))
	_, err = m.Start(context.Background(), textRequest())
	assert.True(t, errors.Is(err, generation.ErrStarted))
}

func TestManager_TransportFailureRollsBackTurn(t *testing.T) {
	cli := &scriptedClient{turns: []scriptedTurn{
		{frags: texts("first")},
		{frags: texts("par", "tial"), err: errors.New("stream reset")},
		{frags: texts("retry ok")},
	}}
	m := NewManager(cli)
	ch, err := m.Start(context.Background(), textRequest())
	require.NoError(t, err)
	drain(t, ch)
	before := m.History()

	ch, err = m.SendTurn(context.Background(), "refine")
	require.NoError(t, err)
	res := drain(t, ch)
	final := res[len(res)-1]
	require.Equal(t, generation.ResultError, final.Kind)
	assert.Equal(t, generation.StreamTransportFailure, final.Err.Kind)
	assert.Empty(t, final.Freeform, "partial text must not be published as final")
	for _, r := range res[:len(res)-1] {
		assert.True(t, r.Streaming)
	}
	require.Equal(t, before, m.History())
	require.Equal(t, Active, m.State())

	// The session accepts a further turn.
	ch, err = m.SendTurn(context.Background(), "refine again")
	require.NoError(t, err)
	res = drain(t, ch)
	assert.Equal(t, "retry ok", res[len(res)-1].Freeform)
}

func TestManager_CancelDoesNotCommit(t *testing.T) {
	gate := make(chan struct{})
	cli := &scriptedClient{turns: []scriptedTurn{{frags: texts("half"), gate: gate}}}
	m := NewManager(cli)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Start(ctx, textRequest())
	require.NoError(t, err)
	<-ch // first partial
	cancel()
	res := drain(t, ch)
	for _, r := range res {
		assert.False(t, r.Kind == generation.ResultFreeform && !r.Streaming, "no final freeform result after cancel")
	}
	require.Equal(t, 0, len(m.History()))
	require.False(t, m.InFlight())
}

func TestManager_CompletedStreamCommitsDespiteLateCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cli := &scriptedClient{turns: []scriptedTurn{{frags: texts("all ", "of it"), after: cancel}}}
	m := NewManager(cli)

	ch, err := m.Start(ctx, textRequest())
	require.NoError(t, err)
	drain(t, ch)

	require.Equal(t, []generation.Turn{
		{Role: generation.RoleUser, Text: textRequest().TurnPrompt},
		{Role: generation.RoleModel, Text: "all of it"},
	}, m.History())
	require.False(t, m.InFlight())
	require.Equal(t, Active, m.State())
}

func TestManager_CloseCancelsInFlightTurn(t *testing.T) {
	gate := make(chan struct{})
	cli := &scriptedClient{turns: []scriptedTurn{{frags: texts("x"), gate: gate}}}
	m := NewManager(cli)
	ch, err := m.Start(context.Background(), textRequest())
	require.NoError(t, err)
	<-ch

	require.NoError(t, m.Close())
	drain(t, ch)
	require.Equal(t, 0, len(m.History()))
	require.Equal(t, Closed, m.State())
}

func TestManager_SearchCitations(t *testing.T) {
	cite := generation.Citation{URI: "https://trends.example", Title: "Trends"}
	cli := &scriptedClient{turns: []scriptedTurn{{frags: []llmclient.Fragment{
		{Text: "answer"},
		{Citations: []generation.Citation{cite}},
	}}}}
	cfg := siteconfig.Default()
	cfg.EnableGoogleSearch = true
	cfg.OutputMode = siteconfig.OutputJSON

	m := NewManager(cli)
	ch, err := m.Start(context.Background(), generation.Compose(cfg, generation.Resolve(cfg)))
	require.NoError(t, err)
	res := drain(t, ch)
	final := res[len(res)-1]
	assert.Equal(t, generation.ResultFreeform, final.Kind)
	assert.Equal(t, []generation.Citation{cite}, final.Citations)
	assert.Equal(t, []generation.Tool{generation.ToolGoogleSearch}, cli.reqs[0].Tools)
	assert.Nil(t, cli.reqs[0].Schema)
}
