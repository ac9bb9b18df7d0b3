package llm

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log"
	"strings"
	"testing"
	"time"

	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/tester"
)

// spy records when calls reach the inner client.
type spyClient struct {
	opens []time.Time
	sends []time.Time
	fail  error
}

func (s *spyClient) Name() string { return "spy" }
func (s *spyClient) Close() error { return nil }
func (s *spyClient) OpenSession(ctx context.Context, req llmclient.SessionRequest) (llmclient.SessionHandle, error) {
	s.opens = append(s.opens, time.Now())
	return &spyHandle{c: s}, nil
}

type spyHandle struct{ c *spyClient }

func (h *spyHandle) Close() error { return nil }
func (h *spyHandle) SendAndStream(ctx context.Context, prompt string) iter.Seq2[llmclient.Fragment, error] {
	return func(yield func(llmclient.Fragment, error) bool) {
		h.c.sends = append(h.c.sends, time.Now())
		if !yield(llmclient.Fragment{Text: "a"}, nil) {
			return
		}
		if h.c.fail != nil {
			yield(llmclient.Fragment{}, h.c.fail)
			return
		}
		yield(llmclient.Fragment{Text: "b"}, nil)
	}
}

func drain(h llmclient.SessionHandle, prompt string) (string, error) {
	var b strings.Builder
	for frag, err := range h.SendAndStream(context.Background(), prompt) {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag.Text)
	}
	return b.String(), nil
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next llmclient.SessionClient) llmclient.SessionClient {
			order = append(order, name)
			return next
		}
	}
	Wrap(&spyClient{}, mk("A"), mk("B"))
	// B wraps first so that A ends up outermost.
	tester.Eq(t, order, []string{"B", "A"})
}

func TestRateLimit_SpacesTurns(t *testing.T) {
	spy := &spyClient{}
	cli := Wrap(spy, RateLimit(20, 1))
	t.Cleanup(func() { _ = cli.Close() })

	h, err := cli.OpenSession(context.Background(), llmclient.SessionRequest{})
	tester.NoErr(t, err)
	_, err = drain(h, "one")
	tester.NoErr(t, err)
	_, err = drain(h, "two")
	tester.NoErr(t, err)

	tester.Eq(t, len(spy.sends), 2)
	gap := spy.sends[1].Sub(spy.opens[0])
	tester.True(t, gap >= 80*time.Millisecond, "expected two refills between open and second turn, got "+gap.String())
}

func TestRateLimit_CanceledContext(t *testing.T) {
	cli := Wrap(&spyClient{}, RateLimit(0.001, 1))
	t.Cleanup(func() { _ = cli.Close() })

	_, err := cli.OpenSession(context.Background(), llmclient.SessionRequest{})
	tester.NoErr(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cli.OpenSession(ctx, llmclient.SessionRequest{})
	tester.True(t, errors.Is(err, context.Canceled))
}

func TestRateLimitFromEnv_Disabled(t *testing.T) {
	t.Setenv("SITEGEN_TEST_RPS", "")
	cli := Wrap(&spyClient{}, RateLimitFromEnv("SITEGEN_TEST"))
	rl, ok := cli.(*rateLimited)
	tester.True(t, ok)
	tester.True(t, rl.rl == nil)
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	spy := &spyClient{fail: errors.New("reset by peer")}
	cli := Wrap(spy, WithLogging(log.New(&buf, "", 0)))

	h, err := cli.OpenSession(context.Background(), llmclient.SessionRequest{ResponseMIMEType: "text/plain"})
	tester.NoErr(t, err)
	text, err := drain(h, "hello")
	tester.Eq(t, text, "a")
	tester.True(t, err != nil)

	out := buf.String()
	tester.True(t, strings.Contains(out, "LLM open session (spy)"), out)
	tester.True(t, strings.Contains(out, "LLM stream request (spy): 5 bytes"), out)
	tester.True(t, strings.Contains(out, "reset by peer"), out)
}

func TestOpen_WrapsCatalogClient(t *testing.T) {
	t.Setenv("LLM_RPS", "")
	t.Setenv("FAKE_RPS", "")
	var buf bytes.Buffer
	cli, err := Open(context.Background(), llmclient.DefaultCatalog(llmclient.Credentials{}), "fake", "", log.New(&buf, "", 0))
	tester.NoErr(t, err)
	tester.Eq(t, cli.Name(), "FakeLLM")

	h, err := cli.OpenSession(context.Background(), llmclient.SessionRequest{})
	tester.NoErr(t, err)
	out, err := drain(h, "Build a bakery site")
	tester.NoErr(t, err)
	tester.True(t, strings.Contains(out, "Build a bakery site"), out)
	tester.True(t, strings.Contains(buf.String(), "LLM open session (FakeLLM)"), buf.String())

	_, err = Open(context.Background(), llmclient.DefaultCatalog(llmclient.Credentials{}), "nope", "", nil)
	tester.True(t, errors.Is(err, llmclient.ErrUnknownProvider), err)
}
