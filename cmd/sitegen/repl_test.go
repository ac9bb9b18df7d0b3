package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sitegen/internal/gateway/handler/rpc"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
	"sitegen/internal/gateway/repository/transcript"
	runsvc "sitegen/internal/gateway/service/run"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/siteconfig"
	"sitegen/internal/tester"
)

func runREPL(t *testing.T, conv conversation, input, outDir string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	r := &repl{in: strings.NewReader(input), out: &out, errOut: &errOut, outDir: outDir}
	tester.NoErr(t, r.run(context.Background(), conv))
	return out.String(), errOut.String()
}

func TestREPLStreamsTurnsAndWritesFiles(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputText
	dir := t.TempDir()
	conv := newLocalConversation(llmclient.NewFakeClient(7, 0), cfg)

	out, _ := runREPL(t, conv, "Use darker colors\n\n/quit\nignored\n", dir)

	tester.True(t, strings.Contains(out, "## Draft 1"), out)
	tester.True(t, strings.Contains(out, "## Draft 2\n\nUse darker colors"), out)
	tester.False(t, strings.Contains(out, "ignored"), out)
	// streamed deltas reassemble without duplication
	tester.Eq(t, strings.Count(out, "- Hero section"), 2)

	md, err := os.ReadFile(filepath.Join(dir, "turn-002", "index.md"))
	tester.NoErr(t, err)
	tester.True(t, strings.HasPrefix(string(md), "## Draft 2"), string(md))
	_, err = os.Stat(filepath.Join(dir, "turn-001", "index.html"))
	tester.NoErr(t, err)
}

func TestREPLStructuredOutput(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputJSON
	dir := t.TempDir()
	conv := newLocalConversation(llmclient.NewFakeClient(0, 0), cfg)

	out, _ := runREPL(t, conv, "", dir)

	tester.True(t, strings.Contains(out, "--- index.html"), out)
	tester.True(t, strings.Contains(out, "--- css/site.css"), out)
	css, err := os.ReadFile(filepath.Join(dir, "turn-001", "css", "site.css"))
	tester.NoErr(t, err)
	tester.Eq(t, string(css), "body { font-family: sans-serif; }\n")
}

func TestREPLRemoteConversation(t *testing.T) {
	svc := runsvc.New(llmclient.NewFakeClient(16, 0), artifactrepo.NewMemoryStore(), transcript.NewMemoryStore(), runsvc.Options{})
	t.Cleanup(svc.Shutdown)
	mux := http.NewServeMux()
	mux.Handle(rpc.NewGenerationServiceHandler(rpc.NewGenerationHandler(svc)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputText
	conv := newRemoteConversation(rpc.NewGenerationClient(srv.Client(), srv.URL), cfg)

	out, _ := runREPL(t, conv, "Add a blog\n", "")

	tester.True(t, strings.Contains(out, "## Draft 1"), out)
	tester.True(t, strings.Contains(out, "## Draft 2\n\nAdd a blog"), out)
	tester.True(t, conv.runID != "", "run id captured from stream")
	_, ok := svc.Get(conv.runID)
	tester.False(t, ok, "run closed when the repl exits")
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.json")
	tester.NoErr(t, os.WriteFile(path, []byte(`{"websiteIdea":"A bakery","outputMode":"json"}`), 0o644))

	cfg, err := loadConfig(path)
	tester.NoErr(t, err)
	tester.Eq(t, cfg.WebsiteIdea, "A bakery")
	tester.Eq(t, cfg.OutputMode, siteconfig.OutputJSON)
	tester.Eq(t, cfg.PrimaryColor, siteconfig.Default().PrimaryColor)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	tester.True(t, err != nil, "missing file")
}
