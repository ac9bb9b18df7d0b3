package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"sitegen/internal/generation"
	"sitegen/internal/gateway/handler/rpc"
	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
	"sitegen/internal/siteconfig"
)

func main() {
	configPath := flag.String("config", "", "site config JSON (form defaults when empty)")
	provider := flag.String("provider", "", "LLM provider: gemini, openai or fake")
	model := flag.String("model", "", "model id (provider default when empty)")
	outDir := flag.String("out", "", "write each turn's files under this directory")
	server := flag.String("server", "", "gateway base URL; runs in-process when empty")
	printPrompt := flag.Bool("print-prompt", false, "print the composed prompt and exit")
	verbose := flag.Bool("v", false, "log LLM requests to stderr")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := siteconfig.Validate(cfg); err != nil {
		log.Fatal(err)
	}
	if *printPrompt {
		req := generation.Compose(cfg, generation.Resolve(cfg))
		fmt.Printf("# system\n%s\n\n# prompt\n%s\n", req.SystemInstruction, req.TurnPrompt)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sess conversation
	if *server != "" {
		sess = newRemoteConversation(rpc.NewGenerationClient(http.DefaultClient, *server), cfg)
	} else {
		name := firstNonEmpty(*provider, os.Getenv("LLM_PROVIDER"))
		if name == "" {
			name = "gemini"
			if os.Getenv("GEMINI_API_KEY") == "" {
				name = "fake"
			}
		}
		var logger *log.Logger
		if *verbose {
			logger = log.New(os.Stderr, "", log.LstdFlags)
		}
		cat := llmclient.DefaultCatalog(llmclient.Credentials{
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		})
		cli, err := llm.Open(ctx, cat, name, firstNonEmpty(*model, os.Getenv("LLM_MODEL")), logger)
		if err != nil {
			log.Fatal(err)
		}
		defer cli.Close()
		sess = newLocalConversation(cli, cfg)
	}

	r := &repl{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, outDir: *outDir}
	if err := r.run(ctx, sess); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (siteconfig.Config, error) {
	cfg := siteconfig.Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// fields missing from the file keep their form defaults
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
