package app

import (
	"context"
	"fmt"
	"log"

	"sitegen/internal/gateway/config"
	"sitegen/internal/gateway/handler"
	"sitegen/internal/gateway/handler/rpc"
	"sitegen/internal/gateway/server"
	runsvc "sitegen/internal/gateway/service/run"
	"sitegen/internal/llm"
	llmclient "sitegen/internal/llmClient"
)

type App struct {
	server *server.Server
	runs   *runsvc.Service
	client llmclient.SessionClient
	stores *gatewayStores
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	// Dependencies
	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}
	catalog := llmclient.DefaultCatalog(llmclient.Credentials{
		GeminiAPIKey:  cfg.LLM.GeminiAPIKey,
		OpenAIAPIKey:  cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
	})
	client, err := llm.Open(ctx, catalog, cfg.LLM.Provider, cfg.LLM.Model, log.Default())
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	log.Printf("llm provider: %s", client.Name())

	runs := runsvc.New(client, stores.artifact, stores.transcript, runsvc.Options{
		MaxRuns: cfg.Run.MaxRuns,
		TTL:     cfg.Run.TTL,
	})

	generationHandler := rpc.NewGenerationHandler(runs)
	artifactHandler := handler.NewArtifactHandler(stores.artifact)

	// Routing & Server
	mux := server.NewMux(generationHandler, artifactHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		runs:   runs,
		client: client,
		stores: stores,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops accepting requests, then closes live runs and stores.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.runs.Shutdown()
	if cerr := a.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := a.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
