package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"sitegen/internal/gateway/handler"
	"sitegen/internal/gateway/handler/rpc"
	"sitegen/internal/gateway/middleware"
)

func NewMux(
	generationHandler *rpc.GenerationHandler,
	artifactHandler *handler.ArtifactHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS)

	// RPC Handlers
	path, h := rpc.NewGenerationServiceHandler(generationHandler)
	r.Mount(path, h)
	r.Get("/ws/runs", generationHandler.HandleRunWS)

	// Downloads
	artifactHandler.RegisterRoutes(r)

	return r
}
