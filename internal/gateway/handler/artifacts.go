package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitegen/internal/export"
	artifactrepo "sitegen/internal/gateway/repository/artifact"
)

// ArtifactHandler serves files stored for finished turns.
type ArtifactHandler struct {
	store artifactrepo.Store
}

func NewArtifactHandler(store artifactrepo.Store) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

func (h *ArtifactHandler) RegisterRoutes(r chi.Router) {
	r.Route("/runs/{runID}/artifacts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/*", h.Get)
	})
}

func (h *ArtifactHandler) List(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	paths, err := h.store.List(r.Context(), runID)
	if err != nil {
		log.Printf("artifacts: list %s: %v", runID, err)
		http.Error(w, "failed to list artifacts", http.StatusInternalServerError)
		return
	}
	if len(paths) == 0 {
		http.Error(w, "run has no artifacts", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"files":  paths,
	})
}

func (h *ArtifactHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	path, err := export.CleanPath(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if url, err := h.store.GetURL(r.Context(), runID, path); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	obj, err := h.store.Get(r.Context(), runID, path)
	if errors.Is(err, artifactrepo.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("artifacts: get %s/%s: %v", runID, path, err)
		http.Error(w, "failed to read artifact", http.StatusInternalServerError)
		return
	}
	ct := obj.ContentType
	if ct == "" {
		ct = export.ContentType(path)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Content)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
