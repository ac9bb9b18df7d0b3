package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Object is one stored run file.
type Object struct {
	Path        string
	Content     []byte
	ContentType string
}

// Store defines operations for persisting run artifacts.
type Store interface {
	Put(ctx context.Context, runID string, obj Object) error
	Get(ctx context.Context, runID, path string) (Object, error)
	// GetURL returns a direct download URL, or "" when the backend serves
	// content only through Get.
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

const defaultContentType = "application/octet-stream"

func normalizeKey(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return runID, path, nil
}

func normalizeRun(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	return runID, nil
}
