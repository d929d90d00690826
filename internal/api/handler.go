// Package api provides HTTP handlers for the simulation API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/arthshield/fraudlabs/internal/content"
	"github.com/arthshield/fraudlabs/internal/engine"
	"github.com/arthshield/fraudlabs/internal/store"
)

// Handler provides common dependencies for all API handlers.
type Handler struct {
	repo     store.Repository
	registry *engine.Registry
	catalog  *content.Catalog
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, registry *engine.Registry, catalog *content.Catalog) *Handler {
	return &Handler{
		repo:     repo,
		registry: registry,
		catalog:  catalog,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
