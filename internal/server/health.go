package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// HealthHandler reports service liveness and configuration presence.
type HealthHandler struct {
	store  Directory
	config *shared.Config
	logger *log.Logger
}

func NewHealthHandler(d Directory, cfg *shared.Config, logger *log.Logger) *HealthHandler {
	return &HealthHandler{store: d, config: cfg, logger: logger}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/api/health", "/api/env-check"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/health":
		h.health(w, r)
	case "/api/env-check":
		h.envCheck(w, r)
	default:
		fail(w, http.StatusNotFound, "not found")
	}
}

// health probes the content store with a cheap query.
func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("store ping failed", "err", err)
		respond(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": "unreachable"})
		return
	}
	respond(w, http.StatusOK, map[string]any{"store": "ok"})
}

// envCheck reports which settings are present without exposing values.
func (h *HealthHandler) envCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"projectId":   h.config.Store.ProjectID != "",
		"dataset":     h.config.Store.Dataset != "",
		"writeToken":  h.config.Store.WriteToken != "",
		"linkSecret":  h.config.Links.Secret != "",
		"baseUrl":     h.config.Links.BaseURL != "",
		"mailApiKey":  h.config.Mail.APIKey != "",
	})
}
