package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"precinct/internal/config"
)

// Pinger reports whether the database answers
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConfigHandler serves public configuration and the health check
type ConfigHandler struct {
	config *config.Config
	db     Pinger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, db Pinger) *ConfigHandler {
	return &ConfigHandler{config: cfg, db: db}
}

// GetAppConfig returns the public app configuration for clients
// @Summary Get app configuration
// @Description Application name, version and the workflow limits clients display
// @Tags Configuration
// @Produce json
// @Success 200 {object} map[string]interface{} "App configuration"
// @Router /config/app [get]
func (h *ConfigHandler) GetAppConfig(w http.ResponseWriter, r *http.Request) {
	appConfig := map[string]interface{}{
		"name":                   h.config.App.Name,
		"version":                h.config.App.Version,
		"max_cadet_rejections":   h.config.Workflow.MaxCadetRejections,
		"intensive_pursuit_days": h.config.Workflow.IntensivePursuitDays,
		"reward_unit":            h.config.Workflow.RewardUnit,
	}
	respondWithJSON(w, http.StatusOK, appConfig)
}

// Health reports service and database health
// @Summary Health check
// @Tags Configuration
// @Produce json
// @Success 200 {object} map[string]string "Healthy"
// @Failure 503 {object} map[string]string "Database unreachable"
// @Router /health [get]
func (h *ConfigHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "error"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": h.config.App.Version})
}
