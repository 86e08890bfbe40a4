package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/config"
)

// SettingsHandler exposes the editable slice of the configuration
type SettingsHandler struct {
	cfg        *config.Config
	configPath string
}

type SettingsPayload struct {
	Security config.SecurityConfig `json:"security"`
	Logging  config.LoggingConfig  `json:"logging"`
	Stats    config.StatsConfig    `json:"stats"`
}

type SettingsResponse struct {
	Security        config.SecurityConfig `json:"security"`
	Logging         config.LoggingConfig  `json:"logging"`
	Stats           config.StatsConfig    `json:"stats"`
	RequiresRestart bool                  `json:"requires_restart"`
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{
		cfg:        cfg,
		configPath: config.GetConfigPath(),
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, SettingsResponse{
		Security:        h.cfg.Security,
		Logging:         h.cfg.Logging,
		Stats:           h.cfg.Stats,
		RequiresRestart: true,
	})
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var payload SettingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload.Security.CORS.AllowedOrigins = normalizeList(payload.Security.CORS.AllowedOrigins)
	payload.Security.CORS.AllowedMethods = normalizeList(payload.Security.CORS.AllowedMethods)

	if payload.Stats.RollupInterval <= 0 {
		payload.Stats.RollupInterval = h.cfg.Stats.RollupInterval
	}
	if payload.Stats.SpinRetentionDays <= 0 {
		payload.Stats.SpinRetentionDays = h.cfg.Stats.SpinRetentionDays
	}

	updated := *h.cfg
	updated.Security = payload.Security
	updated.Logging = payload.Logging
	updated.Stats = payload.Stats

	if err := config.Save(&updated, h.configPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings", "details": err.Error()})
		return
	}

	h.cfg.Security = updated.Security
	h.cfg.Logging = updated.Logging
	h.cfg.Stats = updated.Stats

	c.JSON(http.StatusOK, SettingsResponse{
		Security:        h.cfg.Security,
		Logging:         h.cfg.Logging,
		Stats:           h.cfg.Stats,
		RequiresRestart: true,
	})
}

func normalizeList(values []string) []string {
	clean := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	return clean
}
