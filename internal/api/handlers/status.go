package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serverName    = "Roulette Tracker Prediction Server"
	serverVersion = "1.0.0"
)

// StatusHandler serves the root status route
type StatusHandler struct{}

// NewStatusHandler creates a status handler
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

// Root reports server identity and liveness
func (h *StatusHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server":  serverName,
		"version": serverVersion,
		"status":  "ok",
	})
}
