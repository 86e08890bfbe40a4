package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/logging"
	"github.com/rouletted/roulette-tracker/internal/physics"
)

// PredictHandler serves prediction requests
type PredictHandler struct{}

// NewPredictHandler creates a predict handler
func NewPredictHandler() *PredictHandler {
	return &PredictHandler{}
}

// PredictMarks computes left and right pocket predictions from timing marks
func (h *PredictHandler) PredictMarks(c *gin.Context) {
	var req physics.MarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := physics.ComputePredictions(&req)
	if err != nil {
		var vErr *physics.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
			return
		}
		logging.L().Error("prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
