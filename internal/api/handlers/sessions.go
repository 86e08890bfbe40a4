package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/physics"
	"github.com/rouletted/roulette-tracker/internal/tracker"
	"github.com/rouletted/roulette-tracker/internal/websocket"
)

// SessionHandler serves session and spin tracking requests
type SessionHandler struct {
	store *tracker.Store
	hub   *websocket.Hub
}

// NewSessionHandler creates a session handler
func NewSessionHandler(store *tracker.Store, hub *websocket.Hub) *SessionHandler {
	return &SessionHandler{
		store: store,
		hub:   hub,
	}
}

// CreateSession starts a new tracking session
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		TableName string `json:"table_name"`
		Mode      string `json:"mode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.store.CreateSession(req.Name, req.TableName, req.Mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListSessions returns all sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one session
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.store.GetSession(c.Param("id"))
	if errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession removes a session and its spins
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	err := h.store.DeleteSession(c.Param("id"))
	if errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// RecordSpin records a spin: predictions are computed server-side from
// the submitted marks, and the result is pushed to the live feed.
func (h *SessionHandler) RecordSpin(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		WheelTimes []float64 `json:"wheel_times" binding:"required"`
		BallTimes  []float64 `json:"ball_times" binding:"required"`
		WheelMarks int       `json:"wheel_marks"`
		BallMarks  int       `json:"ball_marks"`
		Direction  string    `json:"direction"`
		Outcome    *int      `json:"outcome"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := physics.ComputePredictions(&physics.MarksRequest{
		WheelTimes: req.WheelTimes,
		BallTimes:  req.BallTimes,
		WheelMarks: req.WheelMarks,
		BallMarks:  req.BallMarks,
	})
	if err != nil {
		var vErr *physics.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}

	if req.Outcome != nil && physics.PocketIndex(*req.Outcome) < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Outcome is not on the wheel"})
		return
	}

	spin := &tracker.Spin{
		SessionID:       sessionID,
		WheelTimes:      req.WheelTimes,
		BallTimes:       req.BallTimes,
		WheelMarks:      req.WheelMarks,
		BallMarks:       req.BallMarks,
		Direction:       req.Direction,
		LeftPrediction:  prediction.LeftPrediction,
		RightPrediction: prediction.RightPrediction,
		Outcome:         req.Outcome,
	}

	recorded, err := h.store.RecordSpin(spin)
	if errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record spin"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(websocket.LiveFeed, websocket.NewMessage("spin_recorded", recorded))
	}

	c.JSON(http.StatusCreated, recorded)
}

// ListSpins returns the spins of a session
func (h *SessionHandler) ListSpins(c *gin.Context) {
	sessionID := c.Param("id")

	if _, err := h.store.GetSession(sessionID); errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	spins, err := h.store.ListSpins(sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list spins"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"spins": spins})
}

// SetOutcome records the observed winning pocket for a spin
func (h *SessionHandler) SetOutcome(c *gin.Context) {
	spinID, err := strconv.ParseInt(c.Param("spin_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid spin ID"})
		return
	}

	var req struct {
		Outcome *int `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.store.SetOutcome(c.Param("id"), spinID, *req.Outcome)
	if errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spin not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Outcome recorded"})
}

// GetStats returns prediction quality for a session
func (h *SessionHandler) GetStats(c *gin.Context) {
	stats, err := h.store.ComputeStats(c.Param("id"))
	if errors.Is(err, tracker.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
