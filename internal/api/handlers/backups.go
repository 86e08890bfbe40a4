package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/backup"
)

// BackupHandler serves backup and schedule management requests
type BackupHandler struct {
	manager *backup.Manager
	store   *backup.ScheduleStore
}

// NewBackupHandler creates a backup handler
func NewBackupHandler(manager *backup.Manager, store *backup.ScheduleStore) *BackupHandler {
	return &BackupHandler{
		manager: manager,
		store:   store,
	}
}

// CreateBackup runs a backup immediately
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	var req struct {
		Destination *backup.DestinationConfig `json:"destination"`
	}
	// Body is optional; an empty request backs up to the local backup dir.
	_ = c.ShouldBindJSON(&req)

	createdBy := "api"
	if username, exists := c.Get("username"); exists {
		createdBy = username.(string)
	}

	b, err := h.manager.CreateBackup(req.Destination, createdBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Backup failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, b)
}

// ListBackups returns all recorded backups
func (h *BackupHandler) ListBackups(c *gin.Context) {
	backups, err := h.manager.ListBackups()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"backups": backups})
}

// DeleteBackup removes a backup
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid backup ID"})
		return
	}

	if err := h.manager.DeleteBackup(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup deleted"})
}

// CreateSchedule registers a recurring backup
func (h *BackupHandler) CreateSchedule(c *gin.Context) {
	var req struct {
		Schedule       string                    `json:"schedule" binding:"required"`
		Destination    *backup.DestinationConfig `json:"destination"`
		RetentionCount int                       `json:"retention_count"`
		Enabled        *bool                     `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nextRun, err := backup.ComputeNextRun(req.Schedule, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cron expression"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	schedule, err := h.store.Create(&backup.BackupSchedule{
		Schedule:       req.Schedule,
		Destination:    req.Destination,
		RetentionCount: req.RetentionCount,
		Enabled:        enabled,
		NextRun:        &nextRun,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule"})
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// ListSchedules returns all backup schedules
func (h *BackupHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// UpdateSchedule toggles a schedule on or off
func (h *BackupHandler) UpdateSchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SetEnabled(id, *req.Enabled); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule updated"})
}

// DeleteSchedule removes a schedule
func (h *BackupHandler) DeleteSchedule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted"})
}
