package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// BackupSchedule is a recurring backup defined by a cron expression
type BackupSchedule struct {
	ID             int64              `json:"id"`
	Schedule       string             `json:"schedule"`
	Destination    *DestinationConfig `json:"destination"`
	RetentionCount int                `json:"retention_count"`
	Enabled        bool               `json:"enabled"`
	LastRun        *time.Time         `json:"last_run,omitempty"`
	NextRun        *time.Time         `json:"next_run,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ScheduleStore persists backup schedules
type ScheduleStore struct {
	db *sql.DB
}

// NewScheduleStore creates a schedule store
func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Create inserts a schedule. The first run time must already be set by
// the caller from the cron expression.
func (ss *ScheduleStore) Create(schedule *BackupSchedule) (*BackupSchedule, error) {
	if schedule.Destination == nil {
		schedule.Destination = &DestinationConfig{Type: "local"}
	}

	destJSON, err := json.Marshal(schedule.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to encode destination: %w", err)
	}

	schedule.CreatedAt = time.Now().UTC()
	result, err := ss.db.Exec(`
		INSERT INTO backup_schedules (
			schedule, destination_type, destination_path, destination_config,
			retention_count, enabled, next_run, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, schedule.Schedule, schedule.Destination.Type, schedule.Destination.Path, string(destJSON),
		schedule.RetentionCount, schedule.Enabled, schedule.NextRun, schedule.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	schedule.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

// List returns all schedules
func (ss *ScheduleStore) List() ([]BackupSchedule, error) {
	rows, err := ss.db.Query(`
		SELECT id, schedule, destination_config, retention_count, enabled, last_run, next_run, created_at
		FROM backup_schedules ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ListDue returns enabled schedules whose next run is at or before now
func (ss *ScheduleStore) ListDue(now time.Time) ([]BackupSchedule, error) {
	rows, err := ss.db.Query(`
		SELECT id, schedule, destination_config, retention_count, enabled, last_run, next_run, created_at
		FROM backup_schedules
		WHERE enabled = 1 AND next_run IS NOT NULL AND next_run <= ?
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// UpdateRuns records a schedule's last run and its computed next run
func (ss *ScheduleStore) UpdateRuns(id int64, lastRun, nextRun time.Time) error {
	_, err := ss.db.Exec(`
		UPDATE backup_schedules SET last_run = ?, next_run = ? WHERE id = ?
	`, lastRun, nextRun, id)
	return err
}

// SetEnabled toggles a schedule
func (ss *ScheduleStore) SetEnabled(id int64, enabled bool) error {
	result, err := ss.db.Exec("UPDATE backup_schedules SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("schedule %d not found", id)
	}

	return nil
}

// Delete removes a schedule
func (ss *ScheduleStore) Delete(id int64) error {
	result, err := ss.db.Exec("DELETE FROM backup_schedules WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("schedule %d not found", id)
	}

	return nil
}

func scanSchedules(rows *sql.Rows) ([]BackupSchedule, error) {
	schedules := []BackupSchedule{}
	for rows.Next() {
		var s BackupSchedule
		var destJSON string
		var lastRun, nextRun sql.NullTime
		if err := rows.Scan(&s.ID, &s.Schedule, &destJSON, &s.RetentionCount, &s.Enabled,
			&lastRun, &nextRun, &s.CreatedAt); err != nil {
			return nil, err
		}

		s.Destination = &DestinationConfig{}
		if err := json.Unmarshal([]byte(destJSON), s.Destination); err != nil {
			return nil, fmt.Errorf("corrupt destination for schedule %d: %w", s.ID, err)
		}

		if lastRun.Valid {
			t := lastRun.Time
			s.LastRun = &t
		}
		if nextRun.Valid {
			t := nextRun.Time
			s.NextRun = &t
		}

		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}
