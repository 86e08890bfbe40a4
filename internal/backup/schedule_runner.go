package backup

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleRunner executes scheduled backups.
// It polls the database for due schedules.
type ScheduleRunner struct {
	manager      *Manager
	retentionMgr *RetentionManager
	store        *ScheduleStore
	interval     time.Duration
}

// NewScheduleRunner creates a runner over the given database and data
// directories.
func NewScheduleRunner(dbConn *sql.DB, dataDir, backupDir string) *ScheduleRunner {
	return &ScheduleRunner{
		manager:      NewManager(dbConn, dataDir, backupDir),
		retentionMgr: NewRetentionManager(dbConn),
		store:        NewScheduleStore(dbConn),
		interval:     30 * time.Second,
	}
}

// Manager exposes the underlying backup manager
func (sr *ScheduleRunner) Manager() *Manager {
	return sr.manager
}

// Store exposes the underlying schedule store
func (sr *ScheduleRunner) Store() *ScheduleStore {
	return sr.store
}

// Start launches the polling loop
func (sr *ScheduleRunner) Start(ctx context.Context) {
	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Printf("[BackupSchedule] Stopping schedule runner")
				return
			case <-ticker.C:
				sr.runDueSchedules()
			}
		}
	}()
}

func (sr *ScheduleRunner) runDueSchedules() {
	now := time.Now()
	schedules, err := sr.store.ListDue(now)
	if err != nil {
		log.Printf("[BackupSchedule] Failed to list due schedules: %v", err)
		return
	}

	for _, schedule := range schedules {
		nextRun, err := ComputeNextRun(schedule.Schedule, now)
		if err != nil {
			log.Printf("[BackupSchedule] Invalid schedule %d: %v", schedule.ID, err)
			continue
		}

		if err := sr.store.UpdateRuns(schedule.ID, now, nextRun); err != nil {
			log.Printf("[BackupSchedule] Failed to update run times: %v", err)
		}

		go sr.executeSchedule(schedule)
	}
}

func (sr *ScheduleRunner) executeSchedule(schedule BackupSchedule) {
	if _, err := sr.manager.CreateBackup(schedule.Destination, "scheduler"); err != nil {
		log.Printf("[BackupSchedule] Backup failed for schedule %d: %v", schedule.ID, err)
		return
	}

	if schedule.RetentionCount > 0 {
		destCfg := schedule.Destination
		if destCfg == nil || destCfg.Type == "" {
			destCfg = &DestinationConfig{Type: "local", Path: sr.manager.backupDir}
		}
		if err := sr.retentionMgr.EnforceRetention(destCfg, schedule.RetentionCount); err != nil {
			log.Printf("[BackupSchedule] Retention enforcement failed for schedule %d: %v", schedule.ID, err)
		}
	}
}

// ComputeNextRun evaluates a cron expression against a reference time
func ComputeNextRun(schedule string, from time.Time) (time.Time, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	parsed, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}

	return parsed.Next(from), nil
}
