package backup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rouletted/roulette-tracker/internal/database"
)

func newTestScheduleStore(t *testing.T) *ScheduleStore {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewScheduleStore(db.DB)
}

func TestScheduleLifecycle(t *testing.T) {
	store := newTestScheduleStore(t)

	next := time.Now().UTC().Add(time.Hour)
	created, err := store.Create(&BackupSchedule{
		Schedule:       "0 3 * * *",
		Destination:    &DestinationConfig{Type: "local", Path: "/var/backups/roulette"},
		RetentionCount: 7,
		Enabled:        true,
		NextRun:        &next,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("schedule was not assigned an ID")
	}

	schedules, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("List returned %d schedules", len(schedules))
	}
	if schedules[0].Destination.Path != "/var/backups/roulette" {
		t.Errorf("destination did not round-trip: %+v", schedules[0].Destination)
	}
	if schedules[0].RetentionCount != 7 {
		t.Errorf("retention = %d, want 7", schedules[0].RetentionCount)
	}

	if err := store.Delete(created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(created.ID); err == nil {
		t.Error("deleting a removed schedule should fail")
	}
}

func TestListDue(t *testing.T) {
	store := newTestScheduleStore(t)

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due, err := store.Create(&BackupSchedule{
		Schedule: "@daily", Enabled: true, NextRun: &past,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(&BackupSchedule{
		Schedule: "@daily", Enabled: true, NextRun: &future,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(&BackupSchedule{
		Schedule: "@daily", Enabled: false, NextRun: &past,
	}); err != nil {
		t.Fatal(err)
	}

	schedules, err := store.ListDue(now)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(schedules) != 1 || schedules[0].ID != due.ID {
		t.Fatalf("ListDue = %+v, want only schedule %d", schedules, due.ID)
	}

	// After recording a run in the future nothing is due.
	if err := store.UpdateRuns(due.ID, now, future); err != nil {
		t.Fatalf("UpdateRuns failed: %v", err)
	}
	schedules, err = store.ListDue(now)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(schedules) != 0 {
		t.Errorf("schedule still due after UpdateRuns: %+v", schedules)
	}
}

func TestComputeNextRun(t *testing.T) {
	// The cron parser evaluates schedules in local time.
	from := time.Date(2025, 6, 1, 12, 30, 0, 0, time.Local)

	next, err := ComputeNextRun("0 3 * * *", from)
	if err != nil {
		t.Fatalf("ComputeNextRun failed: %v", err)
	}
	want := time.Date(2025, 6, 2, 3, 0, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}

	if _, err := ComputeNextRun("not a cron expr", from); err == nil {
		t.Error("expected error for invalid expression")
	}
}
