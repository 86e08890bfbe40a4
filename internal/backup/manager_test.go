package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rouletted/roulette-tracker/internal/database"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	base := t.TempDir()
	db, err := database.NewDB(filepath.Join(base, "tracker.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	dataDir := filepath.Join(base, "data")
	backupDir := filepath.Join(dataDir, "backups")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "tracker.db"), []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	return NewManager(db.DB, dataDir, backupDir), backupDir
}

func TestCreateBackupLocal(t *testing.T) {
	manager, backupDir := newTestManager(t)

	backup, err := manager.CreateBackup(nil, "test")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if backup.ID == 0 {
		t.Error("backup was not assigned an ID")
	}
	if backup.DestinationType != "local" {
		t.Errorf("destination type = %q, want local", backup.DestinationType)
	}

	if _, err := os.Stat(filepath.Join(backupDir, backup.Filename)); err != nil {
		t.Errorf("archive not written to backup dir: %v", err)
	}

	backups, err := manager.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 || backups[0].ID != backup.ID {
		t.Errorf("ListBackups = %+v", backups)
	}
}

func TestDeleteBackupRemovesLocalArchive(t *testing.T) {
	manager, backupDir := newTestManager(t)

	backup, err := manager.CreateBackup(nil, "test")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := manager.DeleteBackup(backup.ID); err != nil {
		t.Fatalf("DeleteBackup failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(backupDir, backup.Filename)); !os.IsNotExist(err) {
		t.Error("archive still on disk after delete")
	}

	backups, err := manager.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("backup record still present: %+v", backups)
	}
}

func TestEnforceRetention(t *testing.T) {
	manager, backupDir := newTestManager(t)
	retention := NewRetentionManager(manager.db)

	// Archive names carry second precision; space the records out via
	// direct inserts so ordering is unambiguous.
	base := time.Now().UTC().Add(-time.Hour)
	names := []string{"a.tar.gz", "b.tar.gz", "c.tar.gz"}
	for n, name := range names {
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := manager.db.Exec(`
			INSERT INTO backups (filename, destination_type, destination_path, size_bytes, created_by, created_at)
			VALUES (?, 'local', ?, 1, 'test', ?)
		`, name, backupDir, base.Add(time.Duration(n)*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
	}

	destCfg := &DestinationConfig{Type: "local", Path: backupDir}
	if err := retention.EnforceRetention(destCfg, 2); err != nil {
		t.Fatalf("EnforceRetention failed: %v", err)
	}

	backups, err := manager.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("kept %d backups, want 2", len(backups))
	}
	for _, b := range backups {
		if b.Filename == "a.tar.gz" {
			t.Error("oldest backup survived retention")
		}
	}

	if _, err := os.Stat(filepath.Join(backupDir, "a.tar.gz")); !os.IsNotExist(err) {
		t.Error("oldest archive still on disk")
	}
}
