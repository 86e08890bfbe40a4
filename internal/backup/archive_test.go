package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dataDir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "tracker.db"), []byte("sqlite bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "nested", "known_hosts"), []byte("host key"), 0600); err != nil {
		t.Fatal(err)
	}

	archivePath := filepath.Join(t.TempDir(), "backup.tar.gz")
	size, err := CreateArchive(dataDir, archivePath)
	if err != nil {
		t.Fatalf("CreateArchive failed: %v", err)
	}
	if size <= 0 {
		t.Fatalf("archive size = %d", size)
	}

	destDir := t.TempDir()
	if err := ExtractArchive(archivePath, destDir); err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "tracker.db"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(got) != "sqlite bytes" {
		t.Errorf("extracted contents = %q", got)
	}

	if _, err := os.Stat(filepath.Join(destDir, "nested", "known_hosts")); err != nil {
		t.Errorf("nested file missing after extract: %v", err)
	}
}

func TestCreateArchiveExcludesPrefix(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "tracker.db"), []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "backups"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "backups", "old.tar.gz"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	archivePath := filepath.Join(t.TempDir(), "backup.tar.gz")
	if _, err := CreateArchive(dataDir, archivePath, "backups"); err != nil {
		t.Fatalf("CreateArchive failed: %v", err)
	}

	destDir := t.TempDir()
	if err := ExtractArchive(archivePath, destDir); err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(destDir, "backups")); !os.IsNotExist(err) {
		t.Error("excluded directory ended up in the archive")
	}
	if _, err := os.Stat(filepath.Join(destDir, "tracker.db")); err != nil {
		t.Errorf("data file missing after extract: %v", err)
	}
}
