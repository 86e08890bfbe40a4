package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backup is a completed backup record
type Backup struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	DestinationType string    `json:"destination_type"`
	DestinationPath string    `json:"destination_path"`
	SizeBytes       int64     `json:"size_bytes"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Manager creates backup archives of the data directory and records
// them in the database.
type Manager struct {
	db        *sql.DB
	dataDir   string
	backupDir string
}

// NewManager creates a backup manager
func NewManager(db *sql.DB, dataDir, backupDir string) *Manager {
	return &Manager{
		db:        db,
		dataDir:   dataDir,
		backupDir: backupDir,
	}
}

// CreateBackup archives the data directory and uploads it to the given
// destination. A nil config falls back to the local backup directory.
func (m *Manager) CreateBackup(destCfg *DestinationConfig, createdBy string) (*Backup, error) {
	if destCfg == nil || destCfg.Type == "" || (destCfg.Type == "local" && destCfg.Path == "") {
		destCfg = &DestinationConfig{Type: "local", Path: m.backupDir}
	}

	dest, err := NewDestination(destCfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := dest.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	createdAt := time.Now().UTC()
	filename := ArchiveName(createdAt)

	tmpPath := filepath.Join(os.TempDir(), filename)
	defer os.Remove(tmpPath)

	// Previous backups living under the data dir must not end up inside
	// new archives.
	exclude := []string{}
	if rel, err := filepath.Rel(m.dataDir, m.backupDir); err == nil && filepath.IsLocal(rel) {
		exclude = append(exclude, rel)
	}

	size, err := CreateArchive(m.dataDir, tmpPath, exclude...)
	if err != nil {
		return nil, err
	}

	archive, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen archive: %w", err)
	}
	defer archive.Close()

	if err := dest.Upload(filename, archive, size); err != nil {
		return nil, err
	}

	backup := &Backup{
		Filename:        filename,
		DestinationType: destCfg.Type,
		DestinationPath: destCfg.Path,
		SizeBytes:       size,
		CreatedBy:       createdBy,
		CreatedAt:       createdAt,
	}

	result, err := m.db.Exec(`
		INSERT INTO backups (filename, destination_type, destination_path, size_bytes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, backup.Filename, backup.DestinationType, backup.DestinationPath, backup.SizeBytes, backup.CreatedBy, backup.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record backup: %w", err)
	}

	backup.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return backup, nil
}

// ListBackups returns all recorded backups, newest first
func (m *Manager) ListBackups() ([]Backup, error) {
	rows, err := m.db.Query(`
		SELECT id, filename, destination_type, destination_path, size_bytes, created_by, created_at
		FROM backups ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	backups := []Backup{}
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.Filename, &b.DestinationType, &b.DestinationPath,
			&b.SizeBytes, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}

	return backups, rows.Err()
}

// DeleteBackup removes a backup record and, for local destinations, the
// archive file itself. Remote archives are removed through retention.
func (m *Manager) DeleteBackup(id int64) error {
	var b Backup
	err := m.db.QueryRow(`
		SELECT id, filename, destination_type, destination_path FROM backups WHERE id = ?
	`, id).Scan(&b.ID, &b.Filename, &b.DestinationType, &b.DestinationPath)
	if err == sql.ErrNoRows {
		return fmt.Errorf("backup %d not found", id)
	}
	if err != nil {
		return err
	}

	if b.DestinationType == "local" {
		// Best effort: the archive may already be gone.
		_ = NewLocalDestination(b.DestinationPath).Delete(b.Filename)
	}

	_, err = m.db.Exec("DELETE FROM backups WHERE id = ?", id)
	return err
}
