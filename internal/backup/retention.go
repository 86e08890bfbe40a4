package backup

import (
	"database/sql"
	"fmt"
	"log"
)

// RetentionManager prunes old backups beyond a retention count
type RetentionManager struct {
	db *sql.DB
}

// NewRetentionManager creates a retention manager
func NewRetentionManager(db *sql.DB) *RetentionManager {
	return &RetentionManager{db: db}
}

// EnforceRetention keeps the newest `keep` backups at a destination and
// deletes the rest, both the archives and their records.
func (rm *RetentionManager) EnforceRetention(destCfg *DestinationConfig, keep int) error {
	if keep <= 0 {
		return nil
	}

	rows, err := rm.db.Query(`
		SELECT id, filename FROM backups
		WHERE destination_type = ? AND destination_path = ?
		ORDER BY created_at DESC
	`, destCfg.Type, destCfg.Path)
	if err != nil {
		return fmt.Errorf("failed to list backups for retention: %w", err)
	}
	defer rows.Close()

	type record struct {
		id       int64
		filename string
	}

	var expired []record
	n := 0
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.id, &r.filename); err != nil {
			return err
		}
		n++
		if n > keep {
			expired = append(expired, r)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(expired) == 0 {
		return nil
	}

	dest, err := NewDestination(destCfg)
	if err != nil {
		return err
	}
	if closer, ok := dest.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	for _, r := range expired {
		if err := dest.Delete(r.filename); err != nil {
			log.Printf("[Retention] Failed to delete %s: %v", r.filename, err)
		}
		if _, err := rm.db.Exec("DELETE FROM backups WHERE id = ?", r.id); err != nil {
			return fmt.Errorf("failed to delete backup record %d: %w", r.id, err)
		}
	}

	log.Printf("[Retention] Pruned %d expired backups at %s:%s", len(expired), destCfg.Type, destCfg.Path)
	return nil
}
