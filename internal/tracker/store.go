package tracker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rouletted/roulette-tracker/internal/physics"
)

// ErrNotFound is returned when a session or spin does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Store persists sessions and spins
type Store struct {
	db *sql.DB
}

// NewStore creates a tracker store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSession inserts a new tracking session and returns it
func (s *Store) CreateSession(name, tableName, mode string) (*Session, error) {
	if mode == "" {
		mode = "3x3"
	}

	session := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		TableName: tableName,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, table_name, mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.Name, session.TableName, session.Mode, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession loads a session by ID
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, name, table_name, mode, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var session Session
	err := row.Scan(&session.ID, &session.Name, &session.TableName, &session.Mode, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &session, nil
}

// ListSessions returns all sessions, newest first
func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, name, table_name, mode, created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Name, &session.TableName, &session.Mode, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// DeleteSession removes a session and its spins
func (s *Store) DeleteSession(id string) error {
	result, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordSpin persists a spin together with its predictions
func (s *Store) RecordSpin(spin *Spin) (*Spin, error) {
	if _, err := s.GetSession(spin.SessionID); err != nil {
		return nil, err
	}

	wheelJSON, err := json.Marshal(spin.WheelTimes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wheel times: %w", err)
	}
	ballJSON, err := json.Marshal(spin.BallTimes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ball times: %w", err)
	}

	spin.CreatedAt = time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO spins (
			session_id, wheel_times, ball_times, wheel_marks, ball_marks,
			direction, left_prediction, right_prediction, outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, spin.SessionID, string(wheelJSON), string(ballJSON), spin.WheelMarks, spin.BallMarks,
		spin.Direction, spin.LeftPrediction, spin.RightPrediction, spin.Outcome, spin.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record spin: %w", err)
	}

	spin.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	_, _ = s.db.Exec("UPDATE sessions SET updated_at = ? WHERE id = ?", spin.CreatedAt, spin.SessionID)

	return spin, nil
}

// SetOutcome records the observed winning pocket for a spin. The spin
// must belong to the given session.
func (s *Store) SetOutcome(sessionID string, spinID int64, outcome int) error {
	if physics.PocketIndex(outcome) < 0 {
		return fmt.Errorf("outcome %d is not on the wheel", outcome)
	}

	result, err := s.db.Exec("UPDATE spins SET outcome = ? WHERE id = ? AND session_id = ?", outcome, spinID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set outcome: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSpins returns the spins of a session, newest first, capped at limit
// (0 means no cap).
func (s *Store) ListSpins(sessionID string, limit int) ([]Spin, error) {
	query := `
		SELECT id, session_id, wheel_times, ball_times, wheel_marks, ball_marks,
		       direction, left_prediction, right_prediction, outcome, created_at
		FROM spins WHERE session_id = ? ORDER BY created_at DESC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list spins: %w", err)
	}
	defer rows.Close()

	spins := []Spin{}
	for rows.Next() {
		var spin Spin
		var wheelJSON, ballJSON string
		var outcome sql.NullInt64
		if err := rows.Scan(&spin.ID, &spin.SessionID, &wheelJSON, &ballJSON, &spin.WheelMarks, &spin.BallMarks,
			&spin.Direction, &spin.LeftPrediction, &spin.RightPrediction, &outcome, &spin.CreatedAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(wheelJSON), &spin.WheelTimes); err != nil {
			return nil, fmt.Errorf("corrupt wheel times for spin %d: %w", spin.ID, err)
		}
		if err := json.Unmarshal([]byte(ballJSON), &spin.BallTimes); err != nil {
			return nil, fmt.Errorf("corrupt ball times for spin %d: %w", spin.ID, err)
		}
		if outcome.Valid {
			value := int(outcome.Int64)
			spin.Outcome = &value
		}

		spins = append(spins, spin)
	}

	return spins, rows.Err()
}

// ComputeStats calculates prediction quality for a session from its spins
func (s *Store) ComputeStats(sessionID string) (*SessionStats, error) {
	if _, err := s.GetSession(sessionID); err != nil {
		return nil, err
	}

	spins, err := s.ListSpins(sessionID, 0)
	if err != nil {
		return nil, err
	}

	stats := &SessionStats{
		SessionID: sessionID,
		SpinCount: len(spins),
		UpdatedAt: time.Now().UTC(),
	}

	for _, spin := range spins {
		if spin.Outcome == nil {
			continue
		}
		stats.ScoredCount++

		best := physics.NeighbourDistance(*spin.Outcome, spin.LeftPrediction)
		if d := physics.NeighbourDistance(*spin.Outcome, spin.RightPrediction); best < 0 || (d >= 0 && d < best) {
			best = d
		}
		if best == 0 {
			stats.ExactHits++
		}
		if best >= 0 && best <= 1 {
			stats.NeighbourHits++
		}
	}

	if stats.ScoredCount > 0 {
		stats.ExactHitRate = float64(stats.ExactHits) / float64(stats.ScoredCount)
		stats.NeighbourHitRate = float64(stats.NeighbourHits) / float64(stats.ScoredCount)
	}

	return stats, nil
}

// SaveStats upserts a stats rollup for a session
func (s *Store) SaveStats(stats *SessionStats) error {
	_, err := s.db.Exec(`
		INSERT INTO session_stats (session_id, spin_count, scored_count, exact_hits, neighbour_hits, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			spin_count = excluded.spin_count,
			scored_count = excluded.scored_count,
			exact_hits = excluded.exact_hits,
			neighbour_hits = excluded.neighbour_hits,
			updated_at = excluded.updated_at
	`, stats.SessionID, stats.SpinCount, stats.ScoredCount, stats.ExactHits, stats.NeighbourHits, stats.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	return nil
}

// PruneSpins deletes spins older than the cutoff and returns the count
func (s *Store) PruneSpins(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM spins WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune spins: %w", err)
	}

	return result.RowsAffected()
}
