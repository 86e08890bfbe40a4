package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rouletted/roulette-tracker/internal/config"
	"github.com/rouletted/roulette-tracker/internal/database"
	"github.com/rouletted/roulette-tracker/internal/tracker"
)

func newTestCollector(t *testing.T) (*Collector, *tracker.Store, *database.DB) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := config.Defaults()
	store := tracker.NewStore(db.DB)
	return NewCollector(cfg, store), store, db
}

func TestRollupWritesStats(t *testing.T) {
	collector, store, db := newTestCollector(t)

	session, err := store.CreateSession("rollup test", "", "")
	if err != nil {
		t.Fatal(err)
	}

	spin, err := store.RecordSpin(&tracker.Spin{
		SessionID:       session.ID,
		WheelTimes:      []float64{0, 1, 2},
		BallTimes:       []float64{0, 0.5, 1.1},
		LeftPrediction:  17,
		RightPrediction: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetOutcome(session.ID, spin.ID, 17); err != nil {
		t.Fatal(err)
	}

	collector.rollupAll()

	var scored, exact int
	err = db.QueryRow(`
		SELECT scored_count, exact_hits FROM session_stats WHERE session_id = ?
	`, session.ID).Scan(&scored, &exact)
	if err != nil {
		t.Fatalf("stats row not written: %v", err)
	}
	if scored != 1 || exact != 1 {
		t.Errorf("scored=%d exact=%d, want 1/1", scored, exact)
	}
}

func TestPruneOldSpins(t *testing.T) {
	collector, store, db := newTestCollector(t)
	collector.cfg.Stats.SpinRetentionDays = 30

	session, err := store.CreateSession("prune test", "", "")
	if err != nil {
		t.Fatal(err)
	}

	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	_, err = db.Exec(`
		INSERT INTO spins (session_id, wheel_times, ball_times, left_prediction, right_prediction, created_at)
		VALUES (?, '[0,1]', '[0,1]', 5, 7, ?)
	`, session.ID, old)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordSpin(&tracker.Spin{
		SessionID:       session.ID,
		WheelTimes:      []float64{0, 1},
		BallTimes:       []float64{0, 1},
		LeftPrediction:  1,
		RightPrediction: 2,
	}); err != nil {
		t.Fatal(err)
	}

	collector.pruneOldSpins(time.Now())

	spins, err := store.ListSpins(session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(spins) != 1 {
		t.Fatalf("kept %d spins, want 1", len(spins))
	}

	// A second prune inside the throttle window is a no-op even with
	// fresh expired rows.
	if _, err := db.Exec(`
		INSERT INTO spins (session_id, wheel_times, ball_times, left_prediction, right_prediction, created_at)
		VALUES (?, '[0,1]', '[0,1]', 5, 7, ?)
	`, session.ID, old); err != nil {
		t.Fatal(err)
	}

	collector.pruneOldSpins(time.Now())

	spins, err = store.ListSpins(session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(spins) != 2 {
		t.Errorf("throttled prune removed rows: %d spins", len(spins))
	}
}

func TestPruneDisabled(t *testing.T) {
	collector, store, db := newTestCollector(t)
	collector.cfg.Stats.SpinRetentionDays = 0

	session, err := store.CreateSession("no prune", "", "")
	if err != nil {
		t.Fatal(err)
	}

	old := time.Now().UTC().Add(-400 * 24 * time.Hour)
	if _, err := db.Exec(`
		INSERT INTO spins (session_id, wheel_times, ball_times, left_prediction, right_prediction, created_at)
		VALUES (?, '[0,1]', '[0,1]', 5, 7, ?)
	`, session.ID, old); err != nil {
		t.Fatal(err)
	}

	collector.pruneOldSpins(time.Now())

	spins, err := store.ListSpins(session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(spins) != 1 {
		t.Errorf("retention disabled but spins were pruned")
	}
}
