package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rouletted/roulette-tracker/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewStore(db.DB)
}

func recordTestSpin(t *testing.T, store *Store, sessionID string, left, right int) *Spin {
	t.Helper()

	spin, err := store.RecordSpin(&Spin{
		SessionID:       sessionID,
		WheelTimes:      []float64{0, 1.2, 2.5},
		BallTimes:       []float64{0.1, 0.5, 1.0},
		WheelMarks:      3,
		BallMarks:       3,
		Direction:       "left",
		LeftPrediction:  left,
		RightPrediction: right,
	})
	if err != nil {
		t.Fatalf("failed to record spin: %v", err)
	}
	return spin
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)

	session, err := store.CreateSession("evening", "table-4", "")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if session.ID == "" {
		t.Fatal("session ID is empty")
	}
	if session.Mode != "3x3" {
		t.Errorf("default mode = %q, want 3x3", session.Mode)
	}

	loaded, err := store.GetSession(session.ID)
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	if loaded.Name != "evening" || loaded.TableName != "table-4" {
		t.Errorf("loaded session mismatch: %+v", loaded)
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	if err := store.DeleteSession(session.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}
	if _, err := store.GetSession(session.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteSession(session.ID); err != ErrNotFound {
		t.Errorf("double delete should return ErrNotFound, got %v", err)
	}
}

func TestRecordSpinRoundTrip(t *testing.T) {
	store := newTestStore(t)
	session, _ := store.CreateSession("s", "", "")

	spin := recordTestSpin(t, store, session.ID, 17, 22)

	spins, err := store.ListSpins(session.ID, 0)
	if err != nil {
		t.Fatalf("failed to list spins: %v", err)
	}
	if len(spins) != 1 {
		t.Fatalf("expected 1 spin, got %d", len(spins))
	}

	got := spins[0]
	if got.ID != spin.ID {
		t.Errorf("spin ID mismatch: %d != %d", got.ID, spin.ID)
	}
	if len(got.WheelTimes) != 3 || got.WheelTimes[1] != 1.2 {
		t.Errorf("wheel times did not round-trip: %v", got.WheelTimes)
	}
	if got.Outcome != nil {
		t.Errorf("fresh spin should have no outcome, got %v", *got.Outcome)
	}
	if got.LeftPrediction != 17 || got.RightPrediction != 22 {
		t.Errorf("predictions did not round-trip: %+v", got)
	}
}

func TestRecordSpinUnknownSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RecordSpin(&Spin{SessionID: "missing", WheelTimes: []float64{0, 1}, BallTimes: []float64{0, 1}})
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetOutcomeValidation(t *testing.T) {
	store := newTestStore(t)
	session, _ := store.CreateSession("s", "", "")
	spin := recordTestSpin(t, store, session.ID, 17, 22)

	if err := store.SetOutcome(session.ID, spin.ID, 99); err == nil {
		t.Error("outcome 99 should be rejected")
	}
	if err := store.SetOutcome(session.ID, 9999, 17); err != ErrNotFound {
		t.Errorf("unknown spin should return ErrNotFound, got %v", err)
	}
	if err := store.SetOutcome(session.ID, spin.ID, 17); err != nil {
		t.Errorf("valid outcome rejected: %v", err)
	}
}

func TestSetOutcomeScopedToSession(t *testing.T) {
	store := newTestStore(t)
	owner, _ := store.CreateSession("owner", "", "")
	other, _ := store.CreateSession("other", "", "")
	spin := recordTestSpin(t, store, owner.ID, 17, 22)

	if err := store.SetOutcome(other.ID, spin.ID, 17); err != ErrNotFound {
		t.Errorf("outcome set through a foreign session, got %v", err)
	}

	spins, err := store.ListSpins(owner.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if spins[0].Outcome != nil {
		t.Errorf("spin outcome mutated through a foreign session: %v", *spins[0].Outcome)
	}

	if err := store.SetOutcome(owner.ID, spin.ID, 17); err != nil {
		t.Errorf("owning session rejected: %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	store := newTestStore(t)
	session, _ := store.CreateSession("s", "", "")

	// Exact hit: outcome equals the left prediction.
	exact := recordTestSpin(t, store, session.ID, 17, 5)
	if err := store.SetOutcome(session.ID, exact.ID, 17); err != nil {
		t.Fatal(err)
	}

	// Neighbour hit: 34 sits next to 17 on the wheel.
	neighbour := recordTestSpin(t, store, session.ID, 17, 5)
	if err := store.SetOutcome(session.ID, neighbour.ID, 34); err != nil {
		t.Fatal(err)
	}

	// Miss: 0 is far from both predictions.
	miss := recordTestSpin(t, store, session.ID, 17, 5)
	if err := store.SetOutcome(session.ID, miss.ID, 0); err != nil {
		t.Fatal(err)
	}

	// Unscored spin counts toward spin_count only.
	recordTestSpin(t, store, session.ID, 17, 5)

	stats, err := store.ComputeStats(session.ID)
	if err != nil {
		t.Fatalf("failed to compute stats: %v", err)
	}

	if stats.SpinCount != 4 {
		t.Errorf("spin count = %d, want 4", stats.SpinCount)
	}
	if stats.ScoredCount != 3 {
		t.Errorf("scored count = %d, want 3", stats.ScoredCount)
	}
	if stats.ExactHits != 1 {
		t.Errorf("exact hits = %d, want 1", stats.ExactHits)
	}
	if stats.NeighbourHits != 2 {
		t.Errorf("neighbour hits = %d, want 2", stats.NeighbourHits)
	}

	if err := store.SaveStats(stats); err != nil {
		t.Fatalf("failed to save stats: %v", err)
	}
	// Upsert must not fail on the second write.
	if err := store.SaveStats(stats); err != nil {
		t.Fatalf("failed to upsert stats: %v", err)
	}
}

func TestPruneSpins(t *testing.T) {
	store := newTestStore(t)
	session, _ := store.CreateSession("s", "", "")
	recordTestSpin(t, store, session.ID, 17, 5)

	pruned, err := store.PruneSpins(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("fresh spin should not be pruned, pruned %d", pruned)
	}

	pruned, err = store.PruneSpins(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned spin, got %d", pruned)
	}
}
