package tracker

import "time"

// Session represents one tracked table/wheel.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TableName string    `json:"table_name"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Spin is one recorded spin: the captured marks, the predictions made
// from them, and (once known) the observed outcome.
type Spin struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	WheelTimes      []float64 `json:"wheel_times"`
	BallTimes       []float64 `json:"ball_times"`
	WheelMarks      int       `json:"wheel_marks"`
	BallMarks       int       `json:"ball_marks"`
	Direction       string    `json:"direction"`
	LeftPrediction  int       `json:"left_prediction"`
	RightPrediction int       `json:"right_prediction"`
	Outcome         *int      `json:"outcome,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionStats aggregates prediction quality for a session. A spin is
// scored once its outcome is recorded; an exact hit matches either
// direction's prediction, a neighbour hit lands within one pocket of it
// in wheel order.
type SessionStats struct {
	SessionID        string    `json:"session_id"`
	SpinCount        int       `json:"spin_count"`
	ScoredCount      int       `json:"scored_count"`
	ExactHits        int       `json:"exact_hits"`
	NeighbourHits    int       `json:"neighbour_hits"`
	ExactHitRate     float64   `json:"exact_hit_rate"`
	NeighbourHitRate float64   `json:"neighbour_hit_rate"`
	UpdatedAt        time.Time `json:"updated_at"`
}
