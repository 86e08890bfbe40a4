package physics

import (
	"math"
	"testing"
)

func marksEvery(start, period float64, count int) []float64 {
	times := make([]float64, count)
	for i := range times {
		times[i] = start + period*float64(i)
	}
	return times
}

func TestAngularVelocity(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single mark", []float64{1.0}, 0},
		{"one rotation per second", marksEvery(0, 1.0, 5), 1.0},
		{"two rotations per second", marksEvery(0, 0.5, 4), 2.0},
		{"zero period", []float64{1.0, 1.0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularVelocity(tt.times)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngularVelocity(%v) = %v, want %v", tt.times, got, tt.want)
			}
		})
	}
}

func TestDeceleration(t *testing.T) {
	// Constant period means omega is flat, slope should be zero.
	if got := Deceleration(marksEvery(0, 1.0, 6)); math.Abs(got) > 1e-9 {
		t.Errorf("constant rotation should have zero deceleration, got %v", got)
	}

	// Growing periods mean the rotor is slowing down, so the negated
	// slope must be positive.
	slowing := []float64{0, 1.0, 2.1, 3.3, 4.6, 6.0}
	if got := Deceleration(slowing); got <= 0 {
		t.Errorf("slowing rotor should have positive deceleration, got %v", got)
	}

	// Fewer than 3 marks cannot be fitted.
	if got := Deceleration([]float64{0, 1}); got != 0 {
		t.Errorf("two marks should yield zero, got %v", got)
	}

	// Non-increasing timestamps are skipped; degenerate input yields zero.
	if got := Deceleration([]float64{1, 1, 1}); got != 0 {
		t.Errorf("degenerate marks should yield zero, got %v", got)
	}
}

func TestPredictForDirectionRange(t *testing.T) {
	wheel := marksEvery(0, 1.2, 5)
	ball := marksEvery(0.1, 0.4, 6)

	for _, dir := range []Direction{DirectionLeft, DirectionRight} {
		got := PredictForDirection(wheel, ball, dir)
		if PocketIndex(got) < 0 {
			t.Errorf("prediction %d for direction %s is not on the wheel", got, dir)
		}
	}
}

func TestPredictForDirectionDeterministic(t *testing.T) {
	wheel := []float64{0, 1.1, 2.3, 3.6, 5.0}
	ball := []float64{0.2, 0.55, 0.95, 1.4, 1.9, 2.45}

	first := PredictForDirection(wheel, ball, DirectionLeft)
	for i := 0; i < 10; i++ {
		if got := PredictForDirection(wheel, ball, DirectionLeft); got != first {
			t.Fatalf("prediction not deterministic: %d != %d", got, first)
		}
	}
}

func TestPredictForDirectionDegenerateMarks(t *testing.T) {
	// All clamps kick in: too few usable intervals, zero velocities.
	got := PredictForDirection([]float64{0, 0}, []float64{0, 0}, DirectionRight)
	if PocketIndex(got) < 0 {
		t.Errorf("degenerate marks should still map onto the wheel, got %d", got)
	}
}

func TestPredictForDirectionExtremeMarks(t *testing.T) {
	// A near-zero ball period makes the integrated angle huge but finite;
	// the pocket mapping must still land on the wheel.
	wheel := []float64{0, 1, 2}
	ball := []float64{0, 1e-300}

	for _, dir := range []Direction{DirectionLeft, DirectionRight} {
		got := PredictForDirection(wheel, ball, dir)
		if PocketIndex(got) < 0 {
			t.Errorf("prediction %d for direction %s is not on the wheel", got, dir)
		}
	}

	resp, err := ComputePredictions(&MarksRequest{WheelTimes: wheel, BallTimes: ball})
	if err != nil {
		t.Fatalf("ComputePredictions returned error: %v", err)
	}
	if PocketIndex(resp.LeftPrediction) < 0 || PocketIndex(resp.RightPrediction) < 0 {
		t.Errorf("predictions off the wheel: %+v", resp)
	}
}

func TestComputePredictions(t *testing.T) {
	req := &MarksRequest{
		WheelTimes: marksEvery(0, 1.2, 4),
		BallTimes:  marksEvery(0, 0.4, 5),
		WheelMarks: 4,
		BallMarks:  5,
		Mode:       "3x3",
	}

	resp, err := ComputePredictions(req)
	if err != nil {
		t.Fatalf("ComputePredictions returned error: %v", err)
	}
	if PocketIndex(resp.LeftPrediction) < 0 {
		t.Errorf("left prediction %d not on wheel", resp.LeftPrediction)
	}
	if PocketIndex(resp.RightPrediction) < 0 {
		t.Errorf("right prediction %d not on wheel", resp.RightPrediction)
	}
}

func TestComputePredictionsTooFewMarks(t *testing.T) {
	req := &MarksRequest{WheelTimes: []float64{1.0}, BallTimes: []float64{1.0, 2.0}}

	_, err := ComputePredictions(req)
	if err == nil {
		t.Fatal("expected validation error for too few marks")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestWheelSequence(t *testing.T) {
	if len(WheelSequence) != Pockets {
		t.Fatalf("wheel sequence has %d pockets, want %d", len(WheelSequence), Pockets)
	}

	seen := make(map[int]bool, Pockets)
	for _, n := range WheelSequence {
		if n < 0 || n > 36 {
			t.Errorf("pocket %d out of range", n)
		}
		if seen[n] {
			t.Errorf("pocket %d appears twice", n)
		}
		seen[n] = true
	}
}

func TestNeighbourDistance(t *testing.T) {
	tests := []struct {
		a, b int
		want int
	}{
		{0, 0, 0},
		{0, 32, 1},  // adjacent in sequence
		{0, 26, 1},  // wraps around
		{0, 15, 2},
		{5, 99, -1}, // not on the wheel
	}

	for _, tt := range tests {
		if got := NeighbourDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("NeighbourDistance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
