package physics

import (
	"fmt"
	"math"
)

const (
	gravity    = 9.81
	trackSlope = 0.02 // track slope angle in radians
)

// Direction is the wheel rotation direction relative to the ball.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// MarksRequest carries the raw timing marks captured for one spin.
type MarksRequest struct {
	WheelTimes []float64 `json:"wheel_times" binding:"required"`
	BallTimes  []float64 `json:"ball_times" binding:"required"`
	WheelMarks int       `json:"wheel_marks"`
	BallMarks  int       `json:"ball_marks"`
	Mode       string    `json:"mode"`
}

// MarksResponse holds the predicted pockets for both wheel directions.
type MarksResponse struct {
	LeftPrediction  int `json:"left_prediction"`
	RightPrediction int `json:"right_prediction"`
}

// ValidationError reports marks input that cannot produce a prediction.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AngularVelocity computes the average rotation frequency (rotations per
// second) from mark timestamps.
func AngularVelocity(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}

	var sum float64
	for i := 1; i < len(times); i++ {
		sum += times[i] - times[i-1]
	}
	avgPeriod := sum / float64(len(times)-1)
	if avgPeriod <= 0 {
		return 0
	}
	return 1.0 / avgPeriod
}

// Deceleration estimates angular deceleration by fitting omega(t) with a
// least-squares line over per-interval angular velocities. The slope is
// negated so a slowing rotor yields a positive value.
func Deceleration(times []float64) float64 {
	if len(times) < 3 {
		return 0
	}

	var velocities, timePoints []float64
	for i := 1; i < len(times); i++ {
		dt := times[i] - times[i-1]
		if dt <= 0 {
			continue
		}
		velocities = append(velocities, 2*math.Pi/dt)
		timePoints = append(timePoints, (times[i]+times[i-1])/2.0)
	}

	if len(velocities) < 2 {
		return 0
	}

	n := float64(len(velocities))
	var sumX, sumY, sumXY, sumX2 float64
	for i, x := range timePoints {
		v := velocities[i]
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom
	return -slope
}

// PredictForDirection predicts the landing pocket assuming the wheel
// spins in the given direction.
func PredictForDirection(wheelTimes, ballTimes []float64, direction Direction) int {
	wheelOmega := 2 * math.Pi * AngularVelocity(wheelTimes)
	ballOmega := 2 * math.Pi * AngularVelocity(ballTimes)
	wheelAlpha := Deceleration(wheelTimes)
	ballAlpha := Deceleration(ballTimes)

	// Clamp non-physical estimates from noisy marks.
	if wheelAlpha <= 0 {
		wheelAlpha = 0.1
	}
	if ballAlpha <= 0 {
		ballAlpha = 0.1
	}
	if wheelOmega <= 0 {
		wheelOmega = 1.0
	}
	if ballOmega <= 0 {
		ballOmega = 2.0
	}

	criticalVelocitySquared := gravity * math.Tan(trackSlope) * 0.5

	var tDrop float64
	if ballAlpha > 0 && ballOmega > math.Sqrt(criticalVelocitySquared) {
		tDrop = (ballOmega - math.Sqrt(criticalVelocitySquared)) / ballAlpha
	} else {
		tDrop = 3.0
	}

	if tDrop < 0 {
		tDrop = 3.0
	}
	if tDrop > 10 {
		tDrop = 5.0
	}

	thetaBall := ballOmega*tDrop - 0.5*ballAlpha*tDrop*tDrop
	thetaWheel := wheelOmega*tDrop - 0.5*wheelAlpha*tDrop*tDrop

	if math.IsNaN(thetaBall) || math.IsInf(thetaBall, 0) {
		thetaBall = 2 * math.Pi * 3
	}
	if math.IsNaN(thetaWheel) || math.IsInf(thetaWheel, 0) {
		thetaWheel = 2 * math.Pi * 2
	}

	var relativeAngle float64
	var directionOffset int
	if direction == DirectionLeft {
		relativeAngle = (thetaBall + thetaWheel) / (2 * math.Pi)
		directionOffset = 12
	} else {
		relativeAngle = (thetaBall - thetaWheel) / (2 * math.Pi)
		directionOffset = 0
	}

	// Reduce in float space first: the angle can be astronomically large
	// for extreme marks, and an out-of-range float to int conversion would
	// produce a negative index.
	pocketOffset := int(math.Mod(math.Abs(relativeAngle)*Pockets, Pockets))
	scatterOffset := 5
	finalPocketIndex := (pocketOffset + scatterOffset + directionOffset) % Pockets

	return WheelSequence[finalPocketIndex]
}

// ComputePredictions validates the request and predicts for both
// directions.
func ComputePredictions(req *MarksRequest) (*MarksResponse, error) {
	if len(req.WheelTimes) < 2 || len(req.BallTimes) < 2 {
		return nil, &ValidationError{Reason: "Not enough marks to compute prediction"}
	}

	left := PredictForDirection(req.WheelTimes, req.BallTimes, DirectionLeft)
	right := PredictForDirection(req.WheelTimes, req.BallTimes, DirectionRight)

	if PocketIndex(left) < 0 || PocketIndex(right) < 0 {
		return nil, fmt.Errorf("prediction out of wheel range: left=%d right=%d", left, right)
	}

	return &MarksResponse{LeftPrediction: left, RightPrediction: right}, nil
}
