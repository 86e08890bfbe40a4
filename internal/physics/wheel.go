package physics

// WheelSequence is the pocket order of a European single-zero wheel,
// clockwise starting at zero.
var WheelSequence = [37]int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13,
	36, 11, 30, 8, 23, 10, 5, 24, 16, 33, 1, 20,
	14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

// Pockets is the number of pockets on the wheel.
const Pockets = 37

// PocketIndex returns the position of a pocket number in the wheel
// sequence, or -1 for numbers not on the wheel.
func PocketIndex(number int) int {
	for i, n := range WheelSequence {
		if n == number {
			return i
		}
	}
	return -1
}

// NeighbourDistance returns the minimal pocket distance between two
// numbers along the wheel, or -1 if either number is not on the wheel.
func NeighbourDistance(a, b int) int {
	ia := PocketIndex(a)
	ib := PocketIndex(b)
	if ia < 0 || ib < 0 {
		return -1
	}
	d := ia - ib
	if d < 0 {
		d = -d
	}
	if d > Pockets-d {
		d = Pockets - d
	}
	return d
}
