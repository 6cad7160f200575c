package animation

import "math"

// Angles are in degrees, measured clockwise from 12 o'clock. The wheel turns
// clockwise, so a segment drawn at angle a sits at a+rotation on screen.

// SegmentAngle is the arc covered by each of n segments.
func SegmentAngle(n int) float64 {
	return 360 / float64(n)
}

// SegmentCenter is the unrotated angle of the middle of segment i.
func SegmentCenter(n, i int) float64 {
	return (float64(i) + 0.5) * SegmentAngle(n)
}

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// TargetAngle is the rotation in [0, 360) that puts the center of segment i
// under the pointer.
func TargetAngle(n, i int, pointer float64) float64 {
	return Normalize(pointer - SegmentCenter(n, i))
}

// FinalRotation adds fullTurns complete revolutions to the target angle.
func FinalRotation(n, i, fullTurns int, pointer float64) float64 {
	return float64(fullTurns)*360 + TargetAngle(n, i, pointer)
}

// SegmentAt returns the segment under the pointer for a wheel at rotation.
func SegmentAt(n int, rotation, pointer float64) int {
	if n <= 0 {
		return -1
	}
	idx := int(Normalize(pointer-rotation) / SegmentAngle(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// EaseOutCubic decelerates towards t=1.
func EaseOutCubic(t float64) float64 {
	t = math.Min(math.Max(t, 0), 1)
	return 1 - math.Pow(1-t, 3)
}
