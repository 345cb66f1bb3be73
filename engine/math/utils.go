package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// ClampRange intersects [start, start+count) with [0, length) and returns the
// surviving start and count. count is zero when nothing overlaps.
func ClampRange[T constraints.Integer](start, count, length T) (T, T) {
	if count <= 0 || length <= 0 {
		return 0, 0
	}
	end := Clamp(start+count, 0, length)
	start = Clamp(start, 0, length)
	if end <= start {
		return start, 0
	}
	return start, end - start
}
