package math

import "github.com/chewxy/math32"

// NormalizeBounds returns an extents where every component of Min is less
// than or equal to the matching component of Max.
func NormalizeBounds(a, b Vec3) Extents3D {
	return Extents3D{
		Min: Vec3{math32.Min(a.X, b.X), math32.Min(a.Y, b.Y), math32.Min(a.Z, b.Z)},
		Max: Vec3{math32.Max(a.X, b.X), math32.Max(a.Y, b.Y), math32.Max(a.Z, b.Z)},
	}
}

// BoundsFromPositions computes the axis aligned extents of a packed float
// array, reading three components every stride floats starting at offset.
// It returns false when no position could be read.
func BoundsFromPositions(data []float32, stride, offset int) (Extents3D, bool) {
	if stride <= 0 || offset < 0 || offset+3 > len(data) {
		return Extents3D{}, false
	}
	min := Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	max := Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := offset; i+3 <= len(data); i += stride {
		x, y, z := data[i], data[i+1], data[i+2]
		min.X, max.X = math32.Min(min.X, x), math32.Max(max.X, x)
		min.Y, max.Y = math32.Min(min.Y, y), math32.Max(max.Y, y)
		min.Z, max.Z = math32.Min(min.Z, z), math32.Max(max.Z, z)
	}
	return Extents3D{Min: min, Max: max}, true
}
