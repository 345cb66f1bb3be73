package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Elements returns the components as an array, in x, y, z order.
func (v Vec3) Elements() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}
