package metadata

/**
 * @brief A contiguous draw range within a sub-mesh, tagged with the
 * effect it renders with.
 */
type MeshArea struct {
	/** @brief The name of the area. */
	Name string
	/** @brief The effect used to draw the area. nil areas are never drawn. */
	Effect *Effect
	/** @brief Index of the sub-mesh inside the geometry resource. */
	SubMeshIndex int
	/** @brief First geometry area of the range. */
	Start int
	/** @brief Number of geometry areas in the range. */
	Count int
	/** @brief Hidden areas produce no batches. */
	Visible bool
}

// NewMeshArea returns a visible area covering count geometry areas from start.
func NewMeshArea(name string, effect *Effect, subMeshIndex, start, count int) *MeshArea {
	return &MeshArea{
		Name:         name,
		Effect:       effect,
		SubMeshIndex: subMeshIndex,
		Start:        start,
		Count:        count,
		Visible:      true,
	}
}
