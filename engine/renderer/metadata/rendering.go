package metadata

// RenderMode selects which group of mesh areas a traversal collects.
type RenderMode int

const (
	/** @brief Any mode. Only meaningful as a filter. */
	RenderModeAny RenderMode = iota - 1
	/** @brief Solid geometry, no blending. */
	RenderModeOpaque
	/** @brief Decals projected on top of opaque geometry. */
	RenderModeDecal
	/** @brief Alpha blended geometry. */
	RenderModeTransparent
	/** @brief Additively blended geometry. */
	RenderModeAdditive
	/** @brief Depth only pass. */
	RenderModeDepth
	/** @brief Screen space distortion. */
	RenderModeDistortion
	/** @brief Object picking. */
	RenderModePickable
)

var renderModeNames = map[RenderMode]string{
	RenderModeAny:         "any",
	RenderModeOpaque:      "opaque",
	RenderModeDecal:       "decal",
	RenderModeTransparent: "transparent",
	RenderModeAdditive:    "additive",
	RenderModeDepth:       "depth",
	RenderModeDistortion:  "distortion",
	RenderModePickable:    "pickable",
}

func (m RenderMode) String() string {
	if n, ok := renderModeNames[m]; ok {
		return n
	}
	return "unknown"
}

// ParseRenderMode maps a name as written in scene files to a RenderMode.
func ParseRenderMode(name string) (RenderMode, bool) {
	for k, v := range renderModeNames {
		if v == name {
			return k, true
		}
	}
	return RenderModeAny, false
}

/**
 * @brief Per object shader constants. The batch pipeline never looks
 * inside, it only hands the pointer through to the draw.
 */
type PerObjectData struct {
	/** @brief Identifier of the owning object, used for picking. */
	ObjectID uint32
	/** @brief Vertex stage constants. */
	VSData []float32
	/** @brief Pixel stage constants. */
	PSData []float32
}
