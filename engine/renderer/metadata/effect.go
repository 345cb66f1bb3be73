package metadata

/** @brief The name of the effect used for depth only passes. */
const DepthEffectName string = "depth"

/** @brief The name of the effect writing object ids for picking. */
const PickingEffectName string = "picking"

/**
 * @brief An effect binds a shader program and its parameters. Effects are
 * owned by the effect system and referenced, never copied, by mesh areas
 * and batches.
 */
type Effect struct {
	/** @brief The effect identifier, unique per effect system. */
	ID uint32
	/** @brief The effect name. */
	Name string
	/** @brief The name of the shader the effect uses. */
	ShaderName string
	/** @brief Named shader parameters. */
	Parameters map[string][]float32
}
