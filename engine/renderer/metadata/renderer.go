package metadata

type RenderBufferType int

const (
	/** @brief Buffer is use is unknown. Default, but usually invalid. */
	RENDERBUFFER_TYPE_UNKNOWN RenderBufferType = iota
	/** @brief Buffer is used for vertex data. */
	RENDERBUFFER_TYPE_VERTEX
	/** @brief Buffer is used for index data. */
	RENDERBUFFER_TYPE_INDEX
	/** @brief Buffer is used for per-instance vertex data. */
	RENDERBUFFER_TYPE_INSTANCE
	/** @brief Buffer is used for uniform data. */
	RENDERBUFFER_TYPE_UNIFORM
)

type RenderBuffer struct {
	/** @brief The type of buffer, which typically determines its use. */
	RenderBufferType RenderBufferType
	/** @brief The total size of the buffer in bytes. */
	TotalSize uint64
	/** @brief Contains internal data for the renderer-API-specific buffer. */
	InternalData interface{}
}

/**
 * @brief Everything a backend needs to issue one indexed, instanced draw.
 */
type InstancedDrawCommand struct {
	/** @brief Geometry vertex buffer and its layout. */
	VertexBuffer *RenderBuffer
	VertexLayout *VertexLayout
	VertexStride uint32
	/** @brief Geometry index buffer, 32 bit indices. */
	IndexBuffer *RenderBuffer
	/** @brief First index and number of indices to draw. */
	FirstIndex uint32
	IndexCount uint32
	/** @brief The effect bound for the draw. */
	Effect *Effect
	/** @brief Per-instance attribute stream. */
	InstanceBuffer *RenderBuffer
	InstanceLayout *VertexLayout
	InstanceStride uint32
	InstanceCount  uint32
	/** @brief Render mode of the batch that issued the draw. */
	RenderMode RenderMode
	/** @brief Per object constants of the batch that issued the draw, may be nil. */
	PerObjectData *PerObjectData
}

/**
 * @brief A structure which is generated by the application and sent once
 * to the renderer to render a given frame.
 */
type RenderPacket struct {
	DeltaTime   float64
	FrameNumber uint64
}
