package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown files are ignored by the asset watcher. */
	ResourceTypeNone ResourceType = iota
	/** @brief Base mesh vertex/index data partitioned into sub-meshes and areas. */
	ResourceTypeGeometry
	/** @brief Named per-instance attribute streams. */
	ResourceTypeInstanceData
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeGeometry:
		return "geometry"
	case ResourceTypeInstanceData:
		return "instance-data"
	case ResourceTypeCustom:
		return "custom"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

// KeepAliver is implemented by resources whose residency is extended every
// time they are used in a frame.
type KeepAliver interface {
	KeepAlive()
}

// GeometryResource holds base mesh data and performs instanced draws of it.
type GeometryResource interface {
	KeepAliver
	// IsReady reports whether the data is resident and drawable right now.
	IsReady() bool
	// DrawInstanced draws geometry areas [start, start+count) of sub-mesh
	// subMeshIndex once per instance found in instanceBuffer.
	DrawInstanced(subMeshIndex, start, count int, effect *Effect, instanceBuffer *RenderBuffer, instanceLayout *VertexLayout, instanceStride, instanceCount uint32)
}

// InstanceDataResource exposes per-instance attribute streams by index.
// Every accessor returns the zero value when the stream has no data.
// Implementations may also implement KeepAliver.
type InstanceDataResource interface {
	InstanceBuffer(streamIndex int) *RenderBuffer
	InstanceLayout(streamIndex int) *VertexLayout
	InstanceStride(streamIndex int) uint32
	InstanceCount(streamIndex int) uint32
}

// ResourceProvider resolves asset paths to shared, reference counted
// resources. Lookups never block; the returned resource may still be loading.
type ResourceProvider interface {
	AcquireGeometry(path string) GeometryResource
	AcquireInstanceData(path string) InstanceDataResource
	Release(path string)
}
