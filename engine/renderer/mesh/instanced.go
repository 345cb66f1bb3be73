package mesh

import (
	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// InstancedMeshConfig describes an instanced mesh as written in scene files.
type InstancedMeshConfig struct {
	Name                    string `toml:"name"`
	GeometryResPath         string `toml:"geometry"`
	InstanceGeometryResPath string `toml:"instances"`
	InstanceStreamIndex     int    `toml:"stream"`
}

// InstancedMesh draws one base geometry once per instance found in a
// stream of an instance data resource.
//
// All methods must be called from the render thread.
type InstancedMesh struct {
	Name                    string
	GeometryResPath         string
	InstanceGeometryResPath string
	// InstanceStreamIndex selects the stream inside the instance resource.
	InstanceStreamIndex int
	// Display gates GetBatches. Hidden meshes emit nothing.
	Display bool

	provider             metadata.ResourceProvider
	geometryResource     metadata.GeometryResource
	instanceDataResource metadata.InstanceDataResource

	bounds math.Extents3D
	areas  map[metadata.RenderMode][]*metadata.MeshArea
}

// NewInstancedMesh returns an empty mesh. Resources are looked up through
// provider once Initialize is called.
func NewInstancedMesh(provider metadata.ResourceProvider, config InstancedMeshConfig) *InstancedMesh {
	return &InstancedMesh{
		Name:                    config.Name,
		GeometryResPath:         config.GeometryResPath,
		InstanceGeometryResPath: config.InstanceGeometryResPath,
		InstanceStreamIndex:     config.InstanceStreamIndex,
		Display:                 true,
		provider:                provider,
		areas:                   make(map[metadata.RenderMode][]*metadata.MeshArea),
	}
}

func (m *InstancedMesh) Initialize() {
	if m.provider == nil {
		return
	}
	if m.GeometryResPath != "" {
		m.geometryResource = m.provider.AcquireGeometry(m.GeometryResPath)
	}
	if m.InstanceGeometryResPath != "" {
		m.instanceDataResource = m.provider.AcquireInstanceData(m.InstanceGeometryResPath)
	}
}

// Destroy releases the resource references held by the mesh. Batches of this
// mesh still sitting in an accumulator become no-ops.
func (m *InstancedMesh) Destroy() {
	if m.provider != nil {
		if m.geometryResource != nil {
			m.provider.Release(m.GeometryResPath)
		}
		if m.instanceDataResource != nil {
			m.provider.Release(m.InstanceGeometryResPath)
		}
	}
	m.geometryResource = nil
	m.instanceDataResource = nil
}

func (m *InstancedMesh) SetGeometryResource(res metadata.GeometryResource) {
	m.geometryResource = res
}

func (m *InstancedMesh) SetInstanceDataResource(res metadata.InstanceDataResource) {
	m.instanceDataResource = res
}

func (m *InstancedMesh) GeometryResource() metadata.GeometryResource {
	return m.geometryResource
}

func (m *InstancedMesh) InstanceDataResource() metadata.InstanceDataResource {
	return m.instanceDataResource
}

// SetBounds stores the local space bounding box, swapping components so that
// min never exceeds max.
func (m *InstancedMesh) SetBounds(min, max math.Vec3) {
	m.bounds = math.NormalizeBounds(min, max)
}

func (m *InstancedMesh) Bounds() (min, max math.Vec3) {
	return m.bounds.Min, m.bounds.Max
}

// AddArea appends area to the list drawn for mode.
func (m *InstancedMesh) AddArea(mode metadata.RenderMode, area *metadata.MeshArea) {
	m.areas[mode] = append(m.areas[mode], area)
}

func (m *InstancedMesh) Areas(mode metadata.RenderMode) []*metadata.MeshArea {
	return m.areas[mode]
}

// State reports renderability for this frame. It is recomputed every call.
func (m *InstancedMesh) State() State {
	if m.geometryResource == nil || m.instanceDataResource == nil {
		return StateNoResources
	}
	if !m.geometryResource.IsReady() {
		return StatePendingLoad
	}
	return StateReady
}

// GetBatches submits the batches of every area registered for mode.
func (m *InstancedMesh) GetBatches(mode metadata.RenderMode, accumulator batch.Submitter, perObjectData *metadata.PerObjectData) {
	if !m.Display {
		return
	}
	m.GenerateAreaBatches(m.areas[mode], mode, accumulator, perObjectData)
}

func (m *InstancedMesh) GenerateAreaBatches(areas []*metadata.MeshArea, mode metadata.RenderMode, accumulator batch.Submitter, perObjectData *metadata.PerObjectData) {
	for _, area := range areas {
		if area == nil || area.Effect == nil || !area.Visible {
			continue
		}
		accumulator.Submit(&InstancedMeshBatch{
			renderMode:    mode,
			perObjectData: perObjectData,
			sourceMesh:    m,
			subMeshIndex:  area.SubMeshIndex,
			start:         area.Start,
			count:         area.Count,
			effect:        area.Effect,
		})
	}
}

func (m *InstancedMesh) RenderAreas(subMeshIndex, start, count int, effect *metadata.Effect) {
	// Residency is extended even when the draw is skipped below.
	if m.geometryResource != nil {
		m.geometryResource.KeepAlive()
	}
	if ka, ok := m.instanceDataResource.(metadata.KeepAliver); ok {
		ka.KeepAlive()
	}

	if m.geometryResource == nil || m.instanceDataResource == nil {
		return
	}
	if !m.geometryResource.IsReady() {
		return
	}

	idx := m.InstanceStreamIndex
	buffer := m.instanceDataResource.InstanceBuffer(idx)
	if buffer == nil {
		return
	}
	m.geometryResource.DrawInstanced(subMeshIndex, start, count, effect,
		buffer,
		m.instanceDataResource.InstanceLayout(idx),
		m.instanceDataResource.InstanceStride(idx),
		m.instanceDataResource.InstanceCount(idx))
}
