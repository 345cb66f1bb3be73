package resources

import (
	"fmt"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type gpuSubMesh struct {
	name         string
	layout       metadata.VertexLayout
	stride       uint32
	areas        []GeometryArea
	bounds       math.Extents3D
	vertexBuffer *metadata.RenderBuffer
	indexBuffer  *metadata.RenderBuffer
}

/**
 * @brief Base mesh vertex and index data, partitioned into sub-meshes and
 * named index ranges (areas).
 */
type GeometryResource struct {
	Handle
	backend Backend
	meshes  []*gpuSubMesh
}

func NewGeometryResource(path, fullPath string, owner Owner, backend Backend) *GeometryResource {
	g := &GeometryResource{backend: backend}
	g.init(g, path, fullPath, metadata.ResourceTypeGeometry, owner)
	return g
}

func (g *GeometryResource) Base() *Handle {
	return &g.Handle
}

func (g *GeometryResource) Prepare(res *metadata.Resource) error {
	data, ok := res.Data.(*GeometryData)
	if !ok || data == nil {
		return fmt.Errorf("%w: %s is not geometry data", core.ErrInvalidAsset, res.FullPath)
	}
	g.Unload()

	meshes := make([]*gpuSubMesh, 0, len(data.Meshes))
	for _, sm := range data.Meshes {
		vb, err := uploadBuffer(g.backend, metadata.RENDERBUFFER_TYPE_VERTEX, float32Bytes(sm.Vertices))
		if err != nil {
			destroySubMeshes(g.backend, meshes)
			return fmt.Errorf("sub-mesh %q vertex buffer: %w", sm.Name, err)
		}
		ib, err := uploadBuffer(g.backend, metadata.RENDERBUFFER_TYPE_INDEX, uint32Bytes(sm.Indices))
		if err != nil {
			g.backend.RenderBufferDestroy(vb)
			destroySubMeshes(g.backend, meshes)
			return fmt.Errorf("sub-mesh %q index buffer: %w", sm.Name, err)
		}
		meshes = append(meshes, &gpuSubMesh{
			name:         sm.Name,
			layout:       sm.Layout,
			stride:       sm.Stride,
			areas:        sm.Areas,
			bounds:       sm.Bounds,
			vertexBuffer: vb,
			indexBuffer:  ib,
		})
	}
	g.meshes = meshes
	return nil
}

func (g *GeometryResource) Unload() {
	destroySubMeshes(g.backend, g.meshes)
	g.meshes = nil
}

func destroySubMeshes(backend Backend, meshes []*gpuSubMesh) {
	for _, m := range meshes {
		backend.RenderBufferDestroy(m.vertexBuffer)
		backend.RenderBufferDestroy(m.indexBuffer)
	}
}

func (g *GeometryResource) SubMeshCount() int {
	return len(g.meshes)
}

func (g *GeometryResource) AreaCount(subMeshIndex int) int {
	if subMeshIndex < 0 || subMeshIndex >= len(g.meshes) {
		return 0
	}
	return len(g.meshes[subMeshIndex].areas)
}

// Bounds returns the union of every sub-mesh bounds.
func (g *GeometryResource) Bounds() (math.Extents3D, bool) {
	if len(g.meshes) == 0 {
		return math.Extents3D{}, false
	}
	b := g.meshes[0].bounds
	for _, m := range g.meshes[1:] {
		b = math.Extents3D{
			Min: math.NormalizeBounds(b.Min, m.bounds.Min).Min,
			Max: math.NormalizeBounds(b.Max, m.bounds.Max).Max,
		}
	}
	return b, true
}

// DrawInstanced issues one draw per run of index-contiguous areas in
// [start, start+count). Out of range requests draw nothing.
func (g *GeometryResource) DrawInstanced(subMeshIndex, start, count int, effect *metadata.Effect, instanceBuffer *metadata.RenderBuffer, instanceLayout *metadata.VertexLayout, instanceStride, instanceCount uint32) {
	if !g.IsReady() || instanceBuffer == nil || instanceCount == 0 {
		return
	}
	if subMeshIndex < 0 || subMeshIndex >= len(g.meshes) {
		return
	}
	m := g.meshes[subMeshIndex]
	start, count = math.ClampRange(start, count, len(m.areas))
	if count == 0 {
		return
	}

	draw := func(first, indexCount uint32) {
		if indexCount == 0 {
			return
		}
		g.backend.DrawInstanced(&metadata.InstancedDrawCommand{
			VertexBuffer:   m.vertexBuffer,
			VertexLayout:   &m.layout,
			VertexStride:   m.stride,
			IndexBuffer:    m.indexBuffer,
			FirstIndex:     first,
			IndexCount:     indexCount,
			Effect:         effect,
			InstanceBuffer: instanceBuffer,
			InstanceLayout: instanceLayout,
			InstanceStride: instanceStride,
			InstanceCount:  instanceCount,
		})
	}

	runFirst, runCount := m.areas[start].FirstIndex, m.areas[start].IndexCount
	for _, a := range m.areas[start+1 : start+count] {
		if a.FirstIndex == runFirst+runCount {
			runCount += a.IndexCount
			continue
		}
		draw(runFirst, runCount)
		runFirst, runCount = a.FirstIndex, a.IndexCount
	}
	draw(runFirst, runCount)
}
