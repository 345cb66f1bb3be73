package resources

import (
	"unsafe"

	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// Backend is the part of the renderer backend resources need.
type Backend interface {
	RenderBufferCreate(bufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error)
	RenderBufferLoadRange(buffer *metadata.RenderBuffer, offset uint64, data []byte) error
	RenderBufferDestroy(buffer *metadata.RenderBuffer)
	DrawInstanced(cmd *metadata.InstancedDrawCommand)
}

/** @brief A named index range of a sub-mesh. */
type GeometryArea struct {
	Name       string
	FirstIndex uint32
	IndexCount uint32
}

/** @brief Parsed sub-mesh, ready to upload. */
type SubMeshData struct {
	Name     string
	Layout   metadata.VertexLayout
	Stride   uint32
	Vertices []float32
	Indices  []uint32
	Areas    []GeometryArea
	Bounds   math.Extents3D
}

// VertexCount is the number of whole vertices in Vertices.
func (s *SubMeshData) VertexCount() uint32 {
	if s.Stride == 0 {
		return 0
	}
	return uint32(len(s.Vertices)*4) / s.Stride
}

/** @brief Output of the geometry loader. */
type GeometryData struct {
	Name   string
	Meshes []*SubMeshData
}

/** @brief One parsed per-instance attribute stream. */
type InstanceStreamData struct {
	Name   string
	Layout metadata.VertexLayout
	Stride uint32
	Count  uint32
	Data   []float32
}

/** @brief Output of the instance data loader. */
type InstanceData struct {
	Streams []*InstanceStreamData
}

func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

func uint32Bytes(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// uploadBuffer creates a buffer of the given type and fills it with data.
func uploadBuffer(backend Backend, bufferType metadata.RenderBufferType, data []byte) (*metadata.RenderBuffer, error) {
	buffer, err := backend.RenderBufferCreate(bufferType, uint64(len(data)))
	if err != nil {
		return nil, err
	}
	if err := backend.RenderBufferLoadRange(buffer, 0, data); err != nil {
		backend.RenderBufferDestroy(buffer)
		return nil, err
	}
	return buffer, nil
}
