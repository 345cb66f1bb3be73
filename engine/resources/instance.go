package resources

import (
	"fmt"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type gpuStream struct {
	name   string
	layout metadata.VertexLayout
	stride uint32
	count  uint32
	buffer *metadata.RenderBuffer
}

/**
 * @brief Named streams of per-instance attributes.
 */
type InstanceDataResource struct {
	Handle
	backend Backend
	streams []*gpuStream
}

func NewInstanceDataResource(path, fullPath string, owner Owner, backend Backend) *InstanceDataResource {
	r := &InstanceDataResource{backend: backend}
	r.init(r, path, fullPath, metadata.ResourceTypeInstanceData, owner)
	return r
}

func (r *InstanceDataResource) Base() *Handle {
	return &r.Handle
}

func (r *InstanceDataResource) Prepare(res *metadata.Resource) error {
	data, ok := res.Data.(*InstanceData)
	if !ok || data == nil {
		return fmt.Errorf("%w: %s is not instance data", core.ErrInvalidAsset, res.FullPath)
	}
	r.Unload()

	streams := make([]*gpuStream, 0, len(data.Streams))
	for _, s := range data.Streams {
		gs := &gpuStream{name: s.Name, layout: s.Layout, stride: s.Stride, count: s.Count}
		if s.Count > 0 {
			buffer, err := uploadBuffer(r.backend, metadata.RENDERBUFFER_TYPE_INSTANCE, float32Bytes(s.Data))
			if err != nil {
				for _, done := range streams {
					r.backend.RenderBufferDestroy(done.buffer)
				}
				return fmt.Errorf("stream %q: %w", s.Name, err)
			}
			gs.buffer = buffer
		}
		streams = append(streams, gs)
	}
	r.streams = streams
	return nil
}

func (r *InstanceDataResource) Unload() {
	for _, s := range r.streams {
		if s.buffer != nil {
			r.backend.RenderBufferDestroy(s.buffer)
		}
	}
	r.streams = nil
}

func (r *InstanceDataResource) stream(i int) *gpuStream {
	if i < 0 || i >= len(r.streams) {
		return nil
	}
	return r.streams[i]
}

func (r *InstanceDataResource) StreamCount() int {
	return len(r.streams)
}

// StreamIndex returns the index of the named stream, or -1.
func (r *InstanceDataResource) StreamIndex(name string) int {
	for i, s := range r.streams {
		if s.name == name {
			return i
		}
	}
	return -1
}

func (r *InstanceDataResource) InstanceBuffer(streamIndex int) *metadata.RenderBuffer {
	if s := r.stream(streamIndex); s != nil {
		return s.buffer
	}
	return nil
}

func (r *InstanceDataResource) InstanceLayout(streamIndex int) *metadata.VertexLayout {
	if s := r.stream(streamIndex); s != nil {
		return &s.layout
	}
	return nil
}

func (r *InstanceDataResource) InstanceStride(streamIndex int) uint32 {
	if s := r.stream(streamIndex); s != nil {
		return s.stride
	}
	return 0
}

func (r *InstanceDataResource) InstanceCount(streamIndex int) uint32 {
	if s := r.stream(streamIndex); s != nil {
		return s.count
	}
	return 0
}
