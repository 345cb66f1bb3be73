package mesh

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type drawCall struct {
	subMeshIndex, start, count int
	effect                     *metadata.Effect
	buffer                     *metadata.RenderBuffer
	layout                     *metadata.VertexLayout
	stride, instances          uint32
}

type fakeGeometry struct {
	ready      bool
	keepAlives int
	draws      []drawCall
}

func (g *fakeGeometry) KeepAlive()    { g.keepAlives++ }
func (g *fakeGeometry) IsReady() bool { return g.ready }

func (g *fakeGeometry) DrawInstanced(subMeshIndex, start, count int, effect *metadata.Effect, instanceBuffer *metadata.RenderBuffer, instanceLayout *metadata.VertexLayout, instanceStride, instanceCount uint32) {
	g.draws = append(g.draws, drawCall{subMeshIndex, start, count, effect, instanceBuffer, instanceLayout, instanceStride, instanceCount})
}

type stream struct {
	buffer *metadata.RenderBuffer
	layout *metadata.VertexLayout
	stride uint32
	count  uint32
}

// fakeInstances does not implement KeepAlive.
type fakeInstances struct {
	streams map[int]stream
}

func (r *fakeInstances) InstanceBuffer(i int) *metadata.RenderBuffer { return r.streams[i].buffer }
func (r *fakeInstances) InstanceLayout(i int) *metadata.VertexLayout { return r.streams[i].layout }
func (r *fakeInstances) InstanceStride(i int) uint32                 { return r.streams[i].stride }
func (r *fakeInstances) InstanceCount(i int) uint32                  { return r.streams[i].count }

type keptInstances struct {
	fakeInstances
	keepAlives int
}

func (r *keptInstances) KeepAlive() { r.keepAlives++ }

func newKeptInstances() *keptInstances {
	return &keptInstances{
		fakeInstances: fakeInstances{
			streams: map[int]stream{
				0: {
					buffer: &metadata.RenderBuffer{RenderBufferType: metadata.RENDERBUFFER_TYPE_INSTANCE, TotalSize: 64},
					layout: &metadata.VertexLayout{Elements: []metadata.VertexElement{{Usage: metadata.VertexUsageTexCoord, UsageIndex: 1, Components: 4}}},
					stride: 16,
					count:  4,
				},
			},
		},
	}
}

type fakeProvider struct {
	geometry  map[string]*fakeGeometry
	instances map[string]*keptInstances
	acquired  []string
	released  []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		geometry:  make(map[string]*fakeGeometry),
		instances: make(map[string]*keptInstances),
	}
}

func (p *fakeProvider) AcquireGeometry(path string) metadata.GeometryResource {
	p.acquired = append(p.acquired, path)
	g, ok := p.geometry[path]
	if !ok {
		g = &fakeGeometry{}
		p.geometry[path] = g
	}
	return g
}

func (p *fakeProvider) AcquireInstanceData(path string) metadata.InstanceDataResource {
	p.acquired = append(p.acquired, path)
	r, ok := p.instances[path]
	if !ok {
		r = newKeptInstances()
		p.instances[path] = r
	}
	return r
}

func (p *fakeProvider) Release(path string) {
	p.released = append(p.released, path)
}

// recorder is a batch.Submitter keeping batches in order.
type recorder struct {
	batches []*InstancedMeshBatch
}

func (r *recorder) Submit(b batch.RenderBatch) {
	r.batches = append(r.batches, b.(*InstancedMeshBatch))
}
