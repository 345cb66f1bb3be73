package mesh

import (
	"testing"

	"github.com/spaghettifunk/anima-instancing/engine/math"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fx1 = &metadata.Effect{ID: 1, Name: "e1", ShaderName: "lit"}
	fx2 = &metadata.Effect{ID: 2, Name: "e2", ShaderName: "lit"}
	fx3 = &metadata.Effect{ID: 3, Name: "e3", ShaderName: "lit"}
)

var _ Mesh = (*InstancedMesh)(nil)
var _ batch.RenderBatch = (*InstancedMeshBatch)(nil)
var _ batch.Sortable = (*InstancedMeshBatch)(nil)

func readyMesh() (*InstancedMesh, *fakeGeometry, *keptInstances) {
	g := &fakeGeometry{ready: true}
	r := newKeptInstances()
	m := NewInstancedMesh(nil, InstancedMeshConfig{Name: "rocks"})
	m.SetGeometryResource(g)
	m.SetInstanceDataResource(r)
	return m, g, r
}

func TestGenerateAreaBatchesScenarioA(t *testing.T) {
	m, _, _ := readyMesh()
	hidden := metadata.NewMeshArea("b", fx2, 0, 1, 1)
	hidden.Visible = false
	areas := []*metadata.MeshArea{
		metadata.NewMeshArea("a", fx1, 0, 0, 1),
		hidden,
		metadata.NewMeshArea("c", fx3, 1, 2, 3),
	}
	pod := &metadata.PerObjectData{ObjectID: 7}

	rec := &recorder{}
	m.GenerateAreaBatches(areas, metadata.RenderModeOpaque, rec, pod)

	require.Len(t, rec.batches, 2)
	assert.Same(t, fx1, rec.batches[0].Effect())
	assert.Same(t, fx3, rec.batches[1].Effect())

	b := rec.batches[1]
	sub, start, count := b.Range()
	assert.Equal(t, []int{1, 2, 3}, []int{sub, start, count})
	assert.Equal(t, metadata.RenderModeOpaque, b.RenderMode())
	assert.Same(t, pod, b.PerObjectData())
	assert.Same(t, m, b.sourceMesh)
}

func TestGenerateAreaBatchesSkipsIneligible(t *testing.T) {
	m, _, _ := readyMesh()
	hidden := metadata.NewMeshArea("hidden", fx1, 0, 0, 1)
	hidden.Visible = false
	areas := []*metadata.MeshArea{
		metadata.NewMeshArea("no-effect", nil, 0, 0, 1),
		hidden,
		nil,
	}

	rec := &recorder{}
	m.GenerateAreaBatches(areas, metadata.RenderModeOpaque, rec, nil)
	assert.Empty(t, rec.batches)

	m.GenerateAreaBatches(nil, metadata.RenderModeOpaque, rec, nil)
	assert.Empty(t, rec.batches)
}

func TestGenerateAreaBatchesPreservesOrder(t *testing.T) {
	m, _, _ := readyMesh()
	var areas []*metadata.MeshArea
	for i := 0; i < 10; i++ {
		areas = append(areas, metadata.NewMeshArea("", fx1, 0, i, 1))
	}
	rec := &recorder{}
	m.GenerateAreaBatches(areas, metadata.RenderModeOpaque, rec, nil)
	require.Len(t, rec.batches, 10)
	for i, b := range rec.batches {
		_, start, _ := b.Range()
		assert.Equal(t, i, start)
	}
}

func TestGetBatches(t *testing.T) {
	m, _, _ := readyMesh()
	m.AddArea(metadata.RenderModeOpaque, metadata.NewMeshArea("body", fx1, 0, 0, 1))
	m.AddArea(metadata.RenderModeTransparent, metadata.NewMeshArea("glass", fx2, 0, 1, 1))

	rec := &recorder{}
	m.GetBatches(metadata.RenderModeTransparent, rec, nil)
	require.Len(t, rec.batches, 1)
	assert.Same(t, fx2, rec.batches[0].Effect())

	m.Display = false
	rec = &recorder{}
	m.GetBatches(metadata.RenderModeOpaque, rec, nil)
	assert.Empty(t, rec.batches)
}

func TestRenderAreasDraws(t *testing.T) {
	m, g, r := readyMesh()
	m.RenderAreas(1, 2, 3, fx1)

	assert.Equal(t, 1, g.keepAlives)
	assert.Equal(t, 1, r.keepAlives)
	require.Len(t, g.draws, 1)
	want := r.streams[0]
	assert.Equal(t, drawCall{1, 2, 3, fx1, want.buffer, want.layout, 16, 4}, g.draws[0])
}

func TestRenderAreasScenarioB(t *testing.T) {
	m, g, r := readyMesh()
	m.InstanceStreamIndex = 3

	m.RenderAreas(0, 0, 1, fx1)
	assert.Equal(t, 1, g.keepAlives)
	assert.Equal(t, 1, r.keepAlives)
	assert.Empty(t, g.draws)
}

func TestRenderAreasScenarioD(t *testing.T) {
	m, _, r := readyMesh()
	m.SetGeometryResource(nil)

	m.RenderAreas(0, 0, 1, fx1)
	assert.Equal(t, 1, r.keepAlives)
	assert.Equal(t, StateNoResources, m.State())
}

func TestRenderAreasNoOps(t *testing.T) {
	t.Run("instance resource missing", func(t *testing.T) {
		m, g, _ := readyMesh()
		m.SetInstanceDataResource(nil)
		m.RenderAreas(0, 0, 1, fx1)
		assert.Equal(t, 1, g.keepAlives)
		assert.Empty(t, g.draws)
	})
	t.Run("geometry not ready", func(t *testing.T) {
		m, g, r := readyMesh()
		g.ready = false
		m.RenderAreas(0, 0, 1, fx1)
		assert.Equal(t, 1, g.keepAlives)
		assert.Equal(t, 1, r.keepAlives)
		assert.Empty(t, g.draws)
		assert.Equal(t, StatePendingLoad, m.State())

		// becomes drawable as soon as the geometry is ready, nothing is cached
		g.ready = true
		assert.Equal(t, StateReady, m.State())
		m.RenderAreas(0, 0, 1, fx1)
		assert.Len(t, g.draws, 1)
	})
	t.Run("instance resource without keep alive", func(t *testing.T) {
		m, g, r := readyMesh()
		m.SetInstanceDataResource(&r.fakeInstances)
		m.RenderAreas(0, 0, 1, fx1)
		assert.Equal(t, 1, g.keepAlives)
		assert.Len(t, g.draws, 1)
	})
	t.Run("both missing", func(t *testing.T) {
		m := NewInstancedMesh(nil, InstancedMeshConfig{})
		assert.NotPanics(t, func() { m.RenderAreas(0, 0, 1, fx1) })
	})
}

func TestCommit(t *testing.T) {
	override := &metadata.Effect{Name: metadata.DepthEffectName}

	t.Run("stored effect", func(t *testing.T) {
		m, g, _ := readyMesh()
		b := &InstancedMeshBatch{sourceMesh: m, subMeshIndex: 1, start: 2, count: 3, effect: fx1}
		b.Commit(nil)
		require.Len(t, g.draws, 1)
		assert.Same(t, fx1, g.draws[0].effect)
		assert.Equal(t, []int{1, 2, 3}, []int{g.draws[0].subMeshIndex, g.draws[0].start, g.draws[0].count})
	})
	t.Run("override effect", func(t *testing.T) {
		m, g, _ := readyMesh()
		b := &InstancedMeshBatch{sourceMesh: m, effect: fx1}
		b.Commit(override)
		require.Len(t, g.draws, 1)
		assert.Same(t, override, g.draws[0].effect)
		assert.Same(t, fx1, b.Effect(), "stored effect is untouched")
	})
	t.Run("override on batch without effect", func(t *testing.T) {
		m, g, _ := readyMesh()
		b := &InstancedMeshBatch{sourceMesh: m}
		b.Commit(override)
		assert.Len(t, g.draws, 1)
	})
	t.Run("scenario C", func(t *testing.T) {
		m, g, r := readyMesh()
		b := &InstancedMeshBatch{sourceMesh: m}
		b.Commit(nil)
		assert.Empty(t, g.draws)
		assert.Zero(t, g.keepAlives)
		assert.Zero(t, r.keepAlives)
	})
	t.Run("no source mesh", func(t *testing.T) {
		b := &InstancedMeshBatch{effect: fx1}
		assert.NotPanics(t, func() { b.Commit(nil) })
	})
}

func TestAccumulateThenCommit(t *testing.T) {
	m, g, _ := readyMesh()
	m.AddArea(metadata.RenderModeOpaque, metadata.NewMeshArea("a", fx2, 0, 0, 1))
	m.AddArea(metadata.RenderModeOpaque, metadata.NewMeshArea("b", fx1, 0, 1, 1))

	acc := batch.NewAccumulator(batch.ByRenderState)
	m.GetBatches(metadata.RenderModeOpaque, acc, nil)
	assert.Empty(t, g.draws, "accumulating issues no draws")

	assert.Equal(t, 2, acc.Render(nil))
	require.Len(t, g.draws, 2)
	assert.Same(t, fx1, g.draws[0].effect, "accumulator reorders by effect")
	assert.Same(t, fx2, g.draws[1].effect)
	acc.Clear()
}

func TestInitializeAndDestroy(t *testing.T) {
	p := newFakeProvider()
	m := NewInstancedMesh(p, InstancedMeshConfig{
		Name:                    "rocks",
		GeometryResPath:         "rock.geom",
		InstanceGeometryResPath: "field.inst",
		InstanceStreamIndex:     0,
	})
	assert.Equal(t, StateNoResources, m.State())

	m.Initialize()
	assert.Equal(t, []string{"rock.geom", "field.inst"}, p.acquired)
	assert.Equal(t, StatePendingLoad, m.State())

	p.geometry["rock.geom"].ready = true
	assert.Equal(t, StateReady, m.State())

	acc := batch.NewAccumulator(batch.NoSort)
	m.AddArea(metadata.RenderModeOpaque, metadata.NewMeshArea("a", fx1, 0, 0, 1))
	m.GetBatches(metadata.RenderModeOpaque, acc, nil)

	m.Destroy()
	assert.Equal(t, []string{"rock.geom", "field.inst"}, p.released)
	assert.Nil(t, m.GeometryResource())
	assert.Nil(t, m.InstanceDataResource())

	// a batch committed after destruction does nothing
	acc.Render(nil)
	assert.Empty(t, p.geometry["rock.geom"].draws)
}

func TestInitializeWithoutInstancePath(t *testing.T) {
	p := newFakeProvider()
	m := NewInstancedMesh(p, InstancedMeshConfig{GeometryResPath: "rock.geom"})
	m.Initialize()
	p.geometry["rock.geom"].ready = true

	assert.Nil(t, m.InstanceDataResource())
	m.RenderAreas(0, 0, 1, fx1)
	assert.Empty(t, p.geometry["rock.geom"].draws)
	assert.Equal(t, 1, p.geometry["rock.geom"].keepAlives)

	m.Destroy()
	assert.Equal(t, []string{"rock.geom"}, p.released)
}

func TestSetBounds(t *testing.T) {
	m := NewInstancedMesh(nil, InstancedMeshConfig{})
	m.SetBounds(math.NewVec3(1, -1, 5), math.NewVec3(-1, 1, 2))
	min, max := m.Bounds()
	assert.Equal(t, math.NewVec3(-1, -1, 2), min)
	assert.Equal(t, math.NewVec3(1, 1, 5), max)
}
