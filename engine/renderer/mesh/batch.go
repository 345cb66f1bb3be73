package mesh

import "github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"

// InstancedMeshBatch is a one frame draw record for an area of an
// InstancedMesh. The mesh reference is not owning: a batch must not be
// committed after its mesh was destroyed in the same frame.
type InstancedMeshBatch struct {
	renderMode    metadata.RenderMode
	perObjectData *metadata.PerObjectData
	sourceMesh    Mesh
	subMeshIndex  int
	start         int
	count         int
	effect        *metadata.Effect
}

// Commit draws the batch with overrideEffect, or with the area effect when
// overrideEffect is nil. Nothing is drawn without a mesh or an effect.
func (b *InstancedMeshBatch) Commit(overrideEffect *metadata.Effect) {
	effect := b.effect
	if overrideEffect != nil {
		effect = overrideEffect
	}
	if b.sourceMesh != nil && effect != nil {
		b.sourceMesh.RenderAreas(b.subMeshIndex, b.start, b.count, effect)
	}
}

func (b *InstancedMeshBatch) RenderMode() metadata.RenderMode {
	return b.renderMode
}

func (b *InstancedMeshBatch) Effect() *metadata.Effect {
	return b.effect
}

func (b *InstancedMeshBatch) PerObjectData() *metadata.PerObjectData {
	return b.perObjectData
}

// Range returns the sub-mesh and geometry area range the batch draws.
func (b *InstancedMeshBatch) Range() (subMeshIndex, start, count int) {
	return b.subMeshIndex, b.start, b.count
}
