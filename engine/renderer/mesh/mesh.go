// Package mesh turns visible meshes into deferred batches and, when those
// batches are committed, into draw calls.
package mesh

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// Mesh is the capability set shared by every mesh variant.
type Mesh interface {
	// Initialize resolves resource paths. It never blocks.
	Initialize()
	// GenerateAreaBatches submits one batch per drawable area, in order.
	GenerateAreaBatches(areas []*metadata.MeshArea, mode metadata.RenderMode, accumulator batch.Submitter, perObjectData *metadata.PerObjectData)
	// RenderAreas performs the draw for a committed batch.
	RenderAreas(subMeshIndex, start, count int, effect *metadata.Effect)
}

// State describes whether a mesh can draw in the current frame.
type State int

const (
	// StateNoResources means a geometry or instance resource is missing.
	StateNoResources State = iota
	// StatePendingLoad means the geometry is still streaming in.
	StatePendingLoad
	// StateReady means the next RenderAreas call will draw.
	StateReady
)

func (s State) String() string {
	switch s {
	case StatePendingLoad:
		return "pending-load"
	case StateReady:
		return "ready"
	default:
		return "no-resources"
	}
}
