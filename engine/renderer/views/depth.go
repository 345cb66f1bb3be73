package views

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// RenderViewDepth renders the geometry of a mode with a single depth only
// effect. Submission order is kept since every batch shares the effect.
type RenderViewDepth struct {
	mode   metadata.RenderMode
	effect *metadata.Effect
}

func NewRenderViewDepth(mode metadata.RenderMode, depthEffect *metadata.Effect) *RenderViewDepth {
	return &RenderViewDepth{mode: mode, effect: depthEffect}
}

func (v *RenderViewDepth) Name() string                     { return "depth" }
func (v *RenderViewDepth) Mode() metadata.RenderMode        { return v.mode }
func (v *RenderViewDepth) OverrideEffect() *metadata.Effect { return v.effect }
func (v *RenderViewDepth) Sort() batch.SortFunc             { return batch.NoSort }
