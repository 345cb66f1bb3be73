package views

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// RenderViewPick draws pickable areas with the picking effect, which writes
// the per object id of each batch.
type RenderViewPick struct {
	effect  *metadata.Effect
	enabled bool
}

func NewRenderViewPick(pickEffect *metadata.Effect) *RenderViewPick {
	return &RenderViewPick{effect: pickEffect, enabled: true}
}

// SetEnabled turns the pass on or off. The renderer skips disabled views.
func (v *RenderViewPick) SetEnabled(enabled bool) {
	v.enabled = enabled
}

func (v *RenderViewPick) Enabled() bool                    { return v.enabled }
func (v *RenderViewPick) Name() string                     { return "pick" }
func (v *RenderViewPick) Mode() metadata.RenderMode        { return metadata.RenderModePickable }
func (v *RenderViewPick) OverrideEffect() *metadata.Effect { return v.effect }
func (v *RenderViewPick) Sort() batch.SortFunc             { return batch.NoSort }
