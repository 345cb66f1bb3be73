package views

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// RenderViewWorld draws areas of one mode with their own effects, sorted to
// minimize state changes.
type RenderViewWorld struct {
	name string
	mode metadata.RenderMode
}

func NewRenderViewWorld(name string, mode metadata.RenderMode) *RenderViewWorld {
	return &RenderViewWorld{name: name, mode: mode}
}

func (v *RenderViewWorld) Name() string                     { return v.name }
func (v *RenderViewWorld) Mode() metadata.RenderMode        { return v.mode }
func (v *RenderViewWorld) OverrideEffect() *metadata.Effect { return nil }
func (v *RenderViewWorld) Sort() batch.SortFunc             { return batch.ByRenderState }
