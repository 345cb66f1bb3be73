package views

import (
	"testing"

	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
)

func TestWorldView(t *testing.T) {
	v := NewRenderViewWorld("world", metadata.RenderModeOpaque)
	assert.Equal(t, "world", v.Name())
	assert.Equal(t, metadata.RenderModeOpaque, v.Mode())
	assert.Nil(t, v.OverrideEffect())
	assert.NotNil(t, v.Sort())
}

func TestDepthView(t *testing.T) {
	depth := &metadata.Effect{Name: metadata.DepthEffectName}
	v := NewRenderViewDepth(metadata.RenderModeOpaque, depth)
	assert.Equal(t, "depth", v.Name())
	assert.Equal(t, metadata.RenderModeOpaque, v.Mode())
	assert.Same(t, depth, v.OverrideEffect())
	assert.Nil(t, v.Sort())
}

func TestPickView(t *testing.T) {
	pick := &metadata.Effect{Name: metadata.PickingEffectName}
	v := NewRenderViewPick(pick)
	assert.True(t, v.Enabled())
	assert.Equal(t, metadata.RenderModePickable, v.Mode())
	assert.Same(t, pick, v.OverrideEffect())

	v.SetEnabled(false)
	assert.False(t, v.Enabled())
	var sort batch.SortFunc = v.Sort()
	assert.Nil(t, sort)
}
