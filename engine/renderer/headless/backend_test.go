package headless

import (
	"testing"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameProtocol(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.BeginFrame(0), core.ErrBackendNotAvailable)
	require.NoError(t, b.Initialize("test"))

	b.DrawInstanced(&metadata.InstancedDrawCommand{IndexCount: 1})
	assert.Zero(t, b.TotalDraws())

	require.NoError(t, b.BeginFrame(0))
	assert.Error(t, b.BeginFrame(0))
	b.DrawInstanced(&metadata.InstancedDrawCommand{IndexCount: 3})
	b.DrawInstanced(&metadata.InstancedDrawCommand{IndexCount: 6})
	assert.Empty(t, b.LastFrameDraws())
	require.NoError(t, b.EndFrame(0))
	assert.Error(t, b.EndFrame(0))

	draws := b.LastFrameDraws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(6), draws[1].IndexCount)
	assert.Equal(t, uint64(1), b.FrameNumber())

	require.NoError(t, b.BeginFrame(0))
	require.NoError(t, b.EndFrame(0))
	assert.Empty(t, b.LastFrameDraws())
	assert.Equal(t, uint64(2), b.TotalDraws())
}

func TestBuffers(t *testing.T) {
	b := New()
	require.NoError(t, b.Initialize("test"))

	buf, err := b.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_INSTANCE, 8)
	require.NoError(t, err)
	assert.Equal(t, metadata.RENDERBUFFER_TYPE_INSTANCE, buf.RenderBufferType)
	require.NoError(t, b.RenderBufferLoadRange(buf, 4, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, b.BufferData(buf))

	assert.Error(t, b.RenderBufferLoadRange(&metadata.RenderBuffer{}, 0, nil))
	assert.Nil(t, b.BufferData(&metadata.RenderBuffer{}))

	b.RenderBufferDestroy(buf)
	assert.Nil(t, buf.InternalData)
	assert.Zero(t, b.LiveBuffers())
	require.NoError(t, b.Shutdown())
}
