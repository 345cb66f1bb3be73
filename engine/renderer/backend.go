package renderer

import "github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"

// RendererBackend is implemented by each graphics API.
type RendererBackend interface {
	Initialize(appName string) error
	Shutdown() error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error)
	RenderBufferLoadRange(buffer *metadata.RenderBuffer, offset uint64, data []byte) error
	RenderBufferDestroy(buffer *metadata.RenderBuffer)
	DrawInstanced(cmd *metadata.InstancedDrawCommand)
}

// ResizableBackend is implemented by backends whose render target follows
// the window size.
type ResizableBackend interface {
	Resize(width, height uint32)
}
