package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type buffer struct {
	id   uint64
	data []byte
}

/**
 * @brief A backend without a GPU. Buffers live in memory and draws are
 * recorded per frame, which is what tests and non windowed runs need.
 */
type Backend struct {
	mutex       sync.Mutex
	appName     string
	initialized bool
	inFrame     bool
	frameNumber uint64
	nextID      uint64
	live        map[uint64]*buffer
	frameDraws  []metadata.InstancedDrawCommand
	lastDraws   []metadata.InstancedDrawCommand
	totalDraws  uint64
}

func New() *Backend {
	return &Backend{live: make(map[uint64]*buffer)}
}

func (b *Backend) Initialize(appName string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.appName = appName
	b.initialized = true
	core.LogDebug("headless backend initialized for '%s'", appName)
	return nil
}

func (b *Backend) Shutdown() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if n := len(b.live); n > 0 {
		core.LogWarn("headless backend shut down with %d live buffers", n)
	}
	clear(b.live)
	b.initialized = false
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.initialized {
		return core.ErrBackendNotAvailable
	}
	if b.inFrame {
		return fmt.Errorf("frame %d already begun", b.frameNumber)
	}
	b.inFrame = true
	b.frameDraws = b.frameDraws[:0]
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.inFrame {
		return fmt.Errorf("end frame without begin frame")
	}
	b.inFrame = false
	b.lastDraws = append(b.lastDraws[:0], b.frameDraws...)
	b.frameNumber++
	return nil
}

func (b *Backend) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.initialized {
		return nil, core.ErrBackendNotAvailable
	}
	b.nextID++
	buf := &buffer{id: b.nextID, data: make([]byte, totalSize)}
	b.live[buf.id] = buf
	return &metadata.RenderBuffer{
		RenderBufferType: renderbufferType,
		TotalSize:        totalSize,
		InternalData:     buf,
	}, nil
}

func (b *Backend) RenderBufferLoadRange(rb *metadata.RenderBuffer, offset uint64, data []byte) error {
	buf, ok := rb.InternalData.(*buffer)
	if !ok {
		return fmt.Errorf("render buffer was not created by the headless backend")
	}
	if offset+uint64(len(data)) > rb.TotalSize {
		return fmt.Errorf("load range [%d, %d) exceeds buffer size %d", offset, offset+uint64(len(data)), rb.TotalSize)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	copy(buf.data[offset:], data)
	return nil
}

func (b *Backend) RenderBufferDestroy(rb *metadata.RenderBuffer) {
	buf, ok := rb.InternalData.(*buffer)
	if !ok {
		return
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.live, buf.id)
	rb.InternalData = nil
}

func (b *Backend) DrawInstanced(cmd *metadata.InstancedDrawCommand) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.inFrame {
		return
	}
	b.frameDraws = append(b.frameDraws, *cmd)
	b.totalDraws++
}

// LastFrameDraws returns the draws recorded by the last completed frame.
func (b *Backend) LastFrameDraws() []metadata.InstancedDrawCommand {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]metadata.InstancedDrawCommand(nil), b.lastDraws...)
}

func (b *Backend) TotalDraws() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.totalDraws
}

func (b *Backend) FrameNumber() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.frameNumber
}

func (b *Backend) LiveBuffers() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.live)
}

// BufferData returns a copy of the contents of rb.
func (b *Backend) BufferData(rb *metadata.RenderBuffer) []byte {
	buf, ok := rb.InternalData.(*buffer)
	if !ok {
		return nil
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]byte(nil), buf.data...)
}
