package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/batch"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

// Renderable is anything able to emit batches for a render mode.
type Renderable interface {
	GetBatches(mode metadata.RenderMode, accumulator batch.Submitter, perObjectData *metadata.PerObjectData)
}

/** @brief An object handed to the renderer for one frame. */
type RenderObject struct {
	Source        Renderable
	PerObjectData *metadata.PerObjectData
}

// View is one pass over the frame's objects.
type View interface {
	Name() string
	// Mode selects which areas the pass collects.
	Mode() metadata.RenderMode
	// OverrideEffect replaces every batch effect when non-nil.
	OverrideEffect() *metadata.Effect
	Sort() batch.SortFunc
}

// Toggleable views are skipped while Enabled reports false.
type Toggleable interface {
	Enabled() bool
}

type viewState struct {
	view        View
	accumulator *batch.Accumulator
}

/** @brief Per frame counters returned by DrawFrame. */
type FrameStats struct {
	Batches int
	Draws   int
}

/**
 * @brief Drives the backend. It forwards buffer calls so resources can use
 * the renderer as their backend while draws are counted.
 */
type Renderer struct {
	backend    RendererBackend
	views      []*viewState
	frameDraws int
	inFrame    bool

	// state of the batch being committed, stamped on its draws
	batchMode   metadata.RenderMode
	batchObject *metadata.PerObjectData
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend, batchMode: metadata.RenderModeAny}
}

func (r *Renderer) Initialize(appName string) error {
	if r.backend == nil {
		return core.ErrBackendNotAvailable
	}
	if err := r.backend.Initialize(appName); err != nil {
		return fmt.Errorf("renderer backend initialization: %w", err)
	}
	core.LogInfo("renderer initialized")
	return nil
}

// OnResized forwards a new framebuffer size to backends that track it.
func (r *Renderer) OnResized(width, height uint32) {
	if rb, ok := r.backend.(ResizableBackend); ok {
		rb.Resize(width, height)
	}
}

func (r *Renderer) Shutdown() error {
	r.views = nil
	return r.backend.Shutdown()
}

// AddView appends a pass. Views run in the order they were added.
func (r *Renderer) AddView(view View) error {
	for _, v := range r.views {
		if v.view.Name() == view.Name() {
			return fmt.Errorf("render view '%s' already registered", view.Name())
		}
	}
	accumulator := batch.NewAccumulator(view.Sort())
	accumulator.SetStateApplier(r)
	r.views = append(r.views, &viewState{view: view, accumulator: accumulator})
	return nil
}

func (r *Renderer) Views() []View {
	out := make([]View, len(r.views))
	for i, v := range r.views {
		out[i] = v.view
	}
	return out
}

func (r *Renderer) RenderBufferCreate(renderbufferType metadata.RenderBufferType, totalSize uint64) (*metadata.RenderBuffer, error) {
	return r.backend.RenderBufferCreate(renderbufferType, totalSize)
}

func (r *Renderer) RenderBufferLoadRange(buffer *metadata.RenderBuffer, offset uint64, data []byte) error {
	return r.backend.RenderBufferLoadRange(buffer, offset, data)
}

func (r *Renderer) RenderBufferDestroy(buffer *metadata.RenderBuffer) {
	if buffer == nil {
		return
	}
	r.backend.RenderBufferDestroy(buffer)
}

func (r *Renderer) DrawInstanced(cmd *metadata.InstancedDrawCommand) {
	if !r.inFrame {
		core.LogWarn("draw issued outside of a frame, ignored")
		return
	}
	r.frameDraws++
	cmd.RenderMode = r.batchMode
	cmd.PerObjectData = r.batchObject
	r.backend.DrawInstanced(cmd)
}

// ApplyBatchState sets the render mode and per object data stamped on the
// draws issued until the next call.
func (r *Renderer) ApplyBatchState(mode metadata.RenderMode, perObjectData *metadata.PerObjectData) {
	r.batchMode = mode
	r.batchObject = perObjectData
}

/**
 * @brief Renders one frame. Every view collects batches from all objects
 * into its accumulator and commits them with its override effect.
 */
func (r *Renderer) DrawFrame(packet *metadata.RenderPacket, objects []RenderObject) (FrameStats, error) {
	var stats FrameStats
	if err := r.backend.BeginFrame(packet.DeltaTime); err != nil {
		core.LogError(err.Error())
		return stats, err
	}
	r.inFrame = true
	r.frameDraws = 0

	for _, v := range r.views {
		if t, ok := v.view.(Toggleable); ok && !t.Enabled() {
			continue
		}
		v.accumulator.Clear()
		mode := v.view.Mode()
		for _, obj := range objects {
			if obj.Source != nil {
				obj.Source.GetBatches(mode, v.accumulator, obj.PerObjectData)
			}
		}
		stats.Batches += v.accumulator.Render(v.view.OverrideEffect())
		v.accumulator.Clear()
	}

	r.inFrame = false
	stats.Draws = r.frameDraws
	core.MetricsRecordBatches(stats.Batches)
	core.MetricsRecordDraws(stats.Draws)

	if err := r.backend.EndFrame(packet.DeltaTime); err != nil {
		core.LogError("renderer end frame failed: %s", err)
		return stats, err
	}
	return stats, nil
}
