package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-instancing/engine/assets"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/platform"
	"github.com/spaghettifunk/anima-instancing/engine/renderer"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/views"
	"github.com/spaghettifunk/anima-instancing/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// how long a suspended loop idles before checking for events again
const suspendedWait = 100 * time.Millisecond

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	// written by the quit event, which may fire off the main goroutine
	isRunning     atomic.Bool
	isSuspended   bool
	wait          func(time.Duration)
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	renderer      *renderer.Renderer
	systemManager *systems.SystemManager
	pickView      *views.RenderViewPick
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
	frameNumber   uint64
}

func New(g *Game, backend renderer.RendererBackend) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("game and application config are required")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.ApplicationConfig,
		clock:        core.NewClock(),
		assetManager: am,
		renderer:     renderer.New(backend),
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
	}
	e.isRunning.Store(true)
	e.wait = e.waitForEvents
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	core.SetLogLevel(e.config.LogLevel)

	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	if e.config.Windowed {
		p, err := platform.New()
		if err != nil {
			return err
		}
		if err := p.Startup(e.config.Name, e.config.StartPosX, e.config.StartPosY, e.config.StartWidth, e.config.StartHeight); err != nil {
			return err
		}
		e.platform = p
	}

	if err := e.assetManager.Initialize(e.config.AssetPath); err != nil {
		return err
	}
	if err := e.renderer.Initialize(e.config.Name); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		Workers:        e.config.Resources.Workers,
		JobQueueSize:   e.config.Resources.QueueSize,
		MaxEffectCount: e.config.MaxEffectCount,
		Resources: systems.ResourceSystemConfig{
			EvictionFrames:   e.config.Resources.EvictionFrames,
			MaxLoadsPerFrame: e.config.Resources.MaxLoadsPerFrame,
			QueueSize:        e.config.Resources.QueueSize,
		},
	}, e.assetManager, e.renderer)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if err := e.createViews(); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			core.LogError("game failed to initialize: %s", err)
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) createViews() error {
	es := e.systemManager.EffectSystem
	e.pickView = views.NewRenderViewPick(es.Get(metadata.PickingEffectName))
	e.pickView.SetEnabled(false)

	for _, v := range []renderer.View{
		views.NewRenderViewDepth(metadata.RenderModeOpaque, es.Get(metadata.DepthEffectName)),
		views.NewRenderViewWorld("world_opaque", metadata.RenderModeOpaque),
		views.NewRenderViewWorld("world_decal", metadata.RenderModeDecal),
		views.NewRenderViewWorld("world_transparent", metadata.RenderModeTransparent),
		views.NewRenderViewWorld("world_additive", metadata.RenderModeAdditive),
		e.pickView,
	} {
		if err := e.renderer.AddView(v); err != nil {
			return err
		}
	}
	return nil
}

// SetPicking turns the picking pass on or off.
func (e *Engine) SetPicking(enabled bool) {
	if e.pickView != nil {
		e.pickView.SetEnabled(enabled)
	}
}

func (e *Engine) SystemManager() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}

// waitForEvents idles the loop while suspended. Window events still wake it
// so a restore or close is handled promptly.
func (e *Engine) waitForEvents(timeout time.Duration) {
	if e.platform != nil {
		e.platform.WaitMessages(timeout)
		return
	}
	time.Sleep(timeout)
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		if e.isSuspended {
			e.wait(suspendedWait)
			continue
		}
		if err := e.frame(); err != nil {
			return err
		}
		if e.config.Frames > 0 && e.frameNumber >= e.config.Frames {
			e.isRunning.Store(false)
		}
	}
	e.clock.Stop()
	return nil
}

func (e *Engine) frame() error {
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	e.frameNumber++

	rs := e.systemManager.ResourceSystem
	if e.config.HotReload {
		for _, path := range e.assetManager.DrainChanged() {
			if rs.Reload(path) {
				core.LogInfo("reloading '%s'", path)
				core.EventFire(core.EventContext{Type: core.EVENT_CODE_ASSET_CHANGED, Data: &core.ResourceEvent{Path: path}})
			}
		}
	}
	rs.Update(e.frameNumber)

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			return err
		}
	}

	packet := &metadata.RenderPacket{DeltaTime: delta, FrameNumber: e.frameNumber}
	var objects []renderer.RenderObject
	if e.gameInstance.FnRender != nil {
		var err error
		if objects, err = e.gameInstance.FnRender(packet); err != nil {
			core.LogError("game render failed, shutting down: %s", err)
			return err
		}
	}
	if _, err := e.renderer.DrawFrame(packet, objects); err != nil {
		return err
	}

	e.clock.Update()
	core.MetricsUpdate(e.clock.Elapsed() - currentTime)
	e.lastTime = currentTime
	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	width, height := se.WindowWidth, se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	e.renderer.OnResized(width, height)
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return true
}
