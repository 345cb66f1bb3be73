package testbed

import (
	"path/filepath"

	"github.com/spaghettifunk/anima-instancing/engine"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	scene *engine.Scene

	width  uint32
	height uint32

	loaded  int
	failed  int
	evicted int
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				width:  config.StartWidth,
				height: config.StartHeight,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")

	core.EventRegister(core.EVENT_CODE_RESOURCE_LOADED, g, g.onResourceEvent)
	core.EventRegister(core.EVENT_CODE_RESOURCE_FAILED, g, g.onResourceEvent)
	core.EventRegister(core.EVENT_CODE_RESOURCE_EVICTED, g, g.onResourceEvent)

	scene, err := engine.LoadScene(filepath.Join(g.ApplicationConfig.AssetPath, g.ApplicationConfig.Scene), g.SystemManager)
	if err != nil {
		return err
	}
	g.state().scene = scene
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	return nil
}

func (g *TestGame) Render(packet *metadata.RenderPacket) ([]renderer.RenderObject, error) {
	return g.state().scene.Objects(), nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width, s.height = width, height
	return nil
}

func (g *TestGame) Shutdown() error {
	s := g.state()
	core.LogInfo("testbed shutting down: %d loaded, %d failed, %d evicted", s.loaded, s.failed, s.evicted)
	s.scene.Destroy()
	s.scene = nil
	core.EventUnregister(core.EVENT_CODE_RESOURCE_LOADED, g)
	core.EventUnregister(core.EVENT_CODE_RESOURCE_FAILED, g)
	core.EventUnregister(core.EVENT_CODE_RESOURCE_EVICTED, g)
	return nil
}

func (g *TestGame) onResourceEvent(context core.EventContext) bool {
	re, ok := context.Data.(*core.ResourceEvent)
	if !ok {
		return false
	}
	s := g.state()
	switch context.Type {
	case core.EVENT_CODE_RESOURCE_LOADED:
		s.loaded++
		core.LogDebug("resource '%s' ready", re.Path)
	case core.EVENT_CODE_RESOURCE_FAILED:
		s.failed++
		core.LogWarn("resource '%s' failed: %s", re.Path, re.Err)
	case core.EVENT_CODE_RESOURCE_EVICTED:
		s.evicted++
		core.LogDebug("resource '%s' evicted", re.Path)
	}
	// let other listeners see it too
	return false
}
