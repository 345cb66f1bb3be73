package engine

import (
	"github.com/spaghettifunk/anima-instancing/engine/renderer"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render returns the objects to draw this frame.
type Render func(packet *metadata.RenderPacket) ([]renderer.RenderObject, error)
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
