/*
This is an example of application that will use the
engine package to draw an instanced scene
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-instancing/engine"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/headless"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima-instancing/testbed"
)

func main() {
	configPath := flag.String("config", "anima.toml", "path to the application config")
	flag.Parse()

	config, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load config: %s", err)
	}

	tb := testbed.NewTestGame(config)

	var backend renderer.RendererBackend = headless.New()
	if config.Backend == engine.BackendVulkan {
		// without a host pipeline binder draws are skipped, frames still
		// clear the offscreen target
		backend = vulkan.New(nil, config.StartWidth, config.StartHeight)
	}

	e, err := engine.New(tb.Game, backend)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}
