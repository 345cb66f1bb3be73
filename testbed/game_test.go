package testbed

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-instancing/engine"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSceneLoads(t *testing.T) {
	config, err := engine.LoadConfig("../anima.toml")
	require.NoError(t, err)
	config.AssetPath = "../assets"
	config.LogLevel = core.ErrorLevel
	config.HotReload = false
	config.Frames = 0

	tg := NewTestGame(config)
	started := time.Now()
	update := tg.FnUpdate
	tg.FnUpdate = func(deltaTime float64) error {
		if err := update(deltaTime); err != nil {
			return err
		}
		s := tg.state()
		if s.failed > 0 {
			return errors.New("an asset failed to load")
		}
		if s.loaded == 2 {
			core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		} else if time.Since(started) > 5*time.Second {
			return errors.New("assets never loaded")
		}
		return nil
	}

	backend := headless.New()
	e, err := engine.New(tg.Game, backend)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	require.NotNil(t, tg.state().scene)
	require.Len(t, tg.state().scene.Meshes, 1)

	require.NoError(t, e.Run())

	// two opaque areas drawn by the depth and opaque passes, one additive area
	draws := backend.LastFrameDraws()
	assert.Len(t, draws, 5)
	for _, d := range draws {
		assert.EqualValues(t, 6, d.InstanceCount)
		assert.EqualValues(t, 32, d.VertexStride)
	}

	require.NoError(t, e.Shutdown())
	assert.Nil(t, tg.state().scene)
	assert.Zero(t, tg.state().failed)
}
