package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anima.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name = "field"
log_level = "debug"
frames = 120

[resources]
eviction_frames = 30
workers = 4
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "field", config.Name)
	assert.Equal(t, core.DebugLevel, config.LogLevel)
	assert.EqualValues(t, 120, config.Frames)
	assert.EqualValues(t, 30, config.Resources.EvictionFrames)
	assert.Equal(t, 4, config.Resources.Workers)
	// untouched keys keep their defaults
	assert.Equal(t, 4, config.Resources.MaxLoadsPerFrame)
	assert.EqualValues(t, 1280, config.StartWidth)
	assert.Equal(t, "scenes/field.toml", config.Scene)
	assert.Equal(t, BackendHeadless, config.Backend)
}

func TestLoadConfigBackend(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "windowed = true\nbackend = \"vulkan\"\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendVulkan, config.Backend)

	_, err = LoadConfig(writeConfig(t, "backend = \"vulkan\"\n"))
	assert.ErrorContains(t, err, "windowed")

	_, err = LoadConfig(writeConfig(t, "backend = \"metal\"\n"))
	assert.ErrorContains(t, err, "unknown backend")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `colour = "blue"`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "[resources]\nworkers = 0\n"))
	assert.ErrorContains(t, err, "workers")

	_, err = LoadConfig(writeConfig(t, "max_effects = 0\n"))
	assert.ErrorContains(t, err, "max_effects")

	_, err = LoadConfig(writeConfig(t, "windowed = true\nwidth = 0\n"))
	assert.ErrorContains(t, err, "width")
}
