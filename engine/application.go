package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-instancing/engine/core"
)

const (
	BackendHeadless = "headless"
	BackendVulkan   = "vulkan"
)

type ResourcesConfig struct {
	// Frames a resource may go unused before its GPU data is dropped. 0 keeps everything.
	EvictionFrames uint64 `toml:"eviction_frames"`
	// Loads handed to the workers each frame.
	MaxLoadsPerFrame int `toml:"max_loads_per_frame"`
	// Pending load requests held before new ones are refused.
	QueueSize int `toml:"queue_size"`
	// Number of loader goroutines.
	Workers int `toml:"workers"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string        `toml:"name"`
	LogLevel core.LogLevel `toml:"log_level"`
	// Directory holding geometry, instance data and scenes.
	AssetPath string `toml:"asset_path"`
	// Frames to run before quitting. 0 runs until the application is closed.
	Frames uint64 `toml:"frames"`
	// Open a window. Headless runs stop after Frames.
	Windowed bool `toml:"windowed"`
	// Renderer backend, "headless" or "vulkan". Vulkan needs a window.
	Backend string `toml:"backend"`
	// Window starting position, if applicable.
	StartPosX uint32 `toml:"x"`
	StartPosY uint32 `toml:"y"`
	// Window starting size, if applicable.
	StartWidth  uint32 `toml:"width"`
	StartHeight uint32 `toml:"height"`
	// Reload assets when they change on disk.
	HotReload      bool            `toml:"hot_reload"`
	MaxEffectCount uint32          `toml:"max_effects"`
	Resources      ResourcesConfig `toml:"resources"`
	// Scene file, relative to AssetPath.
	Scene string `toml:"scene"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Anima Instancing",
		LogLevel:       core.InfoLevel,
		AssetPath:      "assets",
		Backend:        BackendHeadless,
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     1280,
		StartHeight:    720,
		HotReload:      true,
		MaxEffectCount: 256,
		Resources: ResourcesConfig{
			EvictionFrames:   600,
			MaxLoadsPerFrame: 4,
			QueueSize:        256,
			Workers:          2,
		},
		Scene: "scenes/field.toml",
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are errors.
func LoadConfig(path string) (*ApplicationConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if c.Windowed && (c.StartWidth == 0 || c.StartHeight == 0) {
		return fmt.Errorf("windowed runs need a width and a height")
	}
	switch c.Backend {
	case BackendHeadless:
	case BackendVulkan:
		if !c.Windowed {
			return fmt.Errorf("backend %q needs windowed = true", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Resources.Workers <= 0 {
		return fmt.Errorf("resources.workers must be positive")
	}
	if c.Resources.MaxLoadsPerFrame <= 0 {
		return fmt.Errorf("resources.max_loads_per_frame must be positive")
	}
	if c.Resources.QueueSize <= 0 {
		return fmt.Errorf("resources.queue_size must be positive")
	}
	if c.MaxEffectCount == 0 {
		return fmt.Errorf("max_effects must be positive")
	}
	return nil
}
