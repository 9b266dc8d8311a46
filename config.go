package prismvk

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full engine configuration. Zero values are not meaningful;
// start from DefaultConfig or LoadConfig.
type Config struct {
	Engine  EngineConfig   `toml:"engine"`
	Scene   SceneConfig    `toml:"scene"`
	Camera  CameraConfig   `toml:"camera"`
	Shaders ShaderConfig   `toml:"shaders"`
	Windows []WindowConfig `toml:"windows"`
}

type EngineConfig struct {
	AppName       string `toml:"app_name"`
	Vsync         bool   `toml:"vsync"`
	SampleCount   int    `toml:"sample_count"`
	InstanceCount int    `toml:"instance_count"`
	Validation    bool   `toml:"validation"`
}

type SceneConfig struct {
	// Path locates a glTF asset; empty selects the builtin cube.
	Path        string `toml:"path"`
	VertexColor bool   `toml:"vertex_color"`
}

type CameraConfig struct {
	// Override makes the configured eye win over an asset camera position.
	Override   bool       `toml:"override"`
	Eye        [3]float32 `toml:"eye"`
	Target     [3]float32 `toml:"target"`
	Up         [3]float32 `toml:"up"`
	FovDegrees float32    `toml:"fov_degrees"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
}

type ShaderConfig struct {
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

type WindowConfig struct {
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Primary bool   `toml:"primary"`
}

// DefaultConfig returns the stock four-window setup: one primary window and
// three secondaries, all sharing the builtin cube scene.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			AppName:       "prismvk",
			Vsync:         true,
			SampleCount:   4,
			InstanceCount: 10,
		},
		Scene: SceneConfig{
			VertexColor: true,
		},
		Camera: CameraConfig{
			Override:   true,
			Eye:        [3]float32{2, -2, 2},
			Target:     [3]float32{0, 0, 0},
			Up:         [3]float32{0, 1, 0},
			FovDegrees: 70,
			Near:       0.1,
			Far:        100,
		},
		Shaders: ShaderConfig{
			Vertex:   "shaders/cube.vert.spv",
			Fragment: "shaders/cube.frag.spv",
		},
		Windows: defaultWindows(),
	}
}

func defaultWindows() []WindowConfig {
	windows := []WindowConfig{
		{Title: "prismvk", Width: 800, Height: 600, Primary: true},
	}
	for i := 1; i <= 3; i++ {
		windows = append(windows, WindowConfig{
			Title:  fmt.Sprintf("prismvk %d", i),
			Width:  800,
			Height: 600,
		})
	}
	return windows
}

// LoadConfig reads a TOML file over the defaults. An empty path yields the
// defaults unchanged. Windows listed in the file replace the default set.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Windows = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = defaultWindows()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot start from.
func (c *Config) Validate() error {
	if len(c.Windows) == 0 {
		return fmt.Errorf("config: at least one window is required")
	}
	primaries := 0
	for i, w := range c.Windows {
		if w.Width <= 0 || w.Height <= 0 {
			return fmt.Errorf("config: window %d has size %dx%d", i, w.Width, w.Height)
		}
		if w.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return fmt.Errorf("config: exactly one window must be primary, found %d", primaries)
	}
	switch c.Engine.SampleCount {
	case 1, 2, 4, 8, 16, 32, 64:
	default:
		return fmt.Errorf("config: sample_count %d is not a supported power of two", c.Engine.SampleCount)
	}
	if c.Engine.InstanceCount < 1 {
		return fmt.Errorf("config: instance_count must be at least 1, got %d", c.Engine.InstanceCount)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("config: camera clip range %v..%v is invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return fmt.Errorf("config: camera fov %v degrees is out of range", c.Camera.FovDegrees)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return fmt.Errorf("config: both shader paths must be set")
	}
	return nil
}
