package prismvk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Windows, 4)
	assert.True(t, cfg.Windows[0].Primary)
	assert.True(t, cfg.Engine.Vsync)
	assert.Equal(t, 4, cfg.Engine.SampleCount)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	data := `
[engine]
vsync = false
sample_count = 8

[scene]
path = "assets/helmet.gltf"

[[windows]]
title = "main"
width = 1024
height = 768
primary = true

[[windows]]
title = "side"
width = 320
height = 240
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Engine.Vsync)
	assert.Equal(t, 8, cfg.Engine.SampleCount)
	assert.Equal(t, "assets/helmet.gltf", cfg.Scene.Path)

	require.Len(t, cfg.Windows, 2, "listed windows replace the default set")
	assert.Equal(t, "side", cfg.Windows[1].Title)

	assert.Equal(t, "prismvk", cfg.Engine.AppName, "unset fields keep their defaults")
	assert.Equal(t, float32(70), cfg.Camera.FovDegrees)
}

func TestLoadConfigKeepsDefaultWindows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nvsync = false\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Windows, 4, "a file without windows keeps the stock set")
	assert.False(t, cfg.Engine.Vsync)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[windows]]
title = "tiny"
width = 0
height = 600
primary = true
`), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "size")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no windows",
			mutate:  func(c *Config) { c.Windows = nil },
			wantErr: "at least one window",
		},
		{
			name:    "no primary",
			mutate:  func(c *Config) { c.Windows[0].Primary = false },
			wantErr: "exactly one window must be primary",
		},
		{
			name:    "two primaries",
			mutate:  func(c *Config) { c.Windows[1].Primary = true },
			wantErr: "exactly one window must be primary",
		},
		{
			name:    "zero height",
			mutate:  func(c *Config) { c.Windows[2].Height = 0 },
			wantErr: "has size",
		},
		{
			name:    "odd sample count",
			mutate:  func(c *Config) { c.Engine.SampleCount = 3 },
			wantErr: "sample_count",
		},
		{
			name:    "zero instances",
			mutate:  func(c *Config) { c.Engine.InstanceCount = 0 },
			wantErr: "instance_count",
		},
		{
			name:    "inverted clip range",
			mutate:  func(c *Config) { c.Camera.Far = 0.05 },
			wantErr: "clip range",
		},
		{
			name:    "flat fov",
			mutate:  func(c *Config) { c.Camera.FovDegrees = 180 },
			wantErr: "fov",
		},
		{
			name:    "missing fragment shader",
			mutate:  func(c *Config) { c.Shaders.Fragment = "" },
			wantErr: "shader paths",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
