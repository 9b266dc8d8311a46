package prismvk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

func TestActiveCamera(t *testing.T) {
	cfg := DefaultConfig()
	scene := BuiltinCube(true)

	cam := activeCamera(cfg, scene)
	assert.Equal(t, lin.Vec3{2, -2, 2}, cam.Eye, "the configured camera wins by default")
	assert.InDelta(t, radians(70), cam.FovY, 1e-6)

	scene.HasCamera = true
	scene.Camera.Eye = lin.Vec3{9, 9, 9}
	cam = activeCamera(cfg, scene)
	assert.Equal(t, lin.Vec3{2, -2, 2}, cam.Eye, "override ignores the asset camera")

	cfg.Camera.Override = false
	cam = activeCamera(cfg, scene)
	assert.Equal(t, lin.Vec3{9, 9, 9}, cam.Eye, "the asset camera wins once override is off")

	scene.HasCamera = false
	cam = activeCamera(cfg, scene)
	assert.Equal(t, lin.Vec3{2, -2, 2}, cam.Eye, "no asset camera falls back to the config")
}

func TestSampleCountBits(t *testing.T) {
	assert.Equal(t, vk.SampleCount1Bit, sampleCountBits(1))
	assert.Equal(t, vk.SampleCount4Bit, sampleCountBits(4))
	assert.Equal(t, vk.SampleCount64Bit, sampleCountBits(64))
	assert.Equal(t, vk.SampleCount1Bit, sampleCountBits(7), "unsupported counts fall back to one sample")
}
