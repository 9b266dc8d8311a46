package prismvk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lin "github.com/xlab/linmath"
)

// mulVec4 applies a column-major matrix to a vector.
func mulVec4(m *lin.Mat4x4, v [4]float32) [4]float32 {
	var out [4]float32
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			out[j] += m[i][j] * v[i]
		}
	}
	return out
}

func TestVulkanProjectionFixup(t *testing.T) {
	var proj, clip lin.Mat4x4
	proj.Fill(1.0)
	VulkanProjectionMat(&clip, &proj)

	assert.Equal(t, float32(1), clip[0][0])
	assert.Equal(t, float32(-1), clip[1][1], "Y flips for Vulkan clip space")
	assert.Equal(t, float32(0.5), clip[2][2], "depth compresses to half range")
	assert.Equal(t, float32(0.5), clip[3][2], "depth shifts into [0, 1]")
	assert.Equal(t, float32(1), clip[3][3])
}

func TestViewProjectionCentersTarget(t *testing.T) {
	cam := defaultCamera()
	vp := ViewProjection(cam, 4.0/3.0)

	clip := mulVec4(vp, [4]float32{0, 0, 0, 1})
	require.NotZero(t, clip[3])
	assert.InDelta(t, 0, float64(clip[0]/clip[3]), 1e-5, "the target lands on the view axis")
	assert.InDelta(t, 0, float64(clip[1]/clip[3]), 1e-5)

	depth := clip[2] / clip[3]
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))
}

func TestMatrixBytes(t *testing.T) {
	var m lin.Mat4x4
	m.Fill(1.0)

	b := matrixBytes(&m)
	require.Len(t, b, 64)
	assert.Equal(t, float32(1), f32At(b, 0))
	assert.Equal(t, float32(0), f32At(b, 1))
	assert.Equal(t, float32(1), f32At(b, 5), "column-major diagonal survives the cast")
}

func TestRadians(t *testing.T) {
	assert.InDelta(t, math.Pi, float64(radians(180)), 1e-6)
	assert.InDelta(t, math.Pi/2, float64(radians(90)), 1e-6)
	assert.Zero(t, radians(0))
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, float32(0), clampUnit(-0.5))
	assert.Equal(t, float32(1), clampUnit(1.5))
	assert.Equal(t, float32(0.25), clampUnit(0.25))
}

func TestVec3(t *testing.T) {
	assert.Equal(t, lin.Vec3{1, 2, 3}, vec3([3]float32{1, 2, 3}))
}
