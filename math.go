package prismvk

import (
	"unsafe"

	"github.com/chewxy/math32"
	lin "github.com/xlab/linmath"
)

// VulkanProjectionMat converts an OpenGL style projection matrix to Vulkan style projection matrix.
// Vulkan has a topLeft clipSpace with [0, 1] depth range instead of [-1, 1].
//
// linmath outputs projection matrices in GL style clipSpace,
// perform a simple fixup step to change the projection to Vulkan style.
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	// Flip Y in clipspace. X = -1, Y = -1 is topLeft in Vulkan.
	m.Fill(1.0)
	m.ScaleAniso(m, 1.0, -1.0, 1.0)
	// Z depth is [0, 1] range instead of [-1, 1].
	m.ScaleAniso(m, 1.0, 1.0, 0.5)
	m.Translate(0.0, 0.0, 1.0)
	m.Mult(m, proj)
}

// ViewProjection composes the camera into a single Vulkan clip space matrix.
func ViewProjection(cam Camera, aspect float32) *lin.Mat4x4 {
	var proj, view, clip, out lin.Mat4x4
	proj.Perspective(cam.FovY, aspect, cam.Near, cam.Far)
	view.LookAt(&cam.Eye, &cam.Target, &cam.Up)
	VulkanProjectionMat(&clip, &proj)
	out.Mult(&clip, &view)
	return &out
}

func matrixBytes(m *lin.Mat4x4) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(m)), int(unsafe.Sizeof(*m)))
}

func radians(degrees float32) float32 {
	return degrees * math32.Pi / 180
}

func clampUnit(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func vec3(v [3]float32) lin.Vec3 {
	return lin.Vec3{v[0], v[1], v[2]}
}
