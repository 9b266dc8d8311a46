package prismvk

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// f32At reads the i-th float32 out of a packed vertex or uniform buffer.
func f32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(b[i*4:]))
}

func TestBuiltinCube(t *testing.T) {
	scene := BuiltinCube(true)

	assert.Equal(t, 24, scene.VertexCount(), "four corners per face")
	assert.Len(t, scene.Vertices, 24*vertexStride)
	assert.Equal(t, uint32(36), scene.IndexCount)
	assert.Equal(t, vk.IndexTypeUint16, scene.IndexType)
	assert.Len(t, scene.Indices, 36*2)
	assert.False(t, scene.HasCamera)
	assert.Equal(t, float32(2), scene.Camera.Eye[0])

	// First vertex: position then face color.
	assert.Equal(t, float32(0.5), f32At(scene.Vertices, 0))
	assert.Equal(t, float32(0.8), f32At(scene.Vertices, 3))
	assert.Equal(t, float32(0.2), f32At(scene.Vertices, 4))

	// Faces carry distinct colors.
	secondFaceColor := [3]float32{
		f32At(scene.Vertices, 4*6+3),
		f32At(scene.Vertices, 4*6+4),
		f32At(scene.Vertices, 4*6+5),
	}
	assert.Equal(t, [3]float32{0.8, 0.8, 0.2}, secondFaceColor)
}

func TestBuiltinCubeGray(t *testing.T) {
	scene := BuiltinCube(false)
	for v := 0; v < scene.VertexCount(); v++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, float32(0.7), f32At(scene.Vertices, v*6+3+c))
		}
	}
}

func TestPackIndices(t *testing.T) {
	indices := []uint32{0, 1, 2, 2, 1, 3}

	packed, kind := packIndices(indices, 100)
	assert.Equal(t, vk.IndexTypeUint16, kind)
	require.Len(t, packed, len(indices)*2)
	assert.Equal(t, uint16(3), binary.NativeEndian.Uint16(packed[10:]))

	packed, kind = packIndices(indices, math.MaxUint16+1)
	assert.Equal(t, vk.IndexTypeUint16, kind, "65536 vertices still fit 16 bit indices")
	assert.Len(t, packed, len(indices)*2)

	packed, kind = packIndices(indices, math.MaxUint16+2)
	assert.Equal(t, vk.IndexTypeUint32, kind)
	require.Len(t, packed, len(indices)*4)
	assert.Equal(t, uint32(3), binary.NativeEndian.Uint32(packed[20:]))
}

func TestInterleave(t *testing.T) {
	positions := [][3]float32{{1, 2, 3}, {4, 5, 6}}
	colors := [][3]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}

	packed := interleave(positions, colors)
	require.Len(t, packed, 2*vertexStride)
	want := []float32{1, 2, 3, 0.1, 0.2, 0.3, 4, 5, 6, 0.4, 0.5, 0.6}
	for i, v := range want {
		assert.Equal(t, v, f32At(packed, i), "float %d", i)
	}
}

func TestLoadSceneDefaultsToCube(t *testing.T) {
	scene, err := LoadScene(SceneConfig{VertexColor: true})
	require.NoError(t, err)
	assert.Equal(t, 24, scene.VertexCount())
}

func TestLoadSceneMissingAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.gltf")
	_, err := LoadScene(SceneConfig{Path: path})
	require.Error(t, err)
	assert.ErrorContains(t, err, "scene ")
}

func TestFirstTrianglePrimitive(t *testing.T) {
	lines := &gltf.Primitive{Mode: gltf.PrimitiveLines}
	triangles := &gltf.Primitive{Mode: gltf.PrimitiveTriangles}
	doc := &gltf.Document{Meshes: []*gltf.Mesh{
		{Primitives: []*gltf.Primitive{lines}},
		{Primitives: []*gltf.Primitive{triangles}},
	}}

	prim, err := firstTrianglePrimitive(doc)
	require.NoError(t, err)
	assert.Same(t, triangles, prim)

	_, err = firstTrianglePrimitive(&gltf.Document{})
	assert.ErrorContains(t, err, "no triangle primitive")
}

func TestAccessorBounds(t *testing.T) {
	doc := &gltf.Document{Accessors: []*gltf.Accessor{{}}}

	acr, err := accessor(doc, 0)
	require.NoError(t, err)
	assert.Same(t, doc.Accessors[0], acr)

	_, err = accessor(doc, 1)
	assert.ErrorContains(t, err, "out of range")
}

func TestApplyAssetCamera(t *testing.T) {
	camIndex := uint32(0)
	far := float32(250.0)
	doc := &gltf.Document{
		Cameras: []*gltf.Camera{{
			Perspective: &gltf.Perspective{Yfov: 1.1, Znear: 0.25, Zfar: &far},
		}},
		Nodes: []*gltf.Node{
			{},
			{Camera: &camIndex, Translation: [3]float32{1, 2, 3}},
		},
	}

	scene := &Scene{Camera: defaultCamera()}
	applyAssetCamera(doc, scene)

	require.True(t, scene.HasCamera)
	assert.Equal(t, float32(1), scene.Camera.Eye[0])
	assert.Equal(t, float32(2), scene.Camera.Eye[1])
	assert.Equal(t, float32(3), scene.Camera.Eye[2])
	assert.Equal(t, float32(1.1), scene.Camera.FovY)
	assert.Equal(t, float32(0.25), scene.Camera.Near)
	assert.Equal(t, float32(250), scene.Camera.Far)
}

func TestApplyAssetCameraNoZfar(t *testing.T) {
	camIndex := uint32(0)
	doc := &gltf.Document{
		Cameras: []*gltf.Camera{{
			Perspective: &gltf.Perspective{Yfov: 0.9, Znear: 0.5},
		}},
		Nodes: []*gltf.Node{{Camera: &camIndex}},
	}

	scene := &Scene{Camera: defaultCamera()}
	applyAssetCamera(doc, scene)

	require.True(t, scene.HasCamera)
	assert.Equal(t, float32(100), scene.Camera.Far, "an open far plane keeps the default")
}

func TestApplyAssetCameraIgnoresOrthographic(t *testing.T) {
	camIndex := uint32(0)
	doc := &gltf.Document{
		Cameras: []*gltf.Camera{{}},
		Nodes:   []*gltf.Node{{Camera: &camIndex}},
	}

	scene := &Scene{Camera: defaultCamera()}
	applyAssetCamera(doc, scene)
	assert.False(t, scene.HasCamera)
}
