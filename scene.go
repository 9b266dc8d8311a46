package prismvk

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// vertexStride is the byte size of one interleaved vertex: position vec3
// followed by color vec3.
const vertexStride = 24

// Camera is the view state shared by every window.
type Camera struct {
	Eye    lin.Vec3
	Target lin.Vec3
	Up     lin.Vec3
	FovY   float32 // radians
	Near   float32
	Far    float32
}

func defaultCamera() Camera {
	return Camera{
		Eye:    lin.Vec3{2, -2, 2},
		Target: lin.Vec3{0, 0, 0},
		Up:     lin.Vec3{0, 1, 0},
		FovY:   radians(70),
		Near:   0.1,
		Far:    100,
	}
}

// Scene holds geometry packed for upload plus the camera the asset carried.
// Vertices are interleaved position and color, vertexStride bytes each.
type Scene struct {
	Vertices   []byte
	Indices    []byte
	IndexCount uint32
	IndexType  vk.IndexType
	Camera     Camera
	HasCamera  bool
}

func (s *Scene) VertexCount() int { return len(s.Vertices) / vertexStride }

// LoadScene reads the configured glTF asset, or falls back to the builtin
// cube when no path is set.
func LoadScene(cfg SceneConfig) (*Scene, error) {
	if cfg.Path == "" {
		return BuiltinCube(cfg.VertexColor), nil
	}
	doc, err := gltf.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Path, err)
	}
	scene, err := sceneFromDocument(doc, cfg.VertexColor)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Path, err)
	}
	return scene, nil
}

// sceneFromDocument packs the first triangle primitive of the document.
func sceneFromDocument(doc *gltf.Document, vertexColor bool) (*Scene, error) {
	prim, err := firstTrianglePrimitive(doc)
	if err != nil {
		return nil, err
	}
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("primitive has no %s attribute", gltf.POSITION)
	}
	posAccessor, err := accessor(doc, posIndex)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, posAccessor, nil)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("primitive has no vertices")
	}

	colors := make([][3]float32, len(positions))
	for i := range colors {
		colors[i] = [3]float32{0.7, 0.7, 0.7}
	}
	if vertexColor {
		if colIndex, ok := prim.Attributes[gltf.COLOR_0]; ok {
			colAccessor, err := accessor(doc, colIndex)
			if err != nil {
				return nil, err
			}
			rgba, err := modeler.ReadColor(doc, colAccessor, nil)
			if err != nil {
				return nil, err
			}
			if len(rgba) != len(positions) {
				return nil, fmt.Errorf("color count %d does not match vertex count %d",
					len(rgba), len(positions))
			}
			for i := range colors {
				colors[i] = [3]float32{
					float32(rgba[i][0]) / 255,
					float32(rgba[i][1]) / 255,
					float32(rgba[i][2]) / 255,
				}
			}
		} else {
			// No vertex colors in the asset. Derive a ramp from position so
			// faces stay distinguishable.
			for i, p := range positions {
				colors[i] = [3]float32{
					clampUnit(p[0] + 0.5),
					clampUnit(p[1] + 0.5),
					clampUnit(p[2] + 0.5),
				}
			}
		}
	}

	if prim.Indices == nil {
		return nil, fmt.Errorf("primitive has no index accessor")
	}
	idxAccessor, err := accessor(doc, *prim.Indices)
	if err != nil {
		return nil, err
	}
	indices, err := modeler.ReadIndices(doc, idxAccessor, nil)
	if err != nil {
		return nil, err
	}

	scene := &Scene{
		Vertices:   interleave(positions, colors),
		IndexCount: uint32(len(indices)),
		Camera:     defaultCamera(),
	}
	scene.Indices, scene.IndexType = packIndices(indices, len(positions))
	applyAssetCamera(doc, scene)
	return scene, nil
}

func firstTrianglePrimitive(doc *gltf.Document) (*gltf.Primitive, error) {
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if prim.Mode == gltf.PrimitiveTriangles {
				return prim, nil
			}
		}
	}
	return nil, fmt.Errorf("no triangle primitive in document")
}

func accessor(doc *gltf.Document, index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return doc.Accessors[index], nil
}

// applyAssetCamera copies the first perspective camera node onto the scene.
// Only the node translation is used; the view keeps looking at the origin.
func applyAssetCamera(doc *gltf.Document, scene *Scene) {
	for _, node := range doc.Nodes {
		if node.Camera == nil || int(*node.Camera) >= len(doc.Cameras) {
			continue
		}
		cam := doc.Cameras[*node.Camera]
		if cam.Perspective == nil {
			continue
		}
		scene.Camera.Eye = lin.Vec3{
			float32(node.Translation[0]),
			float32(node.Translation[1]),
			float32(node.Translation[2]),
		}
		scene.Camera.FovY = float32(cam.Perspective.Yfov)
		scene.Camera.Near = float32(cam.Perspective.Znear)
		if cam.Perspective.Zfar != nil {
			scene.Camera.Far = float32(*cam.Perspective.Zfar)
		}
		scene.HasCamera = true
		return
	}
}

func interleave(positions, colors [][3]float32) []byte {
	verts := make([]float32, 0, len(positions)*6)
	for i := range positions {
		verts = append(verts, positions[i][0], positions[i][1], positions[i][2])
		verts = append(verts, colors[i][0], colors[i][1], colors[i][2])
	}
	return f32Bytes(verts)
}

// packIndices narrows to 16 bit indices whenever the vertex count allows it.
func packIndices(indices []uint32, vertexCount int) ([]byte, vk.IndexType) {
	if vertexCount <= math.MaxUint16+1 {
		packed := make([]uint16, len(indices))
		for i, v := range indices {
			packed[i] = uint16(v)
		}
		return u16Bytes(packed), vk.IndexTypeUint16
	}
	return u32Bytes(indices), vk.IndexTypeUint32
}

// BuiltinCube returns a unit cube centered on the origin. With vertexColor
// set each face gets its own color, otherwise the cube is a uniform gray.
func BuiltinCube(vertexColor bool) *Scene {
	faces := [6][4][3]float32{
		{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}},
		{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}},
		{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}},
		{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}},
		{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}},
		{{-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5}},
	}
	faceColors := [6][3]float32{
		{0.8, 0.2, 0.2},
		{0.8, 0.8, 0.2},
		{0.2, 0.8, 0.2},
		{0.2, 0.8, 0.8},
		{0.2, 0.2, 0.8},
		{0.8, 0.2, 0.8},
	}

	verts := make([]float32, 0, 6*4*6)
	indices := make([]uint16, 0, 36)
	for f, corners := range faces {
		color := [3]float32{0.7, 0.7, 0.7}
		if vertexColor {
			color = faceColors[f]
		}
		base := uint16(f * 4)
		for _, c := range corners {
			verts = append(verts, c[0], c[1], c[2], color[0], color[1], color[2])
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return &Scene{
		Vertices:   f32Bytes(verts),
		Indices:    u16Bytes(indices),
		IndexCount: uint32(len(indices)),
		IndexType:  vk.IndexTypeUint16,
		Camera:     defaultCamera(),
	}
}
