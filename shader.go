package prismvk

import (
	"fmt"
	"os"

	vk "github.com/vulkan-go/vulkan"
)

// ShaderProgram holds the compiled vertex/fragment module pair behind the
// engine's graphics pipeline.
type ShaderProgram struct {
	device   vk.Device
	vertex   vk.ShaderModule
	fragment vk.ShaderModule
}

// NewShaderProgram loads the configured SPIR-V files into shader modules.
func NewShaderProgram(device vk.Device, vertexPath, fragmentPath string) (*ShaderProgram, error) {
	core := &ShaderProgram{device: device}
	var err error
	if core.vertex, err = loadShaderModule(device, vertexPath); err != nil {
		return nil, err
	}
	if core.fragment, err = loadShaderModule(device, fragmentPath); err != nil {
		vk.DestroyShaderModule(device, core.vertex, nil)
		return nil, err
	}
	return core, nil
}

func loadShaderModule(device vk.Device, path string) (vk.ShaderModule, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, fmt.Errorf("read shader: %w", err)
	}
	if len(buffer) == 0 || len(buffer)%4 != 0 {
		return vk.NullShaderModule, fmt.Errorf("shader %s is not SPIR-V: %d bytes", path, len(buffer))
	}

	// Vulkan expects to receive the code as uint32 words.
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(buffer)),
		PCode:    sliceUint32(buffer),
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, NewError(ret)
	}
	return module, nil
}

func (s *ShaderProgram) Vertex() vk.ShaderModule   { return s.vertex }
func (s *ShaderProgram) Fragment() vk.ShaderModule { return s.fragment }

func (s *ShaderProgram) Destroy() {
	if s.device == nil {
		return
	}
	vk.DestroyShaderModule(s.device, s.vertex, nil)
	vk.DestroyShaderModule(s.device, s.fragment, nil)
	s.device = nil
}
