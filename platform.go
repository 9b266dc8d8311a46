package prismvk

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// InitVulkan wires the Vulkan loader through GLFW and initializes both.
// Call once from the main thread before any other engine call.
func InitVulkan() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("vulkan loader is not available")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return fmt.Errorf("vulkan init: %w", err)
	}
	return nil
}

// Shutdown releases the windowing layer. Call after every window and
// platform object has been destroyed.
func Shutdown() {
	glfw.Terminate()
}

// Platform owns the instance and device level Vulkan state shared by all
// windows.
type Platform struct {
	instance *CoreInstance
	gpu      vk.PhysicalDevice
	device   *CoreDevice
	format   vk.SurfaceFormat
}

// NewPlatform brings up the Vulkan instance and logical device. The probe
// window supplies the required instance extensions and a throwaway surface
// used to select the GPU, its queue families and the surface format; the
// same families serve every later window surface.
func NewPlatform(cfg *Config, probe WindowHandle) (p *Platform, err error) {
	p = &Platform{}
	defer func() {
		if err != nil {
			p.Destroy()
			p = nil
		}
	}()
	defer checkErr(&err)

	p.instance, err = NewCoreInstance(cfg.Engine.AppName,
		probe.RequiredExtensions(), cfg.Engine.Validation)
	orPanic(err)

	surface, err := probe.CreateSurface(p.instance.Handle())
	orPanic(err)
	defer vk.DestroySurface(p.instance.Handle(), surface, nil)

	p.gpu, err = p.instance.PickPhysicalDevice(surface)
	orPanic(err)
	p.format, err = pickSurfaceFormat(p.gpu, surface)
	orPanic(err)

	var layers []string
	if cfg.Engine.Validation {
		layers = validationLayerNames()
	}
	p.device, err = NewCoreDevice(p.gpu, surface, layers)
	orPanic(err)
	return p, nil
}

// pickSurfaceFormat prefers sRGB B8G8R8A8. A single Undefined entry means
// the surface has no preference and the preferred format is free to use.
func pickSurfaceFormat(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceFormat, error) {
	preferred := vk.SurfaceFormat{
		Format:     vk.FormatB8g8r8a8Srgb,
		ColorSpace: vk.ColorSpaceSrgbNonlinear,
	}

	var count uint32
	ret := vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, nil)
	if isError(ret) {
		return preferred, NewError(ret)
	}
	if count == 0 {
		return preferred, fmt.Errorf("vulkan error: surface reports no formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	ret = vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, formats)
	if isError(ret) {
		return preferred, NewError(ret)
	}

	formats[0].Deref()
	if count == 1 && formats[0].Format == vk.FormatUndefined {
		return preferred, nil
	}
	for i := range formats {
		formats[i].Deref()
		if formats[i].Format == preferred.Format &&
			formats[i].ColorSpace == preferred.ColorSpace {
			return formats[i], nil
		}
	}
	return formats[0], nil
}

func (p *Platform) Instance() vk.Instance           { return p.instance.Handle() }
func (p *Platform) GPU() vk.PhysicalDevice          { return p.gpu }
func (p *Platform) Device() *CoreDevice             { return p.device }
func (p *Platform) SurfaceFormat() vk.SurfaceFormat { return p.format }

// Destroy releases the device and then the instance. Device level objects
// must already be gone.
func (p *Platform) Destroy() {
	if p.device != nil {
		p.device.Destroy()
		p.device = nil
	}
	if p.instance != nil {
		p.instance.Destroy()
		p.instance = nil
	}
}
