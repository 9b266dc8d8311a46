package prismvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// depthFormat is used by every window's depth attachment. D16 is universally
// supported for depth attachments.
const depthFormat vk.Format = vk.FormatD16Unorm

// DeviceContext owns the GPU state every window shares: geometry and uniform
// buffers, the descriptor set, shader modules, the render pass and the one
// graphics pipeline. Windows keep only their swapchain, attachments and
// framebuffers; everything else is drawn from here.
type DeviceContext struct {
	device   *CoreDevice
	commands *CommandManager

	scene    *Scene
	vertices *CoreBuffer
	indices  *CoreBuffer
	uniform  *CoreBuffer

	descriptor *DescriptorPool
	shaders    *ShaderProgram
	renderPass vk.RenderPass
	builder    *PipelineBuilder
	pipeline   vk.Pipeline

	colorFormat   vk.Format
	colorSpace    vk.ColorSpace
	vsync         bool
	samples       vk.SampleCountFlagBits
	instanceCount uint32
}

// NewDeviceContext uploads the scene and builds the shared pipeline state.
// surfaceFormat must be the format the swapchains will be created with.
func NewDeviceContext(device *CoreDevice, cfg *Config, scene *Scene,
	surfaceFormat vk.SurfaceFormat) (ctx *DeviceContext, err error) {

	ctx = &DeviceContext{
		device:        device,
		scene:         scene,
		colorFormat:   surfaceFormat.Format,
		colorSpace:    surfaceFormat.ColorSpace,
		vsync:         cfg.Engine.Vsync,
		samples:       sampleCountBits(cfg.Engine.SampleCount),
		instanceCount: uint32(cfg.Engine.InstanceCount),
	}
	defer func() {
		if err != nil {
			ctx.Destroy()
			ctx = nil
		}
	}()

	ctx.commands, err = NewCommandManager(device.Handle(), device.Queue())
	if err != nil {
		return
	}
	ctx.vertices, err = NewDeviceBuffer(device, ctx.commands, scene.Vertices,
		vk.BufferUsageVertexBufferBit)
	if err != nil {
		return
	}
	ctx.indices, err = NewDeviceBuffer(device, ctx.commands, scene.Indices,
		vk.BufferUsageIndexBufferBit)
	if err != nil {
		return
	}

	cam := activeCamera(cfg, scene)
	primary := cfg.Windows[primaryIndex(cfg)]
	aspect := float32(primary.Width) / float32(primary.Height)
	ctx.uniform, err = NewHostBuffer(device,
		matrixBytes(ViewProjection(cam, aspect)), vk.BufferUsageUniformBufferBit)
	if err != nil {
		return
	}
	ctx.descriptor, err = NewUniformDescriptor(device.Handle(), ctx.uniform)
	if err != nil {
		return
	}

	ctx.shaders, err = NewShaderProgram(device.Handle(), cfg.Shaders.Vertex, cfg.Shaders.Fragment)
	if err != nil {
		return
	}
	ctx.renderPass, err = NewRenderPass(device.Handle(), ctx.colorFormat, depthFormat, ctx.samples)
	if err != nil {
		return
	}

	ctx.builder = NewPipelineBuilder(ctx.samples).
		Stages(ctx.shaders).
		VertexLayout(vertexStride)
	if err = ctx.builder.Layout(device.Handle(), ctx.descriptor.Layout()); err != nil {
		return
	}
	ctx.pipeline, err = ctx.builder.Build(device.Handle(), ctx.renderPass)
	return
}

// activeCamera resolves the camera the frame will render with. The config
// wins when override is set or the asset carried no camera of its own.
func activeCamera(cfg *Config, scene *Scene) Camera {
	if !cfg.Camera.Override && scene.HasCamera {
		return scene.Camera
	}
	return Camera{
		Eye:    vec3(cfg.Camera.Eye),
		Target: vec3(cfg.Camera.Target),
		Up:     vec3(cfg.Camera.Up),
		FovY:   radians(cfg.Camera.FovDegrees),
		Near:   cfg.Camera.Near,
		Far:    cfg.Camera.Far,
	}
}

func sampleCountBits(count int) vk.SampleCountFlagBits {
	switch count {
	case 1:
		return vk.SampleCount1Bit
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	case 32:
		return vk.SampleCount32Bit
	case 64:
		return vk.SampleCount64Bit
	default:
		return vk.SampleCount1Bit
	}
}

// Submit hands a recorded frame to the graphics queue.
func (ctx *DeviceContext) Submit(cmd vk.CommandBuffer, wait, signal vk.Semaphore, fence vk.Fence) error {
	return ctx.device.Queue().Submit(cmd, wait, signal, fence)
}

// Idle blocks until the device finished all submitted work.
func (ctx *DeviceContext) Idle() error {
	return ctx.device.WaitIdle()
}

func (ctx *DeviceContext) Device() vk.Device                 { return ctx.device.Handle() }
func (ctx *DeviceContext) Core() *CoreDevice                 { return ctx.device }
func (ctx *DeviceContext) Commands() *CommandManager         { return ctx.commands }
func (ctx *DeviceContext) Scene() *Scene                     { return ctx.scene }
func (ctx *DeviceContext) VertexBuffer() vk.Buffer           { return ctx.vertices.Handle() }
func (ctx *DeviceContext) IndexBuffer() vk.Buffer            { return ctx.indices.Handle() }
func (ctx *DeviceContext) DescriptorSet() vk.DescriptorSet   { return ctx.descriptor.Set() }
func (ctx *DeviceContext) RenderPass() vk.RenderPass         { return ctx.renderPass }
func (ctx *DeviceContext) Pipeline() vk.Pipeline             { return ctx.pipeline }
func (ctx *DeviceContext) PipelineLayout() vk.PipelineLayout { return ctx.builder.PipelineLayout() }
func (ctx *DeviceContext) ColorFormat() vk.Format            { return ctx.colorFormat }
func (ctx *DeviceContext) ColorSpace() vk.ColorSpace         { return ctx.colorSpace }
func (ctx *DeviceContext) Vsync() bool                       { return ctx.vsync }
func (ctx *DeviceContext) DepthFormat() vk.Format            { return depthFormat }
func (ctx *DeviceContext) Samples() vk.SampleCountFlagBits   { return ctx.samples }
func (ctx *DeviceContext) InstanceCount() uint32             { return ctx.instanceCount }
func (ctx *DeviceContext) PresentQueue() vk.Queue            { return ctx.device.Queue().Present() }

// Destroy releases everything in reverse creation order. Safe on a partially
// constructed context.
func (ctx *DeviceContext) Destroy() {
	if ctx.device != nil {
		ctx.device.WaitIdle()
	}
	if ctx.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(ctx.Device(), ctx.pipeline, nil)
		ctx.pipeline = vk.NullPipeline
	}
	if ctx.builder != nil && ctx.builder.PipelineLayout() != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(ctx.Device(), ctx.builder.PipelineLayout(), nil)
	}
	ctx.builder = nil
	if ctx.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(ctx.Device(), ctx.renderPass, nil)
		ctx.renderPass = vk.NullRenderPass
	}
	if ctx.shaders != nil {
		ctx.shaders.Destroy()
		ctx.shaders = nil
	}
	if ctx.descriptor != nil {
		ctx.descriptor.Destroy()
		ctx.descriptor = nil
	}
	if ctx.uniform != nil {
		ctx.uniform.Destroy()
		ctx.uniform = nil
	}
	if ctx.indices != nil {
		ctx.indices.Destroy()
		ctx.indices = nil
	}
	if ctx.vertices != nil {
		ctx.vertices.Destroy()
		ctx.vertices = nil
	}
	if ctx.commands != nil {
		ctx.commands.Destroy()
		ctx.commands = nil
	}
}
