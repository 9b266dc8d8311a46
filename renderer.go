package prismvk

import (
	"log"
	"time"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// RendererState tracks one window's place in the activate/rebuild cycle.
type RendererState int

const (
	// RendererSuspended holds no swapchain resources. The window handle,
	// clear color, animation clock and pointer state survive suspension.
	RendererSuspended RendererState = iota
	// RendererActive owns a swapchain and can submit frames.
	RendererActive
	// RendererRecreating marks a chain rebuild in flight. The state is
	// only observable after a rebuild failed partway.
	RendererRecreating
)

func (s RendererState) String() string {
	switch s {
	case RendererSuspended:
		return "suspended"
	case RendererActive:
		return "active"
	case RendererRecreating:
		return "recreating"
	default:
		return "unknown"
	}
}

// WindowRenderer draws the shared scene into one window. It owns everything
// scoped to that window: surface, swapchain, depth and multisample targets,
// framebuffers, one command buffer and the frame synchronizer. All heavier
// state comes from the shared DeviceContext.
type WindowRenderer struct {
	ctx    *DeviceContext
	window WindowHandle

	state    RendererState
	instance vk.Instance
	surface  vk.Surface
	chain    *CoreSwapchain
	cmd      vk.CommandBuffer
	sync     *FrameSync

	msaa         *AttachmentImage
	depth        *AttachmentImage
	framebuffers []vk.Framebuffer

	clear   [4]float32
	clock   time.Time
	pointer [2]float32
	resize  bool
}

// NewWindowRenderer wraps a window without touching the GPU. The renderer
// starts suspended; call Activate before submitting frames.
func NewWindowRenderer(ctx *DeviceContext, window WindowHandle, clear [4]float32) *WindowRenderer {
	return &WindowRenderer{
		ctx:    ctx,
		window: window,
		clear:  clear,
		clock:  time.Now(),
	}
}

func (w *WindowRenderer) ID() WindowID         { return w.window.ID() }
func (w *WindowRenderer) State() RendererState { return w.state }
func (w *WindowRenderer) Window() WindowHandle { return w.window }
func (w *WindowRenderer) Pointer() [2]float32  { return w.pointer }

// Activate builds the window's surface, swapchain, synchronizer and render
// targets. Activating an already active renderer is a no-op.
func (w *WindowRenderer) Activate(instance vk.Instance) error {
	if w.state == RendererActive {
		return nil
	}
	w.instance = instance

	surface, err := w.window.CreateSurface(instance)
	if err != nil {
		return err
	}
	w.surface = surface

	w.chain, err = NewCoreSwapchain(w.ctx.Core(), surface, w.window,
		w.ctx.ColorFormat(), w.ctx.ColorSpace(), w.ctx.Vsync())
	if err != nil {
		w.release()
		return err
	}
	w.cmd, err = w.ctx.Commands().NewPrimaryBuffer()
	if err != nil {
		w.release()
		return err
	}
	w.sync, err = NewFrameSync(w.ctx.Device(), w.ctx, w.cmd)
	if err != nil {
		w.release()
		return err
	}
	if err := w.sync.SetImageCount(w.chain.ImageCount()); err != nil {
		w.release()
		return err
	}
	if err := w.buildTargets(); err != nil {
		w.release()
		return err
	}
	w.state = RendererActive
	w.window.MarkDirty()
	return nil
}

// Deactivate waits out pending work and releases every swapchain resource.
// The window, clear color, clock and pointer state are kept so a later
// Activate resumes where the window left off.
func (w *WindowRenderer) Deactivate() error {
	if w.state == RendererSuspended {
		return nil
	}
	if err := w.ctx.Idle(); err != nil {
		return err
	}
	w.release()
	w.state = RendererSuspended
	return nil
}

// RenderFrame submits one frame through the synchronizer. Suspended windows
// skip without error.
func (w *WindowRenderer) RenderFrame() (Outcome, error) {
	if w.state == RendererSuspended {
		return OutcomeSkipped, nil
	}
	if w.resize {
		w.resize = false
		if err := w.Rebuild(); err != nil {
			return OutcomeSkipped, err
		}
	}
	if w.state != RendererActive {
		return OutcomeSkipped, nil
	}
	return w.sync.SubmitFrame(w, w.record)
}

// RequestRedraw flags the window for the next dispatch without submitting.
func (w *WindowRenderer) RequestRedraw() {
	w.window.MarkDirty()
}

// OnResize rebuilds the chain in place. A report with a zero dimension only
// flags the rebuild: it runs once the window has area again, since a
// zero-area chain never acquires and would never see a stale report on its
// own. A failed rebuild is retried by the next frame, which surfaces the
// error if it persists.
func (w *WindowRenderer) OnResize(width, height int) {
	if w.state != RendererActive {
		return
	}
	if width == 0 || height == 0 {
		w.resize = true
		w.window.MarkDirty()
		return
	}
	if err := w.Rebuild(); err != nil {
		log.Printf("vulkan: window %d resize rebuild: %v", w.ID(), err)
		w.resize = true
	}
	w.window.MarkDirty()
}

// OnPointerMove stores the pointer position normalized by the window size
// and clamped to the unit square. A zero-size axis keeps its previous value.
func (w *WindowRenderer) OnPointerMove(x, y float64) {
	width, height := w.window.Size()
	if width > 0 {
		w.pointer[0] = clampUnit(float32(x) / float32(width))
	}
	if height > 0 {
		w.pointer[1] = clampUnit(float32(y) / float32(height))
	}
	w.window.MarkDirty()
}

// Chain implementation for the frame synchronizer.

func (w *WindowRenderer) Extent() vk.Extent2D { return w.chain.Extent() }

func (w *WindowRenderer) Acquire(semaphore vk.Semaphore) (uint32, ChainStatus, error) {
	return w.chain.Acquire(semaphore)
}

func (w *WindowRenderer) Present(image uint32, wait vk.Semaphore) (ChainStatus, error) {
	return w.chain.Present(w.ctx.PresentQueue(), image, wait)
}

// Rebuild recreates the swapchain and everything sized by it. The device is
// idled first so retiring images and semaphores are no longer referenced.
func (w *WindowRenderer) Rebuild() error {
	if w.state == RendererActive {
		w.state = RendererRecreating
	}
	if err := w.ctx.Idle(); err != nil {
		return err
	}
	if err := w.sync.WaitPending(); err != nil {
		return err
	}
	w.releaseTargets()
	if err := w.chain.Recreate(); err != nil {
		return err
	}
	if err := w.sync.SetImageCount(w.chain.ImageCount()); err != nil {
		return err
	}
	if err := w.buildTargets(); err != nil {
		return err
	}
	extent := w.chain.Extent()
	log.Printf("vulkan: window %d swapchain now %dx%d",
		w.window.ID(), extent.Width, extent.Height)
	w.state = RendererActive
	w.window.MarkDirty()
	return nil
}

// buildTargets creates the depth target, the optional multisample color
// target and one framebuffer per swapchain image. A zero-area chain holds no
// images and builds nothing.
func (w *WindowRenderer) buildTargets() error {
	extent := w.chain.Extent()
	if extent.Width == 0 || extent.Height == 0 {
		return nil
	}
	var err error
	if w.ctx.Samples() != vk.SampleCount1Bit {
		w.msaa, err = NewColorAttachment(w.ctx.Core(), w.ctx.ColorFormat(),
			extent, w.ctx.Samples())
		if err != nil {
			return err
		}
	}
	w.depth, err = NewDepthAttachment(w.ctx.Core(), w.ctx.DepthFormat(),
		extent, w.ctx.Samples())
	if err != nil {
		return err
	}
	for _, view := range w.chain.Views() {
		attachments := []vk.ImageView{view, w.depth.View()}
		if w.msaa != nil {
			attachments = []vk.ImageView{w.msaa.View(), w.depth.View(), view}
		}
		var framebuffer vk.Framebuffer
		ret := vk.CreateFramebuffer(w.ctx.Device(), &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      w.ctx.RenderPass(),
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}, nil, &framebuffer)
		if isError(ret) {
			return NewError(ret)
		}
		w.framebuffers = append(w.framebuffers, framebuffer)
	}
	return nil
}

func (w *WindowRenderer) releaseTargets() {
	for _, framebuffer := range w.framebuffers {
		vk.DestroyFramebuffer(w.ctx.Device(), framebuffer, nil)
	}
	w.framebuffers = nil
	if w.depth != nil {
		w.depth.Destroy()
		w.depth = nil
	}
	if w.msaa != nil {
		w.msaa.Destroy()
		w.msaa = nil
	}
}

// release tears down everything Activate built, in reverse order.
func (w *WindowRenderer) release() {
	w.releaseTargets()
	if w.sync != nil {
		w.sync.Destroy()
		w.sync = nil
	}
	if w.cmd != nil {
		w.ctx.Commands().Free(w.cmd)
		w.cmd = nil
	}
	if w.chain != nil {
		w.chain.Destroy()
		w.chain = nil
	}
	if w.surface != vk.NullSurface {
		vk.DestroySurface(w.instance, w.surface, nil)
		w.surface = vk.NullSurface
	}
}

// record writes the window's frame into the shared-scene command buffer.
func (w *WindowRenderer) record(image uint32, cmd vk.CommandBuffer) error {
	extent := w.chain.Extent()

	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	})
	if isError(ret) {
		return NewError(ret)
	}

	clears := []vk.ClearValue{
		vk.NewClearValue(w.clear[:]),
		vk.NewClearDepthStencil(1, 0),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      w.ctx.RenderPass(),
		Framebuffer:     w.framebuffers[int(image)],
		RenderArea:      vk.Rect2D{Extent: extent},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, w.ctx.Pipeline())
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{Extent: extent}})
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, w.ctx.PipelineLayout(),
		0, 1, []vk.DescriptorSet{w.ctx.DescriptorSet()}, 0, nil)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{w.ctx.VertexBuffer()}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, w.ctx.IndexBuffer(), 0, w.ctx.Scene().IndexType)

	// Layout matches the shader push constant block: float time, then a
	// vec2 pointer at offset 8.
	push := [4]float32{
		float32(time.Since(w.clock).Seconds()),
		0,
		w.pointer[0],
		w.pointer[1],
	}
	vk.CmdPushConstants(cmd, w.ctx.PipelineLayout(),
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
		0, pushConstantSize, unsafe.Pointer(&push[0]))

	vk.CmdDrawIndexed(cmd, w.ctx.Scene().IndexCount, w.ctx.InstanceCount(), 0, 0, 0)
	vk.CmdEndRenderPass(cmd)
	return NewError(vk.EndCommandBuffer(cmd))
}
