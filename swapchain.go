package prismvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ChainStatus classifies a swapchain's report after an acquire or present.
type ChainStatus int

const (
	// ChainOK means the chain still matches the surface.
	ChainOK ChainStatus = iota
	// ChainSuboptimal means presentation worked but the chain no longer
	// matches the surface exactly; a rebuild should follow soon.
	ChainSuboptimal
	// ChainStale means the chain cannot present again until rebuilt.
	ChainStale
)

func (s ChainStatus) String() string {
	switch s {
	case ChainOK:
		return "ok"
	case ChainSuboptimal:
		return "suboptimal"
	case ChainStale:
		return "stale"
	default:
		return fmt.Sprintf("ChainStatus(%d)", int(s))
	}
}

// chainStatus maps acquire/present results onto the tri-state consumed by
// the frame synchronizer. Only out-of-date and suboptimal are recoverable.
func chainStatus(ret vk.Result) (ChainStatus, error) {
	switch ret {
	case vk.Success:
		return ChainOK, nil
	case vk.Suboptimal:
		return ChainSuboptimal, nil
	case vk.ErrorOutOfDate:
		return ChainStale, nil
	default:
		return ChainOK, NewError(ret)
	}
}

// pickPresentMode selects the present mode by fixed priority. Vsync favors
// mailbox over fifo; no-vsync favors immediate, then relaxed fifo. FIFO
// support is guaranteed on every surface, so the fallback always lands.
func pickPresentMode(available []vk.PresentMode, vsync bool) vk.PresentMode {
	priority := []vk.PresentMode{
		vk.PresentModeMailbox,
		vk.PresentModeFifo,
	}
	if !vsync {
		priority = []vk.PresentMode{
			vk.PresentModeImmediate,
			vk.PresentModeFifoRelaxed,
			vk.PresentModeFifo,
		}
	}
	for _, want := range priority {
		for _, mode := range available {
			if mode == want {
				return want
			}
		}
	}
	return vk.PresentModeFifo
}

// clampImageCount requests one image above the surface minimum, bounded by
// the surface maximum when one exists. A max of zero means unbounded.
func clampImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		count = max
	}
	return count
}

// fallbackExtent resolves the swapchain extent. Surfaces normally dictate it
// through CurrentExtent; the 0xFFFFFFFF sentinel defers to the window
// framebuffer size clamped into the supported range.
func fallbackExtent(caps *vk.SurfaceCapabilities, fbWidth, fbHeight int) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(fbWidth), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(fbHeight), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// CoreSwapchain owns the presentable image chain for one window surface.
type CoreSwapchain struct {
	device      *CoreDevice
	surface     vk.Surface
	window      WindowHandle
	format      vk.Format
	color_space vk.ColorSpace
	vsync       bool

	swapchain    vk.Swapchain
	present_mode vk.PresentMode
	extent       vk.Extent2D
	images       []vk.Image
	image_views  []vk.ImageView
}

// NewCoreSwapchain builds the initial chain. A zero-area window is allowed:
// the structure exists but holds no vk swapchain until the extent is nonzero.
func NewCoreSwapchain(device *CoreDevice, surface vk.Surface, window WindowHandle,
	format vk.Format, colorSpace vk.ColorSpace, vsync bool) (*CoreSwapchain, error) {

	core := &CoreSwapchain{
		device:      device,
		surface:     surface,
		window:      window,
		format:      format,
		color_space: colorSpace,
		vsync:       vsync,
	}
	if err := core.build(vk.NullSwapchain); err != nil {
		core.Destroy()
		return nil, err
	}
	return core, nil
}

// Recreate rebuilds the chain against current surface capabilities keeping
// the original format and vsync policy. Image views die first, the new chain
// is created with the retiring one as OldSwapchain, then the old chain dies.
// The caller guarantees the GPU is done with the retiring images.
func (core *CoreSwapchain) Recreate() error {
	core.destroyViews()
	old := core.swapchain
	core.swapchain = vk.NullSwapchain
	return core.build(old)
}

func (core *CoreSwapchain) build(old vk.Swapchain) error {
	gpu := core.device.Physical()

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, core.surface, &caps)
	if isError(ret) {
		return NewError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, core.surface, &modeCount, nil)
	modes := make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, core.surface, &modeCount, modes)
	core.present_mode = pickPresentMode(modes, core.vsync)

	fbWidth, fbHeight := core.window.FramebufferSize()
	core.extent = fallbackExtent(&caps, fbWidth, fbHeight)

	// A zero-area surface cannot back a vk swapchain; frames skip this
	// window until it has pixels again.
	if core.extent.Width == 0 || core.extent.Height == 0 {
		if old != vk.NullSwapchain {
			vk.DestroySwapchain(core.device.Handle(), old, nil)
		}
		core.images = nil
		return nil
	}

	// Figure out a suitable surface transform.
	preTransform := caps.CurrentTransform
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		preTransform = vk.SurfaceTransformIdentityBit
	}

	// Find a supported composite alpha mode - one of these is guaranteed to be set.
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          core.surface,
		MinImageCount:    clampImageCount(caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:      core.format,
		ImageColorSpace:  core.color_space,
		ImageExtent:      core.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      core.present_mode,
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	queue := core.device.Queue()
	if queue.SeparatePresent() {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{queue.GraphicsFamily(), queue.PresentFamily()}
	}

	var swapchain vk.Swapchain
	ret = vk.CreateSwapchain(core.device.Handle(), &info, nil, &swapchain)
	if isError(ret) {
		return NewError(ret)
	}
	if old != vk.NullSwapchain {
		vk.DestroySwapchain(core.device.Handle(), old, nil)
	}
	core.swapchain = swapchain

	var imageCount uint32
	ret = vk.GetSwapchainImages(core.device.Handle(), core.swapchain, &imageCount, nil)
	if isError(ret) {
		return NewError(ret)
	}
	core.images = make([]vk.Image, imageCount)
	ret = vk.GetSwapchainImages(core.device.Handle(), core.swapchain, &imageCount, core.images)
	if isError(ret) {
		return NewError(ret)
	}

	core.image_views = make([]vk.ImageView, imageCount)
	for index := range core.images {
		if err := core.createFrameImageView(index); err != nil {
			return err
		}
	}
	return nil
}

func (core *CoreSwapchain) createFrameImageView(index int) error {
	var view vk.ImageView
	ret := vk.CreateImageView(core.device.Handle(),
		&vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    core.images[index],
			ViewType: vk.ImageViewType2d,
			Format:   core.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleR,
				G: vk.ComponentSwizzleG,
				B: vk.ComponentSwizzleB,
				A: vk.ComponentSwizzleA,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			}}, nil, &view)
	if isError(ret) {
		return NewError(ret)
	}
	core.image_views[index] = view
	return nil
}

// Acquire hands out the next presentable image index. The semaphore signals
// once the image is ready to be rendered into.
func (core *CoreSwapchain) Acquire(semaphore vk.Semaphore) (uint32, ChainStatus, error) {
	var index uint32
	ret := vk.AcquireNextImage(core.device.Handle(), core.swapchain, vk.MaxUint64,
		semaphore, vk.NullFence, &index)
	status, err := chainStatus(ret)
	return index, status, err
}

// Present queues the image for display once the wait semaphore signals.
func (core *CoreSwapchain) Present(queue vk.Queue, image uint32, wait vk.Semaphore) (ChainStatus, error) {
	ret := vk.QueuePresent(queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{core.swapchain},
		PImageIndices:      []uint32{image},
	})
	return chainStatus(ret)
}

func (core *CoreSwapchain) Extent() vk.Extent2D         { return core.extent }
func (core *CoreSwapchain) Format() vk.Format           { return core.format }
func (core *CoreSwapchain) PresentMode() vk.PresentMode { return core.present_mode }
func (core *CoreSwapchain) ImageCount() int             { return len(core.images) }
func (core *CoreSwapchain) Views() []vk.ImageView       { return core.image_views }

func (core *CoreSwapchain) destroyViews() {
	for _, view := range core.image_views {
		vk.DestroyImageView(core.device.Handle(), view, nil)
	}
	core.image_views = nil
}

func (core *CoreSwapchain) Destroy() {
	core.destroyViews()
	if core.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(core.device.Handle(), core.swapchain, nil)
		core.swapchain = vk.NullSwapchain
	}
	core.images = nil
}
