package prismvk

import vk "github.com/vulkan-go/vulkan"

// AttachmentImage is a render target image (multisample color or depth)
// together with its device memory and view.
type AttachmentImage struct {
	device *CoreDevice
	image  vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
}

// NewColorAttachment creates the transient multisample color target that the
// render pass resolves into the swapchain image.
func NewColorAttachment(device *CoreDevice, format vk.Format, extent vk.Extent2D,
	samples vk.SampleCountFlagBits) (*AttachmentImage, error) {

	return newAttachment(device, format, extent, samples,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransientAttachmentBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
}

// NewDepthAttachment creates the depth target cleared at the start of every
// render pass.
func NewDepthAttachment(device *CoreDevice, format vk.Format, extent vk.Extent2D,
	samples vk.SampleCountFlagBits) (*AttachmentImage, error) {

	return newAttachment(device, format, extent, samples,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
}

func newAttachment(device *CoreDevice, format vk.Format, extent vk.Extent2D,
	samples vk.SampleCountFlagBits, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*AttachmentImage, error) {

	core := &AttachmentImage{device: device}
	ret := vk.CreateImage(device.Handle(), &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &core.image)
	if isError(ret) {
		return nil, NewError(ret)
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device.Handle(), core.image, &memReqs)
	memReqs.Deref()

	memType, err := device.FindMemoryType(memReqs.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		core.Destroy()
		return nil, err
	}
	ret = vk.AllocateMemory(device.Handle(), &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &core.memory)
	if isError(ret) {
		core.Destroy()
		return nil, NewError(ret)
	}
	ret = vk.BindImageMemory(device.Handle(), core.image, core.memory, 0)
	if isError(ret) {
		core.Destroy()
		return nil, NewError(ret)
	}

	ret = vk.CreateImageView(device.Handle(), &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    core.image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &core.view)
	if isError(ret) {
		core.Destroy()
		return nil, NewError(ret)
	}
	return core, nil
}

func (a *AttachmentImage) View() vk.ImageView { return a.view }

func (a *AttachmentImage) Destroy() {
	if a.device == nil {
		return
	}
	if a.view != vk.NullImageView {
		vk.DestroyImageView(a.device.Handle(), a.view, nil)
	}
	if a.image != vk.NullImage {
		vk.DestroyImage(a.device.Handle(), a.image, nil)
	}
	if a.memory != vk.NullDeviceMemory {
		vk.FreeMemory(a.device.Handle(), a.memory, nil)
	}
	a.device = nil
}
