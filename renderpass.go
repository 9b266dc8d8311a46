package prismvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// NewRenderPass builds the single-subpass render pass every window shares.
// With multisampling the subpass renders into a transient color target and
// resolves into the swapchain image; at one sample it writes the swapchain
// image directly. Depth is cleared per frame and never stored.
func NewRenderPass(device vk.Device, colorFormat, depthFormat vk.Format,
	samples vk.SampleCountFlagBits) (vk.RenderPass, error) {

	multisampled := samples != vk.SampleCount1Bit

	colorStore := vk.AttachmentStoreOpStore
	colorFinal := vk.ImageLayoutPresentSrc
	if multisampled {
		colorStore = vk.AttachmentStoreOpDontCare
		colorFinal = vk.ImageLayoutColorAttachmentOptimal
	}

	attachmentDescriptions := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        colorStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    colorFinal,
		},
		{
			Format:         depthFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReferences,
		PDepthStencilAttachment: &depthReference,
	}

	if multisampled {
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		})
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 2,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	stageMask := vk.PipelineStageFlags(
		vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	writeMask := vk.AccessFlags(
		vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit)

	subpassDependencies := []vk.SubpassDependency{
		{
			SrcSubpass:      vk.MaxUint32,
			DstSubpass:      0,
			SrcStageMask:    stageMask,
			DstStageMask:    stageMask,
			SrcAccessMask:   0,
			DstAccessMask:   writeMask,
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
		{
			SrcSubpass:      0,
			DstSubpass:      vk.MaxUint32,
			SrcStageMask:    stageMask,
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			SrcAccessMask:   writeMask,
			DstAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(subpassDependencies)),
		PDependencies:   subpassDependencies,
	}, nil, &renderPass)
	if isError(ret) {
		return vk.NullRenderPass, NewError(ret)
	}
	return renderPass, nil
}
