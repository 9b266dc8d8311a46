package prismvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// pushConstantSize covers the float time at offset 0 and the vec2 pointer at
// offset 8, matching the shader's std430 push constant block.
const pushConstantSize = 16

// PipelineBuilder stages the create infos for the engine's one graphics
// pipeline. Viewport and scissor are dynamic state so window resizes never
// touch the pipeline.
type PipelineBuilder struct {
	shader_stages   []vk.PipelineShaderStageCreateInfo
	vertex_bindings []vk.VertexInputBindingDescription
	vertex_attrs    []vk.VertexInputAttributeDescription
	samples         vk.SampleCountFlagBits
	pipeline_layout vk.PipelineLayout
}

func NewPipelineBuilder(samples vk.SampleCountFlagBits) *PipelineBuilder {
	return &PipelineBuilder{samples: samples}
}

// Stages sets the vertex and fragment stages from the loaded program.
func (p *PipelineBuilder) Stages(program *ShaderProgram) *PipelineBuilder {
	p.shader_stages = []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: program.Vertex(),
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: program.Fragment(),
			PName:  safeString("main"),
		},
	}
	return p
}

// VertexLayout declares one interleaved binding: position vec3 at offset 0
// and color vec3 at offset 12.
func (p *PipelineBuilder) VertexLayout(stride uint32) *PipelineBuilder {
	p.vertex_bindings = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	p.vertex_attrs = []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   0,
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   12,
		},
	}
	return p
}

// Layout creates the pipeline layout from descriptor set 0 plus the push
// constant block shared by both shader stages.
func (p *PipelineBuilder) Layout(device vk.Device, setLayout vk.DescriptorSetLayout) error {
	ret := vk.CreatePipelineLayout(device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{setLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       pushConstantSize,
		}},
	}, nil, &p.pipeline_layout)
	return NewError(ret)
}

func (p *PipelineBuilder) PipelineLayout() vk.PipelineLayout { return p.pipeline_layout }

// Build assembles and creates the graphics pipeline against the render pass.
func (p *PipelineBuilder) Build(device vk.Device, renderPass vk.RenderPass) (vk.Pipeline, error) {
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(p.vertex_bindings)),
		PVertexBindingDescriptions:      p.vertex_bindings,
		VertexAttributeDescriptionCount: uint32(len(p.vertex_attrs)),
		PVertexAttributeDescriptions:    p.vertex_attrs,
	}

	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Counts only; the values are dynamic state set per frame.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1.0,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: p.samples,
		MinSampleShading:     1.0,
	}

	depthState := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpLess,
		MaxDepthBounds:   1.0,
	}

	// No blending yet; the attachment is written straight through.
	blendAttachments := []vk.PipelineColorBlendAttachmentState{{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable: vk.False,
	}}
	blendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    blendAttachments,
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates: []vk.DynamicState{
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		},
	}

	pipelineInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(p.shader_stages)),
		PStages:             p.shader_stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthState,
		PColorBlendState:    &blendState,
		PDynamicState:       &dynamicState,
		Layout:              p.pipeline_layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineHandle:  nil,
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateGraphicsPipelines(device, nil, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines)
	if isError(ret) {
		return vk.NullPipeline, NewError(ret)
	}
	return pipelines[0], nil
}
