package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

func (d *device) NewGraphicsPipeline(cfg driver.PipelineConfig) (driver.Pipeline, error) {
	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: cfg.VertexShader.(*shaderModule).module,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: cfg.FragmentShader.(*shaderModule).module,
			PName:  "main\x00",
		},
	}

	vertexBindings := make([]vk.VertexInputBindingDescription, len(cfg.VertexBindings))
	for i, b := range cfg.VertexBindings {
		vertexBindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRateVertex,
		}
	}
	vertexAttributes := make([]vk.VertexInputAttributeDescription, len(cfg.VertexAttributes))
	for i, a := range cfg.VertexAttributes {
		vertexAttributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   toVkVertexFormat(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(vertexBindings)),
		PVertexBindingDescriptions:      vertexBindings,
		VertexAttributeDescriptionCount: uint32(len(vertexAttributes)),
		PVertexAttributeDescriptions:    vertexAttributes,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               toVkTopology(cfg.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic; the counts still have to be 1.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                toVkCullMode(cfg.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1,
	}

	sampleMask := []vk.SampleMask{vk.SampleMask(vk.MaxUint32)}
	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
		PSampleMask:          sampleMask,
	}

	attachmentState := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit,
		),
		BlendEnable: vk.False,
	}
	if cfg.AlphaBlend {
		attachmentState.BlendEnable = vk.True
		attachmentState.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		attachmentState.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		attachmentState.ColorBlendOp = vk.BlendOpAdd
		attachmentState.SrcAlphaBlendFactor = vk.BlendFactorOne
		attachmentState.DstAlphaBlendFactor = vk.BlendFactorZero
		attachmentState.AlphaBlendOp = vk.BlendOpAdd
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{attachmentState},
	}

	cacheInfo := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var cache vk.PipelineCache
	if err := NewError(vk.CreatePipelineCache(d.dev, &cacheInfo, nil, &cache)); err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}

	createInfos := []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              cfg.Layout.(*pipelineLayout).layout,
		RenderPass:          cfg.Pass.(*renderPass).pass,
	}}
	pipelines := make([]vk.Pipeline, 1)
	if err := NewError(vk.CreateGraphicsPipelines(d.dev, cache, 1, createInfos, nil, pipelines)); err != nil {
		vk.DestroyPipelineCache(d.dev, cache, nil)
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return &pipeline{dev: d.dev, pipeline: pipelines[0], cache: cache}, nil
}

type pipeline struct {
	dev      vk.Device
	pipeline vk.Pipeline
	cache    vk.PipelineCache
}

func (p *pipeline) Destroy() {
	vk.DestroyPipeline(p.dev, p.pipeline, nil)
	vk.DestroyPipelineCache(p.dev, p.cache, nil)
}
