package bridge

import (
	"lumen/src/render/driver"
)

// CreateRenderPipeline builds a graphics pipeline. Pipelines rendering
// to a swapchain share its render pass; otherwise the pipeline owns a
// private pass targeting the descriptor's color format, destroyed with
// the pipeline. Viewport and scissor are always dynamic.
func (b *Bridge) CreateRenderPipeline(device Handle, desc RenderPipelineDescriptor) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}

	vert, ok := dev.shaders[desc.VertexShader]
	if !ok {
		b.mu.Unlock()
		return NilHandle, invalidHandle("shader module", desc.VertexShader)
	}
	frag, ok := dev.shaders[desc.FragmentShader]
	if !ok {
		b.mu.Unlock()
		return NilHandle, invalidHandle("shader module", desc.FragmentShader)
	}
	layout, ok := dev.pipelineLayouts[desc.Layout]
	if !ok {
		b.mu.Unlock()
		return NilHandle, invalidHandle("pipeline layout", desc.Layout)
	}

	var pass driver.RenderPass
	ownsPass := false
	if desc.Swapchain != NilHandle {
		sc, ok := dev.swapchains[desc.Swapchain]
		if !ok {
			b.mu.Unlock()
			return NilHandle, invalidHandle("swapchain", desc.Swapchain)
		}
		if sc.rebuilding {
			b.mu.Unlock()
			return NilHandle, ErrSwapchainStale
		}
		pass = sc.pass
	} else {
		format := desc.ColorFormat
		if format == driver.FormatUndefined {
			format = driver.FormatBGRA8Unorm
		}
		p, err := dev.dev.NewRenderPass(format, false)
		if err != nil {
			b.mu.Unlock()
			return NilHandle, allocErr("create render pass", err)
		}
		pass = p
		ownsPass = true
	}

	cfg := driver.PipelineConfig{
		VertexShader:     vert,
		FragmentShader:   frag,
		VertexBindings:   desc.VertexBindings,
		VertexAttributes: desc.VertexAttributes,
		Topology:         desc.Topology,
		CullMode:         desc.CullMode,
		AlphaBlend:       desc.AlphaBlend,
		Layout:           layout,
		Pass:             pass,
	}
	p, err := dev.dev.NewGraphicsPipeline(cfg)
	if err != nil {
		if ownsPass {
			pass.Destroy()
		}
		b.mu.Unlock()
		return NilHandle, allocErr("create render pipeline", err)
	}

	h := nextHandle()
	dev.pipelines[h] = &pipelineEntry{
		pipeline: p,
		layout:   desc.Layout,
		pass:     pass,
		ownsPass: ownsPass,
	}
	b.mu.Unlock()

	Logger().Debug("render pipeline created", "handle", h)
	return h, nil
}

// DestroyRenderPipeline releases a pipeline and, when private, its
// render pass. Unknown handles are a no-op.
func (b *Bridge) DestroyRenderPipeline(device, pipeline Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	p, ok := dev.pipelines[pipeline]
	if !ok {
		return
	}
	delete(dev.pipelines, pipeline)
	p.pipeline.Destroy()
	if p.ownsPass && p.pass != nil {
		p.pass.Destroy()
	}
}
