package bridge

import (
	"lumen/src/render/driver"
)

// CreateCommandEncoder allocates a primary command buffer and begins a
// one-time-submit recording on it.
func (b *Bridge) CreateCommandEncoder(device Handle) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	cb, err := dev.dev.NewCommandBuffer()
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("allocate command buffer", err)
	}
	if err := cb.Begin(); err != nil {
		cb.Free()
		b.mu.Unlock()
		return NilHandle, allocErr("begin command buffer", err)
	}

	h := nextHandle()
	dev.encoders[h] = &encoderEntry{cb: cb, imageIndex: -1}
	b.mu.Unlock()
	return h, nil
}

// BeginRenderPass records a render pass begin against either a
// swapchain image or an off-screen texture view, sets a full-extent
// viewport and scissor, and binds the descriptor's pipeline. The pass
// object always comes from the pipeline; swapchain targets reuse the
// prebuilt framebuffer, off-screen targets get a one-off framebuffer
// that lives as long as the recording.
func (b *Bridge) BeginRenderPass(device, encoder Handle, desc RenderPassDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	p, ok := dev.pipelines[desc.Pipeline]
	if !ok {
		return invalidHandle("render pipeline", desc.Pipeline)
	}

	var fb driver.Framebuffer
	var width, height uint32
	if desc.Swapchain != NilHandle {
		sc, ok := dev.swapchains[desc.Swapchain]
		if !ok {
			return invalidHandle("swapchain", desc.Swapchain)
		}
		if sc.rebuilding {
			return ErrSwapchainStale
		}
		if desc.ImageIndex < 0 || desc.ImageIndex >= len(sc.framebuffers) {
			return invalidHandle("swapchain image", Handle(desc.ImageIndex))
		}
		fb = sc.framebuffers[desc.ImageIndex]
		width, height = sc.width, sc.height
		enc.swapchain = desc.Swapchain
		enc.imageIndex = desc.ImageIndex
	} else {
		v, ok := dev.views[desc.TextureView]
		if !ok {
			return invalidHandle("texture view", desc.TextureView)
		}
		t, ok := dev.textures[v.texture]
		if !ok {
			return invalidHandle("texture", v.texture)
		}
		width, height = t.width, t.height
		oneOff, err := dev.dev.NewFramebuffer(p.pass, v.view, width, height)
		if err != nil {
			return allocErr("create framebuffer", err)
		}
		if enc.oneOff != nil {
			enc.oneOff.Destroy()
		}
		enc.oneOff = oneOff
		fb = oneOff
	}

	enc.cb.BeginRenderPass(p.pass, fb, width, height, desc.ClearColor)
	enc.cb.BindPipeline(p.pipeline)
	enc.pipeline = desc.Pipeline
	enc.passOpen = true
	return nil
}

// SetPipeline binds a pipeline inside the open render pass.
func (b *Bridge) SetPipeline(device, encoder, pipeline Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	p, ok := dev.pipelines[pipeline]
	if !ok {
		return invalidHandle("render pipeline", pipeline)
	}
	enc.cb.BindPipeline(p.pipeline)
	enc.pipeline = pipeline
	return nil
}

// SetVertexBuffer binds a vertex buffer to a slot.
func (b *Bridge) SetVertexBuffer(device, encoder Handle, slot uint32, buffer Handle, offset uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	buf, ok := dev.buffers[buffer]
	if !ok {
		return invalidHandle("buffer", buffer)
	}
	enc.cb.BindVertexBuffer(slot, buf.buf, offset)
	return nil
}

// SetIndexBuffer binds the index buffer.
func (b *Bridge) SetIndexBuffer(device, encoder, buffer Handle, offset uint64, format driver.IndexFormat) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	buf, ok := dev.buffers[buffer]
	if !ok {
		return invalidHandle("buffer", buffer)
	}
	enc.cb.BindIndexBuffer(buf.buf, offset, format)
	return nil
}

// SetBindGroup binds a bind group at a set index, using the layout of
// the currently bound pipeline.
func (b *Bridge) SetBindGroup(device, encoder Handle, index uint32, group Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	set, ok := dev.bindGroups[group]
	if !ok {
		return invalidHandle("bind group", group)
	}
	if enc.pipeline == NilHandle {
		return ErrNoPipeline
	}
	p, ok := dev.pipelines[enc.pipeline]
	if !ok {
		return ErrNoPipeline
	}
	layout, ok := dev.pipelineLayouts[p.layout]
	if !ok {
		return invalidHandle("pipeline layout", p.layout)
	}
	enc.cb.BindDescriptorSet(layout, index, set)
	return nil
}

// Draw records a non-indexed draw.
func (b *Bridge) Draw(device, encoder Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	enc.cb.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	return nil
}

// DrawIndexed records an indexed draw.
func (b *Bridge) DrawIndexed(device, encoder Handle, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	enc.cb.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	return nil
}

// EndRenderPass closes the open render pass. Calling it again is a
// no-op.
func (b *Bridge) EndRenderPass(device, encoder Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return invalidHandle("command encoder", encoder)
	}
	if !enc.passOpen {
		return nil
	}
	enc.cb.EndRenderPass()
	enc.passOpen = false
	return nil
}

// Finish ends the recording and converts the encoder into a command
// buffer handle ready for submission. The encoder handle is consumed.
func (b *Bridge) Finish(device, encoder Handle) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return NilHandle, err
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return NilHandle, invalidHandle("command encoder", encoder)
	}
	if enc.passOpen {
		enc.cb.EndRenderPass()
		enc.passOpen = false
	}
	if err := enc.cb.End(); err != nil {
		return NilHandle, allocErr("end command buffer", err)
	}
	delete(dev.encoders, encoder)

	h := nextHandle()
	dev.commandBuffers[h] = &commandBufferEntry{
		cb:         enc.cb,
		swapchain:  enc.swapchain,
		imageIndex: enc.imageIndex,
		oneOff:     enc.oneOff,
	}
	return h, nil
}

// DestroyCommandEncoder abandons a recording and frees the underlying
// command buffer. Unknown handles are a no-op.
func (b *Bridge) DestroyCommandEncoder(device, encoder Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	enc, ok := dev.encoders[encoder]
	if !ok {
		return
	}
	delete(dev.encoders, encoder)
	enc.cb.Free()
	if enc.oneOff != nil {
		enc.oneOff.Destroy()
	}
}

// DestroyCommandBuffer frees a finished command buffer. Unknown
// handles are a no-op.
func (b *Bridge) DestroyCommandBuffer(device, commandBuffer Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	cb, ok := dev.commandBuffers[commandBuffer]
	if !ok {
		return
	}
	delete(dev.commandBuffers, commandBuffer)
	cb.cb.Free()
	if cb.oneOff != nil {
		cb.oneOff.Destroy()
	}
}
