package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

func (d *device) NewCommandBuffer() (driver.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.cmdPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if err := NewError(vk.AllocateCommandBuffers(d.dev, &allocInfo, buffers)); err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}
	return &commandBuffer{dev: d.dev, pool: d.cmdPool, cb: buffers[0]}, nil
}

type commandBuffer struct {
	dev  vk.Device
	pool vk.CommandPool
	cb   vk.CommandBuffer
}

func (c *commandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return NewError(vk.BeginCommandBuffer(c.cb, &beginInfo))
}

func (c *commandBuffer) BeginRenderPass(pass driver.RenderPass, fb driver.Framebuffer, width, height uint32, clear [4]float32) {
	extent := vk.Extent2D{Width: width, Height: height}
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clear[:]),
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass.(*renderPass).pass,
		Framebuffer: fb.(*framebuffer).fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.cb, &beginInfo, vk.SubpassContentsInline)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(c.cb, 0, 1, []vk.Viewport{viewport})
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetScissor(c.cb, 0, 1, []vk.Rect2D{scissor})
}

func (c *commandBuffer) BindPipeline(p driver.Pipeline) {
	vk.CmdBindPipeline(c.cb, vk.PipelineBindPointGraphics, p.(*pipeline).pipeline)
}

func (c *commandBuffer) BindVertexBuffer(slot uint32, buf driver.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.cb, slot, 1,
		[]vk.Buffer{buf.(*buffer).buf}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *commandBuffer) BindIndexBuffer(buf driver.Buffer, offset uint64, format driver.IndexFormat) {
	vk.CmdBindIndexBuffer(c.cb, buf.(*buffer).buf, vk.DeviceSize(offset), toVkIndexType(format))
}

func (c *commandBuffer) BindDescriptorSet(layout driver.PipelineLayout, index uint32, set driver.DescriptorSet) {
	vk.CmdBindDescriptorSets(c.cb, vk.PipelineBindPointGraphics,
		layout.(*pipelineLayout).layout, index, 1,
		[]vk.DescriptorSet{set.(descriptorSet).set}, 0, nil)
}

func (c *commandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.cb, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *commandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(c.cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (c *commandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.cb)
}

func (c *commandBuffer) End() error {
	return NewError(vk.EndCommandBuffer(c.cb))
}

func (c *commandBuffer) Free() {
	vk.FreeCommandBuffers(c.dev, c.pool, 1, []vk.CommandBuffer{c.cb})
}
