package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

type device struct {
	dev           vk.Device
	gpu           vk.PhysicalDevice
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	cmdPool       vk.CommandPool
	descPool      vk.DescriptorPool
}

func (d *device) WaitIdle() error {
	return NewError(vk.DeviceWaitIdle(d.dev))
}

func (d *device) NewSwapchain(surf driver.Surface, cfg driver.SwapchainConfig) (driver.Swapchain, error) {
	sharingMode := vk.SharingModeExclusive
	if len(cfg.QueueFamilies) > 1 {
		sharingMode = vk.SharingModeConcurrent
	}
	createInfo := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surf.(*surface).surf,
		MinImageCount:   cfg.MinImageCount,
		ImageFormat:     toVkFormat(cfg.Format.Format),
		ImageColorSpace: toVkColorSpace(cfg.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  cfg.Width,
			Height: cfg.Height,
		},
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(cfg.QueueFamilies)),
		PQueueFamilyIndices:   cfg.QueueFamilies,
		PreTransform:          vk.SurfaceTransformFlagBits(cfg.Transform),
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           toVkPresentMode(cfg.PresentMode),
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}
	var sc vk.Swapchain
	if err := NewError(vk.CreateSwapchain(d.dev, &createInfo, nil, &sc)); err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	return &swapchain{dev: d.dev, sc: sc}, nil
}

func (d *device) NewRenderPass(format driver.Format, finalPresent bool) (driver.RenderPass, error) {
	finalLayout := vk.ImageLayoutColorAttachmentOptimal
	if finalPresent {
		finalLayout = vk.ImageLayoutPresentSrc
	}
	attachments := []vk.AttachmentDescription{{
		Format:         toVkFormat(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    finalLayout,
	}}
	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorRefs,
	}}
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}}
	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      subpasses,
		DependencyCount: 1,
		PDependencies:   dependencies,
	}
	var pass vk.RenderPass
	if err := NewError(vk.CreateRenderPass(d.dev, &createInfo, nil, &pass)); err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &renderPass{dev: d.dev, pass: pass}, nil
}

func (d *device) NewFramebuffer(pass driver.RenderPass, view driver.ImageView, width, height uint32) (driver.Framebuffer, error) {
	attachments := []vk.ImageView{view.(*imageView).view}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.(*renderPass).pass,
		AttachmentCount: 1,
		PAttachments:    attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if err := NewError(vk.CreateFramebuffer(d.dev, &createInfo, nil, &fb)); err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &framebuffer{dev: d.dev, fb: fb}, nil
}

func (d *device) NewSemaphore() (driver.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := NewError(vk.CreateSemaphore(d.dev, &createInfo, nil, &sem)); err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &semaphore{dev: d.dev, sem: sem}, nil
}

func (d *device) NewFence(signaled bool) (driver.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	if err := NewError(vk.CreateFence(d.dev, &createInfo, nil, &f)); err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &fence{dev: d.dev, fence: f}, nil
}

func (d *device) WaitForFence(f driver.Fence) error {
	fences := []vk.Fence{f.(*fence).fence}
	return NewError(vk.WaitForFences(d.dev, 1, fences, vk.True, vk.MaxUint64))
}

func (d *device) ResetFence(f driver.Fence) error {
	fences := []vk.Fence{f.(*fence).fence}
	return NewError(vk.ResetFences(d.dev, 1, fences))
}

func (d *device) Submit(cb driver.CommandBuffer, wait, signal driver.Semaphore, f driver.Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.(*commandBuffer).cb},
	}
	if wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{wait.(*semaphore).sem}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signal.(*semaphore).sem}
	}
	vkFence := vk.NullFence
	if f != nil {
		vkFence = f.(*fence).fence
	}
	if err := NewError(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vkFence)); err != nil {
		return errors.Wrap(err, "submit command buffer")
	}
	return nil
}

func (d *device) Present(sc driver.Swapchain, imageIndex int, wait driver.Semaphore) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{sc.(*swapchain).sc},
		PImageIndices:  []uint32{uint32(imageIndex)},
	}
	if wait != nil {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{wait.(*semaphore).sem}
	}
	ret := vk.QueuePresent(d.presentQueue, &presentInfo)
	switch ret {
	case vk.Success:
		return false, nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return true, nil
	default:
		return false, errors.Wrap(NewError(ret), "present image")
	}
}

func (d *device) Destroy() {
	vk.DestroyDescriptorPool(d.dev, d.descPool, nil)
	vk.DestroyCommandPool(d.dev, d.cmdPool, nil)
	vk.DestroyDevice(d.dev, nil)
}

type renderPass struct {
	dev  vk.Device
	pass vk.RenderPass
}

func (r *renderPass) Destroy() {
	vk.DestroyRenderPass(r.dev, r.pass, nil)
}

type framebuffer struct {
	dev vk.Device
	fb  vk.Framebuffer
}

func (f *framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.dev, f.fb, nil)
}

type semaphore struct {
	dev vk.Device
	sem vk.Semaphore
}

func (s *semaphore) Destroy() {
	vk.DestroySemaphore(s.dev, s.sem, nil)
}

type fence struct {
	dev   vk.Device
	fence vk.Fence
}

func (f *fence) Destroy() {
	vk.DestroyFence(f.dev, f.fence, nil)
}
