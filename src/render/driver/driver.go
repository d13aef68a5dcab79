// Package driver defines the boundary between the resource-lifecycle
// bridge and an explicit graphics API. The bridge owns identity,
// ownership and synchronization discipline; a driver implementation
// owns the raw API calls. The entry points a backend resolves at
// instance/device creation time are modeled as the Instance and Device
// interface values themselves: populated once, immutable afterwards.
package driver

// PlatformWindow is the platform window reference handed to surface
// creation. The caller keeps the reference alive until Release; the
// bridge releases it when the surface is destroyed, or immediately if
// surface creation fails.
type PlatformWindow interface {
	// CreateSurface creates the native surface against the backend's
	// instance object and returns it as an opaque pointer value.
	CreateSurface(instance any) (uintptr, error)

	// Release drops the platform reference.
	Release()
}

// API is the loaded graphics API. It is the root from which every
// other object is created.
type API interface {
	// InstanceLayers reports the layers available on the host.
	InstanceLayers() ([]string, error)

	// CreateInstance creates the top-level API context with the given
	// layers enabled and resolves the instance-level entry points.
	CreateInstance(appName string, layers []string) (Instance, error)
}

// Instance is a live API context together with its resolved
// instance-level entry points.
type Instance interface {
	// Adapters enumerates the physical adapters visible to the
	// instance.
	Adapters() ([]Adapter, error)

	// CreateSurface wraps a platform window in a native surface.
	// The window reference is not released on failure; that is the
	// caller's job.
	CreateSurface(win PlatformWindow) (Surface, error)

	// CreateDevice creates a logical device on the adapter with the
	// swapchain extension, one queue per distinct family in cfg, a
	// command pool allowing per-buffer reset, and a fixed descriptor
	// pool. Device-level entry points are resolved before it returns.
	CreateDevice(adapter Adapter, cfg DeviceConfig) (Device, error)

	Destroy()
}

// Adapter is a physical adapter reference. It is enumerated, never
// owned.
type Adapter interface {
	Name() string
	QueueFamilies() []QueueFamily

	// SupportsPresent reports whether the queue family can present to
	// the surface.
	SupportsPresent(family uint32, surf Surface) bool

	SurfaceCapabilities(surf Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surf Surface) ([]SurfaceFormat, error)
	SurfacePresentModes(surf Surface) ([]PresentMode, error)

	// MemoryTypes lists the adapter's memory types, indexed by the
	// type index used in MemoryRequirements.TypeBits.
	MemoryTypes() []MemoryType
}

// Surface is a native window surface.
type Surface interface {
	Destroy()
}

// Device is a logical device together with its queues, pools and
// resolved device-level entry points.
type Device interface {
	// WaitIdle blocks until all outstanding work on the device
	// completes. No timeout.
	WaitIdle() error

	NewSwapchain(surf Surface, cfg SwapchainConfig) (Swapchain, error)

	// NewRenderPass builds a single-color-attachment pass: clear on
	// load, store on end, initial layout undefined. finalPresent
	// selects the present-source final layout used by swapchain
	// passes; otherwise the attachment ends color-attachment-optimal.
	NewRenderPass(format Format, finalPresent bool) (RenderPass, error)

	NewFramebuffer(pass RenderPass, view ImageView, width, height uint32) (Framebuffer, error)
	NewSemaphore() (Semaphore, error)
	NewFence(signaled bool) (Fence, error)

	NewBuffer(size uint64, usage BufferUsage) (Buffer, error)
	NewImage(format Format, width, height uint32, usage TextureUsage) (Image, error)
	NewImageView(img Image, format Format) (ImageView, error)
	NewSampler(minFilter, magFilter Filter) (Sampler, error)
	NewShaderModule(code []byte) (ShaderModule, error)

	NewDescriptorSetLayout(bindings []LayoutBinding) (DescriptorSetLayout, error)
	NewPipelineLayout(layouts []DescriptorSetLayout) (PipelineLayout, error)
	NewGraphicsPipeline(cfg PipelineConfig) (Pipeline, error)

	// NewCommandBuffer allocates one primary command buffer from the
	// device's pool. Recording starts with CommandBuffer.Begin.
	NewCommandBuffer() (CommandBuffer, error)

	// AllocateMemory allocates device memory of the given type index.
	AllocateMemory(size uint64, memoryType uint32) (Memory, error)

	// AllocateDescriptorSet takes one set from the fixed pool.
	// Exhaustion is an allocation failure, not grown past.
	AllocateDescriptorSet(layout DescriptorSetLayout) (DescriptorSet, error)
	UpdateDescriptorSet(set DescriptorSet, writes []DescriptorWrite)

	// WaitForFence blocks until the fence signals. No timeout.
	WaitForFence(f Fence) error
	ResetFence(f Fence) error

	// Submit executes the finished command buffer on the graphics
	// queue. wait is awaited at the color-attachment-output stage;
	// wait, signal and fence may each be nil.
	Submit(cb CommandBuffer, wait, signal Semaphore, fence Fence) error

	// Present queues the image for presentation after wait signals.
	// outdated reports that the surface no longer matches the
	// swapchain (out-of-date or suboptimal), which is recoverable.
	Present(sc Swapchain, imageIndex int, wait Semaphore) (outdated bool, err error)

	// Destroy releases the descriptor pool, command pool and the
	// logical device. Callers drain owned resources first.
	Destroy()
}

// Swapchain is a presentable image chain.
type Swapchain interface {
	// Images returns the chain's images. The images are owned by the
	// presentation engine; Destroy must not be called on them.
	Images() ([]Image, error)

	// Acquire blocks until an image is available, signaling
	// imageAvailable. outdated has the same meaning as in
	// Device.Present.
	Acquire(imageAvailable Semaphore) (imageIndex int, outdated bool, err error)

	Destroy()
}

// Buffer is a GPU buffer object without backing memory.
type Buffer interface {
	Requirements() MemoryRequirements
	BindMemory(mem Memory) error
	Destroy()
}

// Image is a GPU image object. Swapchain-owned images ignore
// Requirements/BindMemory.
type Image interface {
	Requirements() MemoryRequirements
	BindMemory(mem Memory) error
	Destroy()
}

// Memory is a device memory allocation.
type Memory interface {
	// Write maps, copies and unmaps. The memory must be host-visible.
	Write(offset uint64, data []byte) error
	Free()
}

// CommandBuffer is a primary command buffer allocated from the device
// pool. Recording methods must be called between Begin and End.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, width, height uint32, clear [4]float32)
	BindPipeline(p Pipeline)
	BindVertexBuffer(slot uint32, buf Buffer, offset uint64)
	BindIndexBuffer(buf Buffer, offset uint64, format IndexFormat)
	BindDescriptorSet(layout PipelineLayout, index uint32, set DescriptorSet)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	EndRenderPass()
	End() error

	// Free returns the buffer to the pool.
	Free()
}

// DescriptorSet is an allocated descriptor set. Sets are reclaimed by
// destroying the pool, so there is no per-set destroy.
type DescriptorSet interface{}

// Leaf objects whose only lifecycle operation is destruction.
type (
	ImageView           interface{ Destroy() }
	Sampler             interface{ Destroy() }
	ShaderModule        interface{ Destroy() }
	DescriptorSetLayout interface{ Destroy() }
	PipelineLayout      interface{ Destroy() }
	Pipeline            interface{ Destroy() }
	RenderPass          interface{ Destroy() }
	Framebuffer         interface{ Destroy() }
	Semaphore           interface{ Destroy() }
	Fence               interface{ Destroy() }
)
