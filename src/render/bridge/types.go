package bridge

import (
	"lumen/src/render/driver"
)

// Descriptor pool capacities, fixed at device creation.
const (
	poolMaxSets               = 512
	poolUniformBuffers        = 512
	poolCombinedImageSamplers = 256
	poolSampledImages         = 256
	poolSamplers              = 256
)

// validationLayer is enabled when requested and present.
const validationLayer = "VK_LAYER_KHRONOS_validation"

// Frame is the result of acquiring a swapchain image: the image index
// to record against plus the handles of the image's texture wrapper
// and view.
type Frame struct {
	ImageIndex int
	Texture    Handle
	View       Handle
}

// BindGroupLayoutEntry declares one binding slot of a bind group
// layout.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Type       driver.BindingType
	Visibility driver.ShaderStageFlags
}

// BindGroupEntry populates one binding slot. Exactly one variant must
// be set: Buffer (with Offset/Size), TextureView+Sampler, TextureView
// alone, or Sampler alone.
type BindGroupEntry struct {
	Binding uint32

	Buffer Handle
	Offset uint64
	Size   uint64

	TextureView Handle
	Sampler     Handle
}

// RenderPipelineDescriptor describes a render pipeline. When Swapchain
// is set the pipeline renders to that swapchain's pass; otherwise it
// owns a private pass targeting ColorFormat.
type RenderPipelineDescriptor struct {
	VertexShader   Handle
	FragmentShader Handle

	VertexBindings   []driver.VertexBindingDesc
	VertexAttributes []driver.VertexAttributeDesc

	Topology   driver.Topology
	CullMode   driver.CullMode
	AlphaBlend bool

	Layout Handle

	Swapchain   Handle
	ColorFormat driver.Format
}

// RenderPassDescriptor begins a render pass on a command encoder.
// Swapchain+ImageIndex target a presentable image; TextureView targets
// an off-screen texture. Pipeline supplies the pass and is bound.
type RenderPassDescriptor struct {
	Swapchain  Handle
	ImageIndex int

	TextureView Handle

	Pipeline   Handle
	ClearColor [4]float32
}

// Internal entity records. Driver objects are stored alongside the
// bookkeeping the lifecycle rules need; entries are only touched under
// the bridge mutex.

type instanceEntry struct {
	inst     driver.Instance
	surfaces map[Handle]*surfaceEntry
	devices  map[Handle]*deviceEntry
}

type surfaceEntry struct {
	surf   driver.Surface
	window driver.PlatformWindow

	// swapchains owned by this surface, mapped to their owning device.
	swapchains map[Handle]Handle
}

type deviceEntry struct {
	dev     driver.Device
	adapter driver.Adapter

	graphicsFamily uint32
	presentFamily  uint32

	swapchains       map[Handle]*swapchainEntry
	buffers          map[Handle]*bufferEntry
	textures         map[Handle]*textureEntry
	views            map[Handle]*viewEntry
	samplers         map[Handle]driver.Sampler
	shaders          map[Handle]driver.ShaderModule
	bindGroupLayouts map[Handle]driver.DescriptorSetLayout
	bindGroups       map[Handle]driver.DescriptorSet
	pipelineLayouts  map[Handle]driver.PipelineLayout
	pipelines        map[Handle]*pipelineEntry
	encoders         map[Handle]*encoderEntry
	commandBuffers   map[Handle]*commandBufferEntry
}

type swapchainEntry struct {
	sc      driver.Swapchain
	surface Handle

	format driver.SurfaceFormat
	width  uint32
	height uint32

	pass         driver.RenderPass
	images       []driver.Image
	textureIDs   []Handle
	viewIDs      []Handle
	framebuffers []driver.Framebuffer

	// scratchViews holds the per-image view objects while they are not
	// registered (during build and after detach).
	scratchViews []driver.ImageView

	imageAvailable driver.Semaphore
	renderFinished driver.Semaphore
	inFlight       driver.Fence

	// rebuilding marks an entry whose driver objects have been moved
	// out for teardown. Frame operations racing a resize or destroy
	// see the flag under the bridge mutex and fail with
	// ErrSwapchainStale instead of touching dead state.
	rebuilding bool
}

type bufferEntry struct {
	buf         driver.Buffer
	mem         driver.Memory
	size        uint64
	hostVisible bool
}

type textureEntry struct {
	img driver.Image
	mem driver.Memory

	// Swapchain image wrappers own neither the image nor memory.
	ownsImage  bool
	ownsMemory bool

	format driver.Format
	width  uint32
	height uint32
}

type viewEntry struct {
	view    driver.ImageView
	texture Handle
}

type pipelineEntry struct {
	pipeline driver.Pipeline
	layout   Handle

	pass     driver.RenderPass
	ownsPass bool
}

type encoderEntry struct {
	cb driver.CommandBuffer

	pipeline   Handle
	swapchain  Handle
	imageIndex int
	passOpen   bool

	// oneOff is the framebuffer built for an off-screen target; it
	// follows the recording into the finished command buffer.
	oneOff driver.Framebuffer
}

type commandBufferEntry struct {
	cb driver.CommandBuffer

	swapchain  Handle
	imageIndex int
	oneOff     driver.Framebuffer
}
