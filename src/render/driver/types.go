package driver

// ExtentUndefined in SurfaceCapabilities.CurrentWidth/CurrentHeight
// means the surface takes its extent from the swapchain.
const ExtentUndefined = ^uint32(0)

// QueueFamily describes one adapter queue family.
type QueueFamily struct {
	Index    uint32
	Graphics bool
}

// MemoryPropertyFlags classify a memory type.
type MemoryPropertyFlags uint32

const (
	MemoryDeviceLocal MemoryPropertyFlags = 1 << iota
	MemoryHostVisible
	MemoryHostCoherent
)

// MemoryType is one adapter memory type.
type MemoryType struct {
	Properties MemoryPropertyFlags
}

// MemoryRequirements describe the backing a buffer or image needs.
// TypeBits has bit i set when memory type index i is acceptable.
type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	TypeBits  uint32
}

// TransformFlags is the surface pre-transform, passed through opaquely
// from capabilities to swapchain creation.
type TransformFlags uint32

// SurfaceCapabilities is the subset of surface capabilities the bridge
// consumes.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of 0 means no upper bound.
	MaxImageCount uint32
	CurrentWidth  uint32
	CurrentHeight uint32
	MinWidth      uint32
	MinHeight     uint32
	MaxWidth      uint32
	MaxHeight     uint32

	CurrentTransform TransformFlags
}

// Format is a texel format.
type Format int

const (
	FormatUndefined Format = iota
	FormatBGRA8Unorm
	FormatRGBA8Unorm
	FormatRGBA16Float
)

// ColorSpace is a surface color space.
type ColorSpace int

const (
	ColorSpaceSRGBNonlinear ColorSpace = iota
	ColorSpaceOther
)

// SurfaceFormat pairs a format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode selects the presentation engine's queueing discipline.
type PresentMode int

const (
	PresentModeFIFO PresentMode = iota
	PresentModeMailbox
	PresentModeImmediate
	PresentModeFIFORelaxed
)

// SwapchainConfig carries the parameters the bridge resolved from the
// surface capabilities.
type SwapchainConfig struct {
	MinImageCount uint32
	Format        SurfaceFormat
	Width         uint32
	Height        uint32
	Transform     TransformFlags
	PresentMode   PresentMode

	// QueueFamilies lists the distinct families that touch the
	// images. Two entries means concurrent sharing between the
	// graphics and present families.
	QueueFamilies []uint32
}

// DescriptorPoolSizes fixes the device descriptor pool at creation.
type DescriptorPoolSizes struct {
	MaxSets               uint32
	UniformBuffers        uint32
	CombinedImageSamplers uint32
	SampledImages         uint32
	Samplers              uint32
}

// DeviceConfig carries the queue and pool choices for device creation.
type DeviceConfig struct {
	GraphicsFamily uint32
	PresentFamily  uint32
	DescriptorPool DescriptorPoolSizes
}

// BufferUsage is a bitmask of buffer usages.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// TextureUsage is a bitmask of image usages.
type TextureUsage uint32

const (
	TextureUsageSampled TextureUsage = 1 << iota
	TextureUsageColorAttachment
	TextureUsageTransferSrc
	TextureUsageTransferDst
)

// Filter is a sampler filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// BindingType classifies a descriptor binding.
type BindingType int

const (
	BindingUniformBuffer BindingType = iota
	BindingStorageBuffer
	BindingSampledTexture
	BindingSampler
	BindingCombinedImageSampler
)

// ShaderStageFlags is a bitmask of shader stages.
type ShaderStageFlags uint32

const (
	StageVertex ShaderStageFlags = 1 << iota
	StageFragment
	StageCompute
)

// LayoutBinding is one entry of a descriptor set layout.
type LayoutBinding struct {
	Binding    uint32
	Type       BindingType
	Visibility ShaderStageFlags
}

// DescriptorWrite updates one binding of a descriptor set. The fields
// that apply depend on Type: buffers fill Buffer/Offset/Range, texture
// bindings fill View and/or Sampler.
type DescriptorWrite struct {
	Binding uint32
	Type    BindingType

	Buffer Buffer
	Offset uint64
	Range  uint64

	View    ImageView
	Sampler Sampler
}

// VertexFormat is a vertex attribute component layout.
type VertexFormat int

const (
	VertexFloat VertexFormat = iota
	VertexFloat2
	VertexFloat3
	VertexFloat4
)

// VertexBindingDesc is one vertex buffer binding slot.
type VertexBindingDesc struct {
	Binding uint32
	Stride  uint32
}

// VertexAttributeDesc is one vertex attribute.
type VertexAttributeDesc struct {
	Location uint32
	Binding  uint32
	Format   VertexFormat
	Offset   uint32
}

// Topology is the primitive topology.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

// CullMode selects back-face culling.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// IndexFormat is the index buffer element width.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// PipelineConfig describes a graphics pipeline. Viewport and scissor
// are dynamic state set at render pass begin.
type PipelineConfig struct {
	VertexShader     ShaderModule
	FragmentShader   ShaderModule
	VertexBindings   []VertexBindingDesc
	VertexAttributes []VertexAttributeDesc
	Topology         Topology
	CullMode         CullMode
	AlphaBlend       bool
	Layout           PipelineLayout
	Pass             RenderPass
}
