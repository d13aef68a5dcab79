package vulkan

import (
	"encoding/binary"
	"strings"

	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

// cstr null-terminates a string for the C side.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func toVkFormat(f driver.Format) vk.Format {
	switch f {
	case driver.FormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case driver.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case driver.FormatRGBA16Float:
		return vk.FormatR16g16b16a16Sfloat
	default:
		return vk.FormatUndefined
	}
}

func toFormat(f vk.Format) driver.Format {
	switch f {
	case vk.FormatB8g8r8a8Unorm:
		return driver.FormatBGRA8Unorm
	case vk.FormatR8g8b8a8Unorm:
		return driver.FormatRGBA8Unorm
	case vk.FormatR16g16b16a16Sfloat:
		return driver.FormatRGBA16Float
	default:
		return driver.FormatUndefined
	}
}

func toColorSpace(cs vk.ColorSpace) driver.ColorSpace {
	if cs == vk.ColorSpaceSrgbNonlinear {
		return driver.ColorSpaceSRGBNonlinear
	}
	return driver.ColorSpaceOther
}

func toVkColorSpace(cs driver.ColorSpace) vk.ColorSpace {
	// The only color space core Vulkan guarantees.
	_ = cs
	return vk.ColorSpaceSrgbNonlinear
}

func toVkPresentMode(m driver.PresentMode) vk.PresentMode {
	switch m {
	case driver.PresentModeMailbox:
		return vk.PresentModeMailbox
	case driver.PresentModeImmediate:
		return vk.PresentModeImmediate
	case driver.PresentModeFIFORelaxed:
		return vk.PresentModeFifoRelaxed
	default:
		return vk.PresentModeFifo
	}
}

func toPresentMode(m vk.PresentMode) driver.PresentMode {
	switch m {
	case vk.PresentModeMailbox:
		return driver.PresentModeMailbox
	case vk.PresentModeImmediate:
		return driver.PresentModeImmediate
	case vk.PresentModeFifoRelaxed:
		return driver.PresentModeFIFORelaxed
	default:
		return driver.PresentModeFIFO
	}
}

func toVkBufferUsage(u driver.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&driver.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if u&driver.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u&driver.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if u&driver.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if u&driver.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if u&driver.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func toVkImageUsage(u driver.TextureUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&driver.TextureUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&driver.TextureUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&driver.TextureUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if u&driver.TextureUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	return vk.ImageUsageFlags(flags)
}

func toMemoryProperties(p vk.MemoryPropertyFlags) driver.MemoryPropertyFlags {
	var props driver.MemoryPropertyFlags
	if p&vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit) != 0 {
		props |= driver.MemoryDeviceLocal
	}
	if p&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		props |= driver.MemoryHostVisible
	}
	if p&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0 {
		props |= driver.MemoryHostCoherent
	}
	return props
}

func toVkFilter(f driver.Filter) vk.Filter {
	if f == driver.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func toVkDescriptorType(t driver.BindingType) vk.DescriptorType {
	switch t {
	case driver.BindingStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case driver.BindingSampledTexture:
		return vk.DescriptorTypeSampledImage
	case driver.BindingSampler:
		return vk.DescriptorTypeSampler
	case driver.BindingCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler
	default:
		return vk.DescriptorTypeUniformBuffer
	}
}

func toVkShaderStages(s driver.ShaderStageFlags) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlagBits
	if s&driver.StageVertex != 0 {
		flags |= vk.ShaderStageVertexBit
	}
	if s&driver.StageFragment != 0 {
		flags |= vk.ShaderStageFragmentBit
	}
	if s&driver.StageCompute != 0 {
		flags |= vk.ShaderStageComputeBit
	}
	return vk.ShaderStageFlags(flags)
}

func toVkVertexFormat(f driver.VertexFormat) vk.Format {
	switch f {
	case driver.VertexFloat:
		return vk.FormatR32Sfloat
	case driver.VertexFloat2:
		return vk.FormatR32g32Sfloat
	case driver.VertexFloat3:
		return vk.FormatR32g32b32Sfloat
	default:
		return vk.FormatR32g32b32a32Sfloat
	}
}

func toVkTopology(t driver.Topology) vk.PrimitiveTopology {
	switch t {
	case driver.TopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case driver.TopologyLineList:
		return vk.PrimitiveTopologyLineList
	case driver.TopologyLineStrip:
		return vk.PrimitiveTopologyLineStrip
	case driver.TopologyPointList:
		return vk.PrimitiveTopologyPointList
	default:
		return vk.PrimitiveTopologyTriangleList
	}
}

func toVkCullMode(m driver.CullMode) vk.CullModeFlags {
	switch m {
	case driver.CullFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case driver.CullBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	default:
		return vk.CullModeFlags(vk.CullModeNone)
	}
}

func toVkIndexType(f driver.IndexFormat) vk.IndexType {
	if f == driver.IndexUint32 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

// repackUint32 reinterprets SPIR-V bytecode as the word slice the
// shader module wants. The byte length must be a multiple of 4.
func repackUint32(data []byte) []uint32 {
	buf := make([]uint32, len(data)/4)
	for i := range buf {
		buf[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return buf
}
