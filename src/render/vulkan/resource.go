package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

func (d *device) NewBuffer(size uint64, usage driver.BufferUsage) (driver.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       toVkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := NewError(vk.CreateBuffer(d.dev, &createInfo, nil, &buf)); err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}
	return &buffer{dev: d.dev, buf: buf}, nil
}

func (d *device) NewImage(format driver.Format, width, height uint32, usage driver.TextureUsage) (driver.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    toVkFormat(format),
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         toVkImageUsage(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if err := NewError(vk.CreateImage(d.dev, &createInfo, nil, &img)); err != nil {
		return nil, errors.Wrap(err, "create image")
	}
	return &image{dev: d.dev, img: img}, nil
}

func (d *device) NewImageView(img driver.Image, format driver.Format) (driver.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(*image).img,
		ViewType: vk.ImageViewType2d,
		Format:   toVkFormat(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := NewError(vk.CreateImageView(d.dev, &createInfo, nil, &view)); err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return &imageView{dev: d.dev, view: view}, nil
}

func (d *device) NewSampler(minFilter, magFilter driver.Filter) (driver.Sampler, error) {
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MinFilter:               toVkFilter(minFilter),
		MagFilter:               toVkFilter(magFilter),
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	if err := NewError(vk.CreateSampler(d.dev, &createInfo, nil, &sampler)); err != nil {
		return nil, errors.Wrap(err, "create sampler")
	}
	return &samplerObj{dev: d.dev, sampler: sampler}, nil
}

func (d *device) NewShaderModule(code []byte) (driver.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Errorf("shader bytecode length %d is not a multiple of 4", len(code))
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    repackUint32(code),
	}
	var module vk.ShaderModule
	if err := NewError(vk.CreateShaderModule(d.dev, &createInfo, nil, &module)); err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}
	return &shaderModule{dev: d.dev, module: module}, nil
}

func (d *device) AllocateMemory(size uint64, memoryType uint32) (driver.Memory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryType,
	}
	var mem vk.DeviceMemory
	if err := NewError(vk.AllocateMemory(d.dev, &allocInfo, nil, &mem)); err != nil {
		return nil, errors.Wrap(err, "allocate memory")
	}
	return &memory{dev: d.dev, mem: mem}, nil
}

type buffer struct {
	dev vk.Device
	buf vk.Buffer
}

func (b *buffer) Requirements() driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.dev, b.buf, &reqs)
	reqs.Deref()
	return driver.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

func (b *buffer) BindMemory(mem driver.Memory) error {
	return NewError(vk.BindBufferMemory(b.dev, b.buf, mem.(*memory).mem, 0))
}

func (b *buffer) Destroy() {
	vk.DestroyBuffer(b.dev, b.buf, nil)
}

type image struct {
	dev vk.Device
	img vk.Image

	// presentOwned images belong to the presentation engine and must
	// not be destroyed or bound.
	presentOwned bool
}

func (i *image) Requirements() driver.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.dev, i.img, &reqs)
	reqs.Deref()
	return driver.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

func (i *image) BindMemory(mem driver.Memory) error {
	if i.presentOwned {
		return errors.New("cannot bind memory to a swapchain image")
	}
	return NewError(vk.BindImageMemory(i.dev, i.img, mem.(*memory).mem, 0))
}

func (i *image) Destroy() {
	if i.presentOwned {
		return
	}
	vk.DestroyImage(i.dev, i.img, nil)
}

type imageView struct {
	dev  vk.Device
	view vk.ImageView
}

func (v *imageView) Destroy() {
	vk.DestroyImageView(v.dev, v.view, nil)
}

type samplerObj struct {
	dev     vk.Device
	sampler vk.Sampler
}

func (s *samplerObj) Destroy() {
	vk.DestroySampler(s.dev, s.sampler, nil)
}

type shaderModule struct {
	dev    vk.Device
	module vk.ShaderModule
}

func (m *shaderModule) Destroy() {
	vk.DestroyShaderModule(m.dev, m.module, nil)
}

type memory struct {
	dev vk.Device
	mem vk.DeviceMemory
}

func (m *memory) Write(offset uint64, data []byte) error {
	var ptr unsafe.Pointer
	if err := NewError(vk.MapMemory(m.dev, m.mem, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &ptr)); err != nil {
		return errors.Wrap(err, "map memory")
	}
	n := vk.Memcopy(ptr, data)
	vk.UnmapMemory(m.dev, m.mem)
	if n != len(data) {
		return errors.Errorf("short copy to device memory: %d of %d bytes", n, len(data))
	}
	return nil
}

func (m *memory) Free() {
	vk.FreeMemory(m.dev, m.mem, nil)
}
