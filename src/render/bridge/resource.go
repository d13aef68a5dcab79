package bridge

import (
	"github.com/pkg/errors"

	"lumen/src/render/driver"
)

// CreateBuffer creates a buffer, allocates memory matching the
// requested properties, and binds it at offset 0.
func (b *Bridge) CreateBuffer(device Handle, size uint64, usage driver.BufferUsage, props driver.MemoryPropertyFlags) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}

	buf, err := dev.dev.NewBuffer(size, usage)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create buffer", err)
	}
	reqs := buf.Requirements()
	typeIndex, err := selectMemoryType(dev.adapter, reqs.TypeBits, props)
	if err != nil {
		buf.Destroy()
		b.mu.Unlock()
		return NilHandle, err
	}
	mem, err := dev.dev.AllocateMemory(reqs.Size, typeIndex)
	if err != nil {
		buf.Destroy()
		b.mu.Unlock()
		return NilHandle, allocErr("allocate buffer memory", err)
	}
	if err := buf.BindMemory(mem); err != nil {
		mem.Free()
		buf.Destroy()
		b.mu.Unlock()
		return NilHandle, allocErr("bind buffer memory", err)
	}

	h := nextHandle()
	dev.buffers[h] = &bufferEntry{
		buf:         buf,
		mem:         mem,
		size:        size,
		hostVisible: props&driver.MemoryHostVisible != 0,
	}
	b.mu.Unlock()

	Logger().Debug("buffer created", "handle", h, "size", size)
	return h, nil
}

// WriteBuffer copies data into a host-visible buffer at the given
// offset.
func (b *Bridge) WriteBuffer(device, buffer Handle, data []byte, offset uint64) error {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	buf, ok := dev.buffers[buffer]
	if !ok {
		b.mu.Unlock()
		return invalidHandle("buffer", buffer)
	}
	if !buf.hostVisible {
		b.mu.Unlock()
		return ErrHostInvisible
	}
	mem := buf.mem
	b.mu.Unlock()

	if err := mem.Write(offset, data); err != nil {
		return errors.Wrap(err, "write buffer")
	}
	return nil
}

// DestroyBuffer releases a buffer and its memory. Unknown handles are
// a no-op.
func (b *Bridge) DestroyBuffer(device, buffer Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	buf, ok := dev.buffers[buffer]
	if !ok {
		return
	}
	delete(dev.buffers, buffer)
	buf.buf.Destroy()
	if buf.mem != nil {
		buf.mem.Free()
	}
}

// CreateTexture creates a device-local image with bound memory.
func (b *Bridge) CreateTexture(device Handle, format driver.Format, width, height uint32, usage driver.TextureUsage) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}

	img, err := dev.dev.NewImage(format, width, height, usage)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create texture", err)
	}
	reqs := img.Requirements()
	typeIndex, err := selectMemoryType(dev.adapter, reqs.TypeBits, driver.MemoryDeviceLocal)
	if err != nil {
		img.Destroy()
		b.mu.Unlock()
		return NilHandle, err
	}
	mem, err := dev.dev.AllocateMemory(reqs.Size, typeIndex)
	if err != nil {
		img.Destroy()
		b.mu.Unlock()
		return NilHandle, allocErr("allocate texture memory", err)
	}
	if err := img.BindMemory(mem); err != nil {
		mem.Free()
		img.Destroy()
		b.mu.Unlock()
		return NilHandle, allocErr("bind texture memory", err)
	}

	h := nextHandle()
	dev.textures[h] = &textureEntry{
		img:        img,
		mem:        mem,
		ownsImage:  true,
		ownsMemory: true,
		format:     format,
		width:      width,
		height:     height,
	}
	b.mu.Unlock()

	Logger().Debug("texture created", "handle", h,
		"width", width, "height", height)
	return h, nil
}

// DestroyTexture releases a texture, honoring ownership: swapchain
// image wrappers leave both the image and memory alone. Unknown
// handles are a no-op.
func (b *Bridge) DestroyTexture(device, texture Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	t, ok := dev.textures[texture]
	if !ok {
		return
	}
	delete(dev.textures, texture)
	destroyTexture(t)
}

func destroyTexture(t *textureEntry) {
	if t.ownsImage {
		t.img.Destroy()
	}
	if t.ownsMemory && t.mem != nil {
		t.mem.Free()
	}
}

// CreateTextureView creates a view over a texture. The view does not
// own the texture.
func (b *Bridge) CreateTextureView(device, texture Handle) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	t, ok := dev.textures[texture]
	if !ok {
		b.mu.Unlock()
		return NilHandle, invalidHandle("texture", texture)
	}

	view, err := dev.dev.NewImageView(t.img, t.format)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create texture view", err)
	}

	h := nextHandle()
	dev.views[h] = &viewEntry{view: view, texture: texture}
	b.mu.Unlock()
	return h, nil
}

// DestroyTextureView releases a view. Unknown handles are a no-op.
func (b *Bridge) DestroyTextureView(device, view Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	v, ok := dev.views[view]
	if !ok {
		return
	}
	delete(dev.views, view)
	v.view.Destroy()
}

// CreateSampler creates a sampler with the bridge's fixed state:
// clamp-to-edge addressing and linear mipmaps.
func (b *Bridge) CreateSampler(device Handle, minFilter, magFilter driver.Filter) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	s, err := dev.dev.NewSampler(minFilter, magFilter)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create sampler", err)
	}
	h := nextHandle()
	dev.samplers[h] = s
	b.mu.Unlock()
	return h, nil
}

// DestroySampler releases a sampler. Unknown handles are a no-op.
func (b *Bridge) DestroySampler(device, sampler Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	s, ok := dev.samplers[sampler]
	if !ok {
		return
	}
	delete(dev.samplers, sampler)
	s.Destroy()
}

// CreateShaderModule wraps SPIR-V bytecode in a shader module.
func (b *Bridge) CreateShaderModule(device Handle, spirv []byte) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	m, err := dev.dev.NewShaderModule(spirv)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create shader module", err)
	}
	h := nextHandle()
	dev.shaders[h] = m
	b.mu.Unlock()
	return h, nil
}

// DestroyShaderModule releases a shader module. Unknown handles are a
// no-op.
func (b *Bridge) DestroyShaderModule(device, module Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	m, ok := dev.shaders[module]
	if !ok {
		return
	}
	delete(dev.shaders, module)
	m.Destroy()
}

// selectMemoryType finds the first adapter memory type allowed by the
// resource's type bits that carries all requested properties.
func selectMemoryType(adapter driver.Adapter, typeBits uint32, props driver.MemoryPropertyFlags) (uint32, error) {
	for i, t := range adapter.MemoryTypes() {
		if typeBits&(1<<uint32(i)) == 0 {
			continue
		}
		if t.Properties&props != props {
			continue
		}
		return uint32(i), nil
	}
	return 0, ErrNoSuitableMemoryType
}
