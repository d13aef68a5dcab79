package bridge

import (
	"lumen/src/render/driver"
)

// CreateBindGroupLayout declares a set of binding slots with their
// kinds and shader visibility.
func (b *Bridge) CreateBindGroupLayout(device Handle, entries []BindGroupLayoutEntry) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}

	bindings := make([]driver.LayoutBinding, len(entries))
	for i, e := range entries {
		bindings[i] = driver.LayoutBinding{
			Binding:    e.Binding,
			Type:       e.Type,
			Visibility: e.Visibility,
		}
	}
	layout, err := dev.dev.NewDescriptorSetLayout(bindings)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create bind group layout", err)
	}

	h := nextHandle()
	dev.bindGroupLayouts[h] = layout
	b.mu.Unlock()
	return h, nil
}

// DestroyBindGroupLayout releases a bind group layout. Unknown handles
// are a no-op.
func (b *Bridge) DestroyBindGroupLayout(device, layout Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	l, ok := dev.bindGroupLayouts[layout]
	if !ok {
		return
	}
	delete(dev.bindGroupLayouts, layout)
	l.Destroy()
}

// CreateBindGroup allocates a descriptor set against the layout and
// writes each entry. The write variant is inferred from which handles
// the entry populates: buffer, view plus sampler, view alone, or
// sampler alone. An entry populating none of them fails with
// ErrUnsupportedBinding.
func (b *Bridge) CreateBindGroup(device, layout Handle, entries []BindGroupEntry) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	l, ok := dev.bindGroupLayouts[layout]
	if !ok {
		b.mu.Unlock()
		return NilHandle, invalidHandle("bind group layout", layout)
	}

	writes := make([]driver.DescriptorWrite, 0, len(entries))
	for _, e := range entries {
		w := driver.DescriptorWrite{Binding: e.Binding}
		switch {
		case e.Buffer != NilHandle:
			buf, ok := dev.buffers[e.Buffer]
			if !ok {
				b.mu.Unlock()
				return NilHandle, invalidHandle("buffer", e.Buffer)
			}
			size := e.Size
			if size == 0 {
				size = buf.size
			}
			w.Type = driver.BindingUniformBuffer
			w.Buffer = buf.buf
			w.Offset = e.Offset
			w.Range = size
		case e.TextureView != NilHandle && e.Sampler != NilHandle:
			v, ok := dev.views[e.TextureView]
			if !ok {
				b.mu.Unlock()
				return NilHandle, invalidHandle("texture view", e.TextureView)
			}
			s, ok := dev.samplers[e.Sampler]
			if !ok {
				b.mu.Unlock()
				return NilHandle, invalidHandle("sampler", e.Sampler)
			}
			w.Type = driver.BindingCombinedImageSampler
			w.View = v.view
			w.Sampler = s
		case e.TextureView != NilHandle:
			v, ok := dev.views[e.TextureView]
			if !ok {
				b.mu.Unlock()
				return NilHandle, invalidHandle("texture view", e.TextureView)
			}
			w.Type = driver.BindingSampledTexture
			w.View = v.view
		case e.Sampler != NilHandle:
			s, ok := dev.samplers[e.Sampler]
			if !ok {
				b.mu.Unlock()
				return NilHandle, invalidHandle("sampler", e.Sampler)
			}
			w.Type = driver.BindingSampler
			w.Sampler = s
		default:
			b.mu.Unlock()
			return NilHandle, ErrUnsupportedBinding
		}
		writes = append(writes, w)
	}

	set, err := dev.dev.AllocateDescriptorSet(l)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("allocate bind group", err)
	}
	dev.dev.UpdateDescriptorSet(set, writes)

	h := nextHandle()
	dev.bindGroups[h] = set
	b.mu.Unlock()
	return h, nil
}

// DestroyBindGroup drops a bind group from the registry. The
// underlying descriptor set is reclaimed when the device's pool is
// destroyed. Unknown handles are a no-op.
func (b *Bridge) DestroyBindGroup(device, group Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	delete(dev.bindGroups, group)
}

// CreatePipelineLayout chains bind group layouts into a pipeline
// layout.
func (b *Bridge) CreatePipelineLayout(device Handle, layouts []Handle) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	setLayouts := make([]driver.DescriptorSetLayout, len(layouts))
	for i, lh := range layouts {
		l, ok := dev.bindGroupLayouts[lh]
		if !ok {
			b.mu.Unlock()
			return NilHandle, invalidHandle("bind group layout", lh)
		}
		setLayouts[i] = l
	}
	layout, err := dev.dev.NewPipelineLayout(setLayouts)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, allocErr("create pipeline layout", err)
	}
	h := nextHandle()
	dev.pipelineLayouts[h] = layout
	b.mu.Unlock()
	return h, nil
}

// DestroyPipelineLayout releases a pipeline layout. Unknown handles
// are a no-op.
func (b *Bridge) DestroyPipelineLayout(device, layout Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dev, err := b.device(device)
	if err != nil {
		return
	}
	l, ok := dev.pipelineLayouts[layout]
	if !ok {
		return
	}
	delete(dev.pipelineLayouts, layout)
	l.Destroy()
}
