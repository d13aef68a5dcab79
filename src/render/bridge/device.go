package bridge

import (
	"lumen/src/render/driver"
)

// CreateDevice selects an adapter and queue families for the instance
// and creates a logical device with its command and descriptor pools.
//
// Selection prefers the first (adapter, family) pair where the family
// has graphics support and, when the instance owns a surface, present
// support against it. When nothing qualifies the first adapter and
// family 0 are used anyway; some platforms underreport present
// support and the original behavior is to proceed.
func (b *Bridge) CreateDevice(instance Handle) (Handle, error) {
	b.mu.Lock()
	inst, err := b.instance(instance)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	var presentTarget driver.Surface
	for _, s := range inst.surfaces {
		presentTarget = s.surf
		break
	}
	b.mu.Unlock()

	adapters, err := inst.inst.Adapters()
	if err != nil {
		return NilHandle, allocErr("enumerate adapters", err)
	}
	if len(adapters) == 0 {
		return NilHandle, ErrNoDeviceAvailable
	}

	chosen, graphicsFamily, presentFamily, found := selectAdapter(adapters, presentTarget)
	if !found {
		chosen, graphicsFamily, presentFamily = adapters[0], 0, 0
		Logger().Warn("no queue family with graphics+present support, falling back",
			"adapter", chosen.Name())
	}

	cfg := driver.DeviceConfig{
		GraphicsFamily: graphicsFamily,
		PresentFamily:  presentFamily,
		DescriptorPool: driver.DescriptorPoolSizes{
			MaxSets:               poolMaxSets,
			UniformBuffers:        poolUniformBuffers,
			CombinedImageSamplers: poolCombinedImageSamplers,
			SampledImages:         poolSampledImages,
			Samplers:              poolSamplers,
		},
	}
	dev, err := inst.inst.CreateDevice(chosen, cfg)
	if err != nil {
		return NilHandle, allocErr("create device", err)
	}

	h := nextHandle()
	b.mu.Lock()
	inst.devices[h] = &deviceEntry{
		dev:              dev,
		adapter:          chosen,
		graphicsFamily:   graphicsFamily,
		presentFamily:    presentFamily,
		swapchains:       make(map[Handle]*swapchainEntry),
		buffers:          make(map[Handle]*bufferEntry),
		textures:         make(map[Handle]*textureEntry),
		views:            make(map[Handle]*viewEntry),
		samplers:         make(map[Handle]driver.Sampler),
		shaders:          make(map[Handle]driver.ShaderModule),
		bindGroupLayouts: make(map[Handle]driver.DescriptorSetLayout),
		bindGroups:       make(map[Handle]driver.DescriptorSet),
		pipelineLayouts:  make(map[Handle]driver.PipelineLayout),
		pipelines:        make(map[Handle]*pipelineEntry),
		encoders:         make(map[Handle]*encoderEntry),
		commandBuffers:   make(map[Handle]*commandBufferEntry),
	}
	b.mu.Unlock()

	Logger().Info("device created", "handle", h, "adapter", chosen.Name(),
		"graphicsFamily", graphicsFamily, "presentFamily", presentFamily)
	return h, nil
}

func selectAdapter(adapters []driver.Adapter, presentTarget driver.Surface) (driver.Adapter, uint32, uint32, bool) {
	for _, a := range adapters {
		for _, fam := range a.QueueFamilies() {
			if !fam.Graphics {
				continue
			}
			if presentTarget != nil && !a.SupportsPresent(fam.Index, presentTarget) {
				continue
			}
			return a, fam.Index, fam.Index, true
		}
	}
	return nil, 0, 0, false
}

// DestroyDevice waits for the device to go idle and releases every
// resource it owns, in reverse dependency order, before destroying the
// pools and the device. Unknown handles are a no-op.
func (b *Bridge) DestroyDevice(instance, device Handle) {
	b.mu.Lock()
	inst, err := b.instance(instance)
	if err != nil {
		b.mu.Unlock()
		return
	}
	dev, ok := inst.devices[device]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(inst.devices, device)
	b.mu.Unlock()

	b.teardownDevice(dev, inst)
	Logger().Info("device destroyed", "handle", device)
}

// teardownDevice drains a detached device entry. The entry must no
// longer be reachable through the registries; inst is only consulted
// to unlink swapchain back-references from sibling surfaces.
func (b *Bridge) teardownDevice(dev *deviceEntry, inst *instanceEntry) {
	if err := dev.dev.WaitIdle(); err != nil {
		Logger().Warn("device idle wait failed during teardown", "error", err)
	}

	b.mu.Lock()
	detached := make([]*swapchainEntry, 0, len(dev.swapchains))
	for sch, sc := range dev.swapchains {
		for _, surf := range inst.surfaces {
			delete(surf.swapchains, sch)
		}
		b.detachSwapchainResources(dev, sc)
		detached = append(detached, sc.detachForTeardown())
	}
	dev.swapchains = make(map[Handle]*swapchainEntry)
	b.mu.Unlock()

	for _, sc := range detached {
		teardownSwapchain(sc)
	}

	for h, p := range dev.pipelines {
		p.pipeline.Destroy()
		if p.ownsPass && p.pass != nil {
			p.pass.Destroy()
		}
		delete(dev.pipelines, h)
	}
	for h, l := range dev.pipelineLayouts {
		l.Destroy()
		delete(dev.pipelineLayouts, h)
	}
	// Descriptor sets are reclaimed when the pool goes away with the
	// device; only the registry entries are dropped here.
	for h := range dev.bindGroups {
		delete(dev.bindGroups, h)
	}
	for h, l := range dev.bindGroupLayouts {
		l.Destroy()
		delete(dev.bindGroupLayouts, h)
	}
	for h, m := range dev.shaders {
		m.Destroy()
		delete(dev.shaders, h)
	}
	for h, s := range dev.samplers {
		s.Destroy()
		delete(dev.samplers, h)
	}
	for h, v := range dev.views {
		v.view.Destroy()
		delete(dev.views, h)
	}
	for h, t := range dev.textures {
		destroyTexture(t)
		delete(dev.textures, h)
	}
	for h, buf := range dev.buffers {
		buf.buf.Destroy()
		if buf.mem != nil {
			buf.mem.Free()
		}
		delete(dev.buffers, h)
	}
	for h, e := range dev.encoders {
		e.cb.Free()
		if e.oneOff != nil {
			e.oneOff.Destroy()
		}
		delete(dev.encoders, h)
	}
	for h, cb := range dev.commandBuffers {
		cb.cb.Free()
		if cb.oneOff != nil {
			cb.oneOff.Destroy()
		}
		delete(dev.commandBuffers, h)
	}

	dev.dev.Destroy()
	Logger().Debug("device drained")
}
