package bridge

import (
	"lumen/src/render/driver"
)

// CreateSurface wraps a platform window in a native surface owned by
// the instance. On failure the window reference is released before the
// error propagates.
func (b *Bridge) CreateSurface(instance Handle, win driver.PlatformWindow) (Handle, error) {
	b.mu.Lock()
	inst, err := b.instance(instance)
	b.mu.Unlock()
	if err != nil {
		win.Release()
		return NilHandle, err
	}

	surf, err := inst.inst.CreateSurface(win)
	if err != nil {
		win.Release()
		return NilHandle, allocErr("create surface", err)
	}

	h := nextHandle()
	b.mu.Lock()
	inst.surfaces[h] = &surfaceEntry{
		surf:       surf,
		window:     win,
		swapchains: make(map[Handle]Handle),
	}
	b.mu.Unlock()

	Logger().Info("surface created", "handle", h, "instance", instance)
	return h, nil
}

// DestroySurface destroys every swapchain targeting the surface, then
// the native surface, then releases the window reference. Unknown
// handles are a no-op.
func (b *Bridge) DestroySurface(instance, surface Handle) {
	b.mu.Lock()
	inst, err := b.instance(instance)
	if err != nil {
		b.mu.Unlock()
		return
	}
	surf, ok := inst.surfaces[surface]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(inst.surfaces, surface)

	// Detach owned swapchains together with their owning devices.
	type scOwner struct {
		dev *deviceEntry
		sc  *swapchainEntry
	}
	owned := make([]scOwner, 0, len(surf.swapchains))
	for sch, devh := range surf.swapchains {
		dev, ok := inst.devices[devh]
		if !ok {
			continue
		}
		sc, ok := dev.swapchains[sch]
		if !ok {
			continue
		}
		delete(dev.swapchains, sch)
		b.detachSwapchainResources(dev, sc)
		owned = append(owned, scOwner{dev: dev, sc: sc.detachForTeardown()})
	}
	b.mu.Unlock()

	for _, o := range owned {
		if err := o.dev.dev.WaitIdle(); err != nil {
			Logger().Warn("device idle wait failed during surface teardown", "error", err)
		}
		teardownSwapchain(o.sc)
	}
	surf.surf.Destroy()
	if surf.window != nil {
		surf.window.Release()
	}
	Logger().Info("surface destroyed", "handle", surface)
}
