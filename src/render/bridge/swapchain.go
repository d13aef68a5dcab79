package bridge

import (
	"github.com/pkg/errors"

	"lumen/src/render/driver"
)

// CreateSwapchain builds a presentable image chain for the surface,
// together with everything a frame needs: per-image texture wrappers
// and views, a present-source render pass, per-image framebuffers, and
// the frame synchronization objects.
func (b *Bridge) CreateSwapchain(device, surface Handle, width, height uint32) (Handle, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	surf, err := b.surfaceByHandle(surface)
	if err != nil {
		b.mu.Unlock()
		return NilHandle, err
	}
	b.mu.Unlock()

	sc, err := b.buildSwapchain(dev, surf, width, height)
	if err != nil {
		return NilHandle, err
	}
	sc.surface = surface

	h := nextHandle()
	b.mu.Lock()
	dev.swapchains[h] = sc
	surf.swapchains[h] = device
	b.registerSwapchainResources(dev, sc)
	b.mu.Unlock()

	Logger().Info("swapchain created", "handle", h, "device", device,
		"width", sc.width, "height", sc.height, "images", len(sc.images))
	return h, nil
}

// buildSwapchain resolves the surface parameters and creates the chain
// and its dependents. The returned entry has texture/view handles
// issued but not yet registered.
func (b *Bridge) buildSwapchain(dev *deviceEntry, surf *surfaceEntry, width, height uint32) (*swapchainEntry, error) {
	caps, err := dev.adapter.SurfaceCapabilities(surf.surf)
	if err != nil {
		return nil, allocErr("query surface capabilities", err)
	}
	formats, err := dev.adapter.SurfaceFormats(surf.surf)
	if err != nil {
		return nil, allocErr("query surface formats", err)
	}
	modes, err := dev.adapter.SurfacePresentModes(surf.surf)
	if err != nil {
		return nil, allocErr("query present modes", err)
	}

	format := chooseSurfaceFormat(formats)
	w, h := chooseExtent(caps, width, height)
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	families := []uint32{dev.graphicsFamily}
	if dev.presentFamily != dev.graphicsFamily {
		families = append(families, dev.presentFamily)
	}

	cfg := driver.SwapchainConfig{
		MinImageCount: imageCount,
		Format:        format,
		Width:         w,
		Height:        h,
		Transform:     caps.CurrentTransform,
		PresentMode:   choosePresentMode(modes),
		QueueFamilies: families,
	}
	chain, err := dev.dev.NewSwapchain(surf.surf, cfg)
	if err != nil {
		return nil, allocErr("create swapchain", err)
	}

	sc := &swapchainEntry{
		sc:     chain,
		format: format,
		width:  w,
		height: h,
	}
	if err := b.buildSwapchainDependents(dev, sc); err != nil {
		teardownSwapchain(sc)
		return nil, err
	}
	return sc, nil
}

func (b *Bridge) buildSwapchainDependents(dev *deviceEntry, sc *swapchainEntry) error {
	images, err := sc.sc.Images()
	if err != nil {
		return allocErr("get swapchain images", err)
	}
	sc.images = images

	pass, err := dev.dev.NewRenderPass(sc.format.Format, true)
	if err != nil {
		return allocErr("create render pass", err)
	}
	sc.pass = pass

	for _, img := range images {
		view, err := dev.dev.NewImageView(img, sc.format.Format)
		if err != nil {
			return allocErr("create image view", err)
		}
		fb, err := dev.dev.NewFramebuffer(pass, view, sc.width, sc.height)
		if err != nil {
			view.Destroy()
			return allocErr("create framebuffer", err)
		}
		sc.textureIDs = append(sc.textureIDs, nextHandle())
		sc.viewIDs = append(sc.viewIDs, nextHandle())
		sc.scratchViews = append(sc.scratchViews, view)
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	if sc.imageAvailable, err = dev.dev.NewSemaphore(); err != nil {
		return allocErr("create semaphore", err)
	}
	if sc.renderFinished, err = dev.dev.NewSemaphore(); err != nil {
		return allocErr("create semaphore", err)
	}
	// Signaled so the first frame's wait passes immediately.
	if sc.inFlight, err = dev.dev.NewFence(true); err != nil {
		return allocErr("create fence", err)
	}
	return nil
}

// registerSwapchainResources publishes the per-image texture wrappers
// and views under their issued handles. Callers hold b.mu.
func (b *Bridge) registerSwapchainResources(dev *deviceEntry, sc *swapchainEntry) {
	for i, img := range sc.images {
		dev.textures[sc.textureIDs[i]] = &textureEntry{
			img:    img,
			format: sc.format.Format,
			width:  sc.width,
			height: sc.height,
		}
		dev.views[sc.viewIDs[i]] = &viewEntry{
			view:    sc.scratchViews[i],
			texture: sc.textureIDs[i],
		}
	}
}

// detachSwapchainResources removes the swapchain's texture and view
// registry entries, leaving the driver objects for teardownSwapchain.
// Callers hold b.mu.
func (b *Bridge) detachSwapchainResources(dev *deviceEntry, sc *swapchainEntry) {
	sc.scratchViews = sc.scratchViews[:0]
	for i := range sc.viewIDs {
		if v, ok := dev.views[sc.viewIDs[i]]; ok {
			sc.scratchViews = append(sc.scratchViews, v.view)
			delete(dev.views, sc.viewIDs[i])
		}
		delete(dev.textures, sc.textureIDs[i])
	}
}

// detachForTeardown moves the entry's driver objects into a standalone
// entry for destruction, leaving the registered entry empty and
// flagged as rebuilding. Field mutation happens here, under the lock;
// teardownSwapchain then only ever touches state no other goroutine
// can reach. Callers hold b.mu.
func (sc *swapchainEntry) detachForTeardown() *swapchainEntry {
	old := *sc
	*sc = swapchainEntry{surface: old.surface, rebuilding: true}
	return &old
}

// teardownSwapchain destroys the chain's driver objects. Order
// matters: synchronization first, then framebuffers, the pass, the
// views, and the chain itself. Every field is nil-guarded so partial
// builds tear down cleanly.
func teardownSwapchain(sc *swapchainEntry) {
	if sc.inFlight != nil {
		sc.inFlight.Destroy()
		sc.inFlight = nil
	}
	if sc.renderFinished != nil {
		sc.renderFinished.Destroy()
		sc.renderFinished = nil
	}
	if sc.imageAvailable != nil {
		sc.imageAvailable.Destroy()
		sc.imageAvailable = nil
	}
	for _, fb := range sc.framebuffers {
		fb.Destroy()
	}
	sc.framebuffers = nil
	for _, v := range sc.scratchViews {
		v.Destroy()
	}
	sc.scratchViews = nil
	// Swapchain images belong to the presentation engine.
	sc.images = nil
	sc.textureIDs = nil
	sc.viewIDs = nil
	if sc.pass != nil {
		sc.pass.Destroy()
		sc.pass = nil
	}
	if sc.sc != nil {
		sc.sc.Destroy()
		sc.sc = nil
	}
}

// ResizeSwapchain rebuilds the chain for a new extent. The external
// handle survives; only the driver objects underneath are replaced.
func (b *Bridge) ResizeSwapchain(device, surface, swapchain Handle, width, height uint32) error {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	surf, err := b.surfaceByHandle(surface)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	sc, ok := dev.swapchains[swapchain]
	if !ok {
		b.mu.Unlock()
		return invalidHandle("swapchain", swapchain)
	}
	if sc.rebuilding {
		b.mu.Unlock()
		return ErrSwapchainStale
	}
	b.detachSwapchainResources(dev, sc)
	old := sc.detachForTeardown()
	b.mu.Unlock()

	if err := dev.dev.WaitIdle(); err != nil {
		Logger().Warn("device idle wait failed before swapchain resize", "error", err)
	}
	teardownSwapchain(old)

	rebuilt, err := b.buildSwapchain(dev, surf, width, height)
	if err != nil {
		// The old chain is gone; drop the handle rather than leave it
		// naming a dead object.
		b.mu.Lock()
		delete(dev.swapchains, swapchain)
		delete(surf.swapchains, swapchain)
		b.mu.Unlock()
		return err
	}
	rebuilt.surface = sc.surface

	b.mu.Lock()
	*sc = *rebuilt
	b.registerSwapchainResources(dev, sc)
	b.mu.Unlock()

	Logger().Info("swapchain resized", "handle", swapchain,
		"width", sc.width, "height", sc.height)
	return nil
}

// DestroySwapchain waits for the device to go idle and tears the chain
// down. Unknown handles are a no-op.
func (b *Bridge) DestroySwapchain(device, swapchain Handle) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return
	}
	sc, ok := dev.swapchains[swapchain]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(dev.swapchains, swapchain)
	b.detachSwapchainResources(dev, sc)
	old := sc.detachForTeardown()
	for _, inst := range b.instances {
		for _, surf := range inst.surfaces {
			delete(surf.swapchains, swapchain)
		}
	}
	b.mu.Unlock()

	if err := dev.dev.WaitIdle(); err != nil {
		Logger().Warn("device idle wait failed during swapchain teardown", "error", err)
	}
	teardownSwapchain(old)
	Logger().Info("swapchain destroyed", "handle", swapchain)
}

// AcquireFrame waits for the previous frame on this chain to retire,
// then acquires the next image. A stale surface surfaces as
// ErrSwapchainStale; resize and retry.
func (b *Bridge) AcquireFrame(device, swapchain Handle) (Frame, error) {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return Frame{}, err
	}
	sc, ok := dev.swapchains[swapchain]
	if !ok {
		b.mu.Unlock()
		return Frame{}, invalidHandle("swapchain", swapchain)
	}
	if sc.rebuilding {
		b.mu.Unlock()
		return Frame{}, ErrSwapchainStale
	}
	fence := sc.inFlight
	sem := sc.imageAvailable
	chain := sc.sc
	b.mu.Unlock()

	if err := dev.dev.WaitForFence(fence); err != nil {
		return Frame{}, errors.Wrap(err, "wait for in-flight fence")
	}
	if err := dev.dev.ResetFence(fence); err != nil {
		return Frame{}, errors.Wrap(err, "reset in-flight fence")
	}

	idx, outdated, err := chain.Acquire(sem)
	if err != nil {
		return Frame{}, errors.Wrap(err, "acquire swapchain image")
	}
	if outdated {
		return Frame{}, ErrSwapchainStale
	}

	b.mu.Lock()
	// A resize may have swapped the chain out while the acquire ran;
	// the image index belongs to the old chain then.
	if sc.rebuilding || sc.sc != chain || idx >= len(sc.textureIDs) {
		b.mu.Unlock()
		return Frame{}, ErrSwapchainStale
	}
	frame := Frame{
		ImageIndex: idx,
		Texture:    sc.textureIDs[idx],
		View:       sc.viewIDs[idx],
	}
	b.mu.Unlock()
	return frame, nil
}

// SubmitCommandBuffer executes a finished command buffer on the
// device's graphics queue. Buffers that render to a swapchain wait on
// its image-available semaphore and signal render-finished plus the
// in-flight fence; off-screen buffers submit bare.
func (b *Bridge) SubmitCommandBuffer(device, commandBuffer Handle) error {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	cb, ok := dev.commandBuffers[commandBuffer]
	if !ok {
		b.mu.Unlock()
		return invalidHandle("command buffer", commandBuffer)
	}
	var wait, signal driver.Semaphore
	var fence driver.Fence
	if sc, ok := dev.swapchains[cb.swapchain]; ok && cb.swapchain != NilHandle {
		if sc.rebuilding {
			b.mu.Unlock()
			return ErrSwapchainStale
		}
		wait = sc.imageAvailable
		signal = sc.renderFinished
		fence = sc.inFlight
	}
	b.mu.Unlock()

	if err := dev.dev.Submit(cb.cb, wait, signal, fence); err != nil {
		return errors.Wrap(err, "submit command buffer")
	}
	return nil
}

// PresentFrame queues the image recorded by the command buffer for
// presentation, after rendering finishes. A stale surface surfaces as
// ErrSwapchainStale.
func (b *Bridge) PresentFrame(device, commandBuffer Handle) error {
	b.mu.Lock()
	dev, err := b.device(device)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	cb, ok := dev.commandBuffers[commandBuffer]
	if !ok {
		b.mu.Unlock()
		return invalidHandle("command buffer", commandBuffer)
	}
	sc, ok := dev.swapchains[cb.swapchain]
	if !ok {
		b.mu.Unlock()
		return invalidHandle("swapchain", cb.swapchain)
	}
	if sc.rebuilding {
		b.mu.Unlock()
		return ErrSwapchainStale
	}
	chain := sc.sc
	wait := sc.renderFinished
	idx := cb.imageIndex
	b.mu.Unlock()

	outdated, err := dev.dev.Present(chain, idx, wait)
	if err != nil {
		return errors.Wrap(err, "present frame")
	}
	if outdated {
		return ErrSwapchainStale
	}
	return nil
}

func chooseSurfaceFormat(formats []driver.SurfaceFormat) driver.SurfaceFormat {
	if len(formats) == 0 {
		return driver.SurfaceFormat{
			Format:     driver.FormatBGRA8Unorm,
			ColorSpace: driver.ColorSpaceSRGBNonlinear,
		}
	}
	for _, f := range formats {
		if f.Format == driver.FormatBGRA8Unorm && f.ColorSpace == driver.ColorSpaceSRGBNonlinear {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode always lands on FIFO, the one mode every driver
// must offer. The enumeration verifies that the surface reports it;
// an empty list falls through to FIFO anyway.
func choosePresentMode(modes []driver.PresentMode) driver.PresentMode {
	for _, m := range modes {
		if m == driver.PresentModeFIFO {
			return m
		}
	}
	return driver.PresentModeFIFO
}

func chooseExtent(caps driver.SurfaceCapabilities, width, height uint32) (uint32, uint32) {
	if caps.CurrentWidth != driver.ExtentUndefined {
		return caps.CurrentWidth, caps.CurrentHeight
	}
	return clamp(width, caps.MinWidth, caps.MaxWidth),
		clamp(height, caps.MinHeight, caps.MaxHeight)
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
