package bridge

import (
	"github.com/pkg/errors"
)

// CreateInstance creates the top-level API context and returns its
// handle. When enableValidation is set and the validation layer is
// present it is enabled; an absent layer downgrades silently.
func (b *Bridge) CreateInstance(appName string, enableValidation bool) (Handle, error) {
	var layers []string
	if enableValidation {
		available, err := b.api.InstanceLayers()
		if err != nil {
			return NilHandle, errors.Wrap(err, "query instance layers")
		}
		found := false
		for _, l := range available {
			if l == validationLayer {
				found = true
				break
			}
		}
		if found {
			layers = []string{validationLayer}
		} else {
			Logger().Warn("validation layer not present, continuing without",
				"layer", validationLayer)
		}
	}

	inst, err := b.api.CreateInstance(appName, layers)
	if err != nil {
		return NilHandle, allocErr("create instance", err)
	}

	h := nextHandle()
	b.mu.Lock()
	b.instances[h] = &instanceEntry{
		inst:     inst,
		surfaces: make(map[Handle]*surfaceEntry),
		devices:  make(map[Handle]*deviceEntry),
	}
	b.mu.Unlock()

	Logger().Info("instance created", "handle", h, "app", appName,
		"validation", len(layers) > 0)
	return h, nil
}

// DestroyInstance tears down every device and surface owned by the
// instance, then the instance itself. Unknown handles are a no-op.
func (b *Bridge) DestroyInstance(h Handle) {
	b.mu.Lock()
	inst, ok := b.instances[h]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.instances, h)
	b.mu.Unlock()

	// Devices first: their teardown covers the swapchains that target
	// sibling surfaces.
	for dh, dev := range inst.devices {
		b.teardownDevice(dev, inst)
		delete(inst.devices, dh)
	}
	for sh, surf := range inst.surfaces {
		surf.surf.Destroy()
		if surf.window != nil {
			surf.window.Release()
		}
		delete(inst.surfaces, sh)
	}
	inst.inst.Destroy()
	Logger().Info("instance destroyed", "handle", h)
}
