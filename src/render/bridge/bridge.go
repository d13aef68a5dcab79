// Package bridge owns the lifecycle of GPU objects behind opaque
// uint64 handles. Callers hold handles, never driver objects; the
// bridge resolves them, enforces destruction order, and keeps the
// acquire/submit/present cycle of each swapchain coherent.
package bridge

import (
	"sync"

	"lumen/src/render/driver"
)

// Bridge is the handle-indirected lifecycle layer over a loaded
// graphics API. All methods are safe for concurrent use; a single
// mutex guards every registry mutation. GPU waits (fences, device
// idle) happen outside that mutex. Operations that race a resize or
// teardown of the swapchain they target fail with ErrSwapchainStale
// rather than touching state mid-replacement.
type Bridge struct {
	mu        sync.Mutex
	api       driver.API
	instances map[Handle]*instanceEntry
}

// New wraps a loaded driver API.
func New(api driver.API) *Bridge {
	return &Bridge{
		api:       api,
		instances: make(map[Handle]*instanceEntry),
	}
}

// DestroyAll tears down every live instance and everything below it.
func (b *Bridge) DestroyAll() {
	b.mu.Lock()
	handles := make([]Handle, 0, len(b.instances))
	for h := range b.instances {
		handles = append(handles, h)
	}
	b.mu.Unlock()

	for _, h := range handles {
		b.DestroyInstance(h)
	}
}

// instance resolves an instance handle. Callers hold b.mu.
func (b *Bridge) instance(h Handle) (*instanceEntry, error) {
	inst, ok := b.instances[h]
	if !ok {
		return nil, invalidHandle("instance", h)
	}
	return inst, nil
}

// device resolves a device handle across all instances; handles are
// globally unique so the scan is unambiguous. Callers hold b.mu.
func (b *Bridge) device(h Handle) (*deviceEntry, error) {
	for _, inst := range b.instances {
		if dev, ok := inst.devices[h]; ok {
			return dev, nil
		}
	}
	return nil, invalidHandle("device", h)
}

// surfaceByHandle resolves a surface handle across all instances.
// Callers hold b.mu.
func (b *Bridge) surfaceByHandle(h Handle) (*surfaceEntry, error) {
	for _, inst := range b.instances {
		if surf, ok := inst.surfaces[h]; ok {
			return surf, nil
		}
	}
	return nil, invalidHandle("surface", h)
}
