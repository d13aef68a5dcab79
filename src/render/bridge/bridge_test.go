package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lumen/src/render/driver"
)

// newTestBridge seeds a bridge over a fresh mock driver.
func newTestBridge() (*Bridge, *mockAPI) {
	api := newMockAPI()
	return New(api), api
}

// fullSetup builds instance, surface, device and swapchain and returns
// the four handles.
func fullSetup(t *testing.T, b *Bridge, win *mockWindow) (inst, surf, dev, sc Handle) {
	t.Helper()
	var err error
	inst, err = b.CreateInstance("test", true)
	require.NoError(t, err)
	surf, err = b.CreateSurface(inst, win)
	require.NoError(t, err)
	dev, err = b.CreateDevice(inst)
	require.NoError(t, err)
	sc, err = b.CreateSwapchain(dev, surf, 640, 480)
	require.NoError(t, err)
	return inst, surf, dev, sc
}

func TestHandleUniqueness(t *testing.T) {
	b, _ := newTestBridge()
	win := &mockWindow{}
	inst, surf, dev, sc := fullSetup(t, b, win)

	buf, err := b.CreateBuffer(dev, 256, driver.BufferUsageVertex,
		driver.MemoryHostVisible)
	require.NoError(t, err)
	tex, err := b.CreateTexture(dev, driver.FormatRGBA8Unorm, 16, 16,
		driver.TextureUsageSampled)
	require.NoError(t, err)
	smp, err := b.CreateSampler(dev, driver.FilterLinear, driver.FilterLinear)
	require.NoError(t, err)

	seen := map[Handle]bool{}
	for _, h := range []Handle{inst, surf, dev, sc, buf, tex, smp} {
		require.NotEqual(t, NilHandle, h)
		require.False(t, seen[h], "handle %d issued twice", h)
		seen[h] = true
	}
}

func TestDestroyCascadeReleasesEverything(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	inst, _, dev, sc := fullSetup(t, b, win)

	_, err := b.CreateBuffer(dev, 64, driver.BufferUsageUniform,
		driver.MemoryHostVisible)
	require.NoError(t, err)
	_, err = b.CreateTexture(dev, driver.FormatRGBA8Unorm, 8, 8,
		driver.TextureUsageColorAttachment)
	require.NoError(t, err)
	_, err = b.CreateSampler(dev, driver.FilterNearest, driver.FilterLinear)
	require.NoError(t, err)
	_, err = b.CreateShaderModule(dev, make([]byte, 8))
	require.NoError(t, err)
	frame, err := b.AcquireFrame(dev, sc)
	require.NoError(t, err)
	require.NotEqual(t, NilHandle, frame.Texture)

	b.DestroyInstance(inst)

	require.Zero(t, api.rec.totalLive(), "driver objects leaked: created=%v destroyed=%v",
		api.rec.created, api.rec.destroyed)
	require.Zero(t, api.rec.doubleFree)
	require.Empty(t, api.rec.violations)
	require.Equal(t, 1, win.releases)
}

func TestDestroyIsIdempotent(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	inst, surf, dev, sc := fullSetup(t, b, win)

	b.DestroySwapchain(dev, sc)
	b.DestroySwapchain(dev, sc)
	b.DestroySurface(inst, surf)
	b.DestroySurface(inst, surf)
	b.DestroyDevice(inst, dev)
	b.DestroyDevice(inst, dev)
	b.DestroyInstance(inst)
	b.DestroyInstance(inst)

	require.Zero(t, api.rec.doubleFree)
	require.Zero(t, api.rec.totalLive())
	require.Equal(t, 1, win.releases)
}

func TestDestroyAll(t *testing.T) {
	b, api := newTestBridge()
	for i := 0; i < 3; i++ {
		_, err := b.CreateInstance("multi", false)
		require.NoError(t, err)
	}
	b.DestroyAll()
	require.Zero(t, api.rec.totalLive())
}

func TestOperationsOnUnknownHandlesFail(t *testing.T) {
	b, _ := newTestBridge()
	inst, err := b.CreateInstance("test", false)
	require.NoError(t, err)

	const bogus Handle = 999999

	_, err = b.CreateDevice(bogus)
	var ih *InvalidHandleError
	require.ErrorAs(t, err, &ih)
	require.Equal(t, "instance", ih.Kind)
	require.Equal(t, bogus, ih.Handle)

	_, err = b.CreateSwapchain(bogus, bogus, 1, 1)
	require.ErrorAs(t, err, &ih)

	_, err = b.CreateBuffer(bogus, 16, driver.BufferUsageVertex,
		driver.MemoryHostVisible)
	require.ErrorAs(t, err, &ih)
	require.Equal(t, "device", ih.Kind)

	// Destruction of unknown handles stays silent.
	b.DestroyDevice(inst, bogus)
	b.DestroySurface(inst, bogus)
	b.DestroyInstance(bogus)
}
