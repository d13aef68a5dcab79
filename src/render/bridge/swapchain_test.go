package bridge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"lumen/src/render/driver"
)

var errAcquireWindow = fmt.Errorf("window surface unavailable")

func TestSwapchainImageViewFramebufferInvariant(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, _, dev, sc := fullSetup(t, b, win)

	b.mu.Lock()
	entry := mustSwapchain(t, b, dev, sc)
	b.mu.Unlock()

	require.NotEmpty(t, entry.images)
	require.Len(t, entry.viewIDs, len(entry.images))
	require.Len(t, entry.textureIDs, len(entry.images))
	require.Len(t, entry.framebuffers, len(entry.images))
	require.Equal(t, len(entry.images), api.rec.live("framebuffer"))
}

func TestSwapchainImageCountBounds(t *testing.T) {
	for _, tc := range []struct {
		name     string
		min, max uint32
		want     int
	}{
		{"min plus one", 2, 4, 3},
		{"clamped by max", 3, 3, 3},
		{"unbounded max", 2, 0, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, api := newTestBridge()
			api.caps.MinImageCount = tc.min
			api.caps.MaxImageCount = tc.max

			win := &mockWindow{}
			_, _, dev, sc := fullSetup(t, b, win)

			b.mu.Lock()
			entry := mustSwapchain(t, b, dev, sc)
			b.mu.Unlock()
			require.Len(t, entry.images, tc.want)
		})
	}
}

func TestSwapchainExtentSelection(t *testing.T) {
	for _, tc := range []struct {
		name           string
		capsW, capsH   uint32
		reqW, reqH     uint32
		wantW, wantH   uint32
	}{
		{"surface defines extent", 800, 600, 100, 100, 800, 600},
		{"request clamped", driver.ExtentUndefined, driver.ExtentUndefined, 8000, 0, 4096, 1},
		{"request honored", driver.ExtentUndefined, driver.ExtentUndefined, 1024, 768, 1024, 768},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, api := newTestBridge()
			api.caps.CurrentWidth = tc.capsW
			api.caps.CurrentHeight = tc.capsH

			win := &mockWindow{}
			_, surf, dev, _ := fullSetup(t, b, win)

			sc, err := b.CreateSwapchain(dev, surf, tc.reqW, tc.reqH)
			require.NoError(t, err)

			b.mu.Lock()
			entry := mustSwapchain(t, b, dev, sc)
			b.mu.Unlock()
			require.Equal(t, tc.wantW, entry.width)
			require.Equal(t, tc.wantH, entry.height)
		})
	}
}

func TestSurfaceFormatPreference(t *testing.T) {
	for _, tc := range []struct {
		name    string
		formats []driver.SurfaceFormat
		want    driver.Format
	}{
		{
			"prefers BGRA8 sRGB",
			[]driver.SurfaceFormat{
				{Format: driver.FormatRGBA16Float, ColorSpace: driver.ColorSpaceOther},
				{Format: driver.FormatBGRA8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
			},
			driver.FormatBGRA8Unorm,
		},
		{
			"falls back to first",
			[]driver.SurfaceFormat{
				{Format: driver.FormatRGBA8Unorm, ColorSpace: driver.ColorSpaceOther},
				{Format: driver.FormatRGBA16Float, ColorSpace: driver.ColorSpaceSRGBNonlinear},
			},
			driver.FormatRGBA8Unorm,
		},
		{
			"empty list defaults to BGRA8",
			nil,
			driver.FormatBGRA8Unorm,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, api := newTestBridge()
			api.formats = tc.formats

			win := &mockWindow{}
			_, _, dev, sc := fullSetup(t, b, win)

			b.mu.Lock()
			entry := mustSwapchain(t, b, dev, sc)
			b.mu.Unlock()
			require.Equal(t, tc.want, entry.format.Format)
		})
	}
}

func TestFrameCycleOrdering(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, _, dev, sc := fullSetup(t, b, win)

	vert, err := b.CreateShaderModule(dev, make([]byte, 8))
	require.NoError(t, err)
	frag, err := b.CreateShaderModule(dev, make([]byte, 8))
	require.NoError(t, err)
	pl, err := b.CreatePipelineLayout(dev, nil)
	require.NoError(t, err)
	pipe, err := b.CreateRenderPipeline(dev, RenderPipelineDescriptor{
		VertexShader: vert, FragmentShader: frag, Layout: pl, Swapchain: sc,
	})
	require.NoError(t, err)

	// Three frames back to back. Each waits the previous frame's
	// fence; the mock flags a wait on a fence nothing signaled.
	for i := 0; i < 3; i++ {
		frame, err := b.AcquireFrame(dev, sc)
		require.NoError(t, err)

		enc, err := b.CreateCommandEncoder(dev)
		require.NoError(t, err)
		require.NoError(t, b.BeginRenderPass(dev, enc, RenderPassDescriptor{
			Swapchain:  sc,
			ImageIndex: frame.ImageIndex,
			Pipeline:   pipe,
			ClearColor: [4]float32{0, 0, 0, 1},
		}))
		require.NoError(t, b.Draw(dev, enc, 3, 1, 0, 0))
		require.NoError(t, b.EndRenderPass(dev, enc))

		cb, err := b.Finish(dev, enc)
		require.NoError(t, err)
		require.NoError(t, b.SubmitCommandBuffer(dev, cb))
		require.NoError(t, b.PresentFrame(dev, cb))
		b.DestroyCommandBuffer(dev, cb)
	}

	require.Empty(t, api.rec.violations)

	// acquire N precedes submit N precedes present N.
	var order []string
	for _, e := range api.rec.events {
		switch e {
		case "acquire 0", "acquire 1", "acquire 2", "submit",
			"present 0", "present 1", "present 2":
			order = append(order, e)
		}
	}
	require.Equal(t, []string{
		"acquire 0", "submit", "present 0",
		"acquire 1", "submit", "present 1",
		"acquire 2", "submit", "present 2",
	}, order)
}

func TestStaleSwapchainRecovery(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, surf, dev, sc := fullSetup(t, b, win)

	api.staleAcquire = true
	_, err := b.AcquireFrame(dev, sc)
	require.ErrorIs(t, err, ErrSwapchainStale)

	// Recover: rebuild under the same handle, then a clean frame.
	require.NoError(t, b.ResizeSwapchain(dev, surf, sc, 320, 240))

	frame, err := b.AcquireFrame(dev, sc)
	require.NoError(t, err)
	require.Equal(t, 0, frame.ImageIndex)
	require.Zero(t, api.rec.doubleFree)
}

func TestStalePresentReportsStale(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, _, dev, sc := fullSetup(t, b, win)

	vert, err := b.CreateShaderModule(dev, make([]byte, 8))
	require.NoError(t, err)
	frag, err := b.CreateShaderModule(dev, make([]byte, 8))
	require.NoError(t, err)
	pl, err := b.CreatePipelineLayout(dev, nil)
	require.NoError(t, err)
	pipe, err := b.CreateRenderPipeline(dev, RenderPipelineDescriptor{
		VertexShader: vert, FragmentShader: frag, Layout: pl, Swapchain: sc,
	})
	require.NoError(t, err)

	frame, err := b.AcquireFrame(dev, sc)
	require.NoError(t, err)
	enc, err := b.CreateCommandEncoder(dev)
	require.NoError(t, err)
	require.NoError(t, b.BeginRenderPass(dev, enc, RenderPassDescriptor{
		Swapchain: sc, ImageIndex: frame.ImageIndex, Pipeline: pipe,
	}))
	require.NoError(t, b.EndRenderPass(dev, enc))
	cb, err := b.Finish(dev, enc)
	require.NoError(t, err)
	require.NoError(t, b.SubmitCommandBuffer(dev, cb))

	api.stalePresent = true
	require.ErrorIs(t, b.PresentFrame(dev, cb), ErrSwapchainStale)
}

func TestResizeKeepsHandleAndRebuilds(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, surf, dev, sc := fullSetup(t, b, win)
	api.caps.CurrentWidth = driver.ExtentUndefined
	api.caps.CurrentHeight = driver.ExtentUndefined

	require.NoError(t, b.ResizeSwapchain(dev, surf, sc, 1920, 1080))

	b.mu.Lock()
	entry := mustSwapchain(t, b, dev, sc)
	b.mu.Unlock()
	require.Equal(t, uint32(1920), entry.width)
	require.Equal(t, uint32(1080), entry.height)
	require.Equal(t, 1, api.rec.live("swapchain"), "old chain must be gone")
	require.Zero(t, api.rec.doubleFree)
	require.Empty(t, api.rec.violations)
}

func TestDestroySurfaceCascadesSwapchains(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	inst, surf, _, _ := fullSetup(t, b, win)

	b.DestroySurface(inst, surf)

	require.Zero(t, api.rec.live("swapchain"))
	require.Zero(t, api.rec.live("surface"))
	require.Equal(t, 1, win.releases)
	require.Equal(t, 1, api.rec.live("device"), "device outlives its surface")
}

func TestConcurrentAcquireDuringResize(t *testing.T) {
	b, api := newTestBridge()
	win := &mockWindow{}
	_, surf, dev, sc := fullSetup(t, b, win)

	done := make(chan struct{})
	var wg sync.WaitGroup
	var acquireErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// Acquires racing a rebuild must fail with
			// ErrSwapchainStale, never index into dead state.
			if _, err := b.AcquireFrame(dev, sc); err != nil && err != ErrSwapchainStale {
				acquireErr = err
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		w, h := uint32(640+i), uint32(480+i)
		require.NoError(t, b.ResizeSwapchain(dev, surf, sc, w, h))
	}
	close(done)
	wg.Wait()
	require.NoError(t, acquireErr)

	require.NoError(t, b.ResizeSwapchain(dev, surf, sc, 800, 600))
	frame, err := b.AcquireFrame(dev, sc)
	require.NoError(t, err)
	require.NotEqual(t, NilHandle, frame.Texture)
	require.Equal(t, 1, api.rec.live("swapchain"))
	require.Zero(t, api.rec.doubleFree)
}

// mustSwapchain resolves a swapchain entry for white-box assertions.
// Callers hold b.mu.
func mustSwapchain(t *testing.T, b *Bridge, dev, sc Handle) *swapchainEntry {
	t.Helper()
	entry, err := b.device(dev)
	require.NoError(t, err)
	s, ok := entry.swapchains[sc]
	require.True(t, ok, "swapchain %d not registered", sc)
	return s
}
