package bridge

import (
	"fmt"
	"sync"

	"lumen/src/render/driver"
)

// recorder tracks every driver object the mock hands out: creations
// and destructions per kind, double-destroys, ordering events, and
// synchronization violations. Tests assert lifecycle properties
// against it.
type recorder struct {
	mu         sync.Mutex
	created    map[string]int
	destroyed  map[string]int
	doubleFree int
	events     []string
	violations []string
}

func newRecorder() *recorder {
	return &recorder{
		created:   make(map[string]int),
		destroyed: make(map[string]int),
	}
}

func (r *recorder) create(kind string) {
	r.mu.Lock()
	r.created[kind]++
	r.mu.Unlock()
}

func (r *recorder) destroy(kind string, dead *bool) {
	r.mu.Lock()
	if *dead {
		r.doubleFree++
	}
	*dead = true
	r.destroyed[kind]++
	r.mu.Unlock()
}

func (r *recorder) event(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) violate(v string) {
	r.mu.Lock()
	r.violations = append(r.violations, v)
	r.mu.Unlock()
}

func (r *recorder) live(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind] - r.destroyed[kind]
}

func (r *recorder) totalLive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.created {
		n += c - r.destroyed[k]
	}
	return n
}

// mockAPI is a fully in-memory driver. Knobs configure surface
// capabilities and staleness injection before the test drives the
// bridge.
type mockAPI struct {
	rec    *recorder
	layers []string

	adapterCount   int
	queueFamilies  []driver.QueueFamily
	presentSupport map[uint32]bool

	caps    driver.SurfaceCapabilities
	formats []driver.SurfaceFormat
	modes   []driver.PresentMode
	memory  []driver.MemoryType

	// Staleness injection: next acquire/present reports outdated.
	staleAcquire bool
	stalePresent bool

	lastSwapchain *mockSwapchain
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		rec:            newRecorder(),
		layers:         []string{"VK_LAYER_KHRONOS_validation"},
		adapterCount:   1,
		queueFamilies:  []driver.QueueFamily{{Index: 0, Graphics: true}},
		presentSupport: map[uint32]bool{0: true},
		caps: driver.SurfaceCapabilities{
			MinImageCount: 2,
			MaxImageCount: 4,
			CurrentWidth:  640,
			CurrentHeight: 480,
			MinWidth:      1,
			MinHeight:     1,
			MaxWidth:      4096,
			MaxHeight:     4096,
		},
		formats: []driver.SurfaceFormat{
			{Format: driver.FormatRGBA8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
			{Format: driver.FormatBGRA8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
		},
		modes: []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox},
		memory: []driver.MemoryType{
			{Properties: driver.MemoryDeviceLocal},
			{Properties: driver.MemoryHostVisible | driver.MemoryHostCoherent},
		},
	}
}

func (m *mockAPI) InstanceLayers() ([]string, error) { return m.layers, nil }

func (m *mockAPI) CreateInstance(appName string, layers []string) (driver.Instance, error) {
	m.rec.create("instance")
	return &mockInstance{api: m}, nil
}

type mockInstance struct {
	api  *mockAPI
	dead bool
}

func (i *mockInstance) Adapters() ([]driver.Adapter, error) {
	adapters := make([]driver.Adapter, i.api.adapterCount)
	for n := range adapters {
		adapters[n] = &mockAdapter{api: i.api}
	}
	return adapters, nil
}

func (i *mockInstance) CreateSurface(win driver.PlatformWindow) (driver.Surface, error) {
	if _, err := win.CreateSurface(i); err != nil {
		return nil, err
	}
	i.api.rec.create("surface")
	return &mockSurface{api: i.api}, nil
}

func (i *mockInstance) CreateDevice(a driver.Adapter, cfg driver.DeviceConfig) (driver.Device, error) {
	i.api.rec.create("device")
	return &mockDevice{api: i.api, maxSets: int(cfg.DescriptorPool.MaxSets)}, nil
}

func (i *mockInstance) Destroy() { i.api.rec.destroy("instance", &i.dead) }

type mockAdapter struct {
	api *mockAPI
}

func (a *mockAdapter) Name() string { return "mock adapter" }

func (a *mockAdapter) QueueFamilies() []driver.QueueFamily { return a.api.queueFamilies }

func (a *mockAdapter) SupportsPresent(family uint32, _ driver.Surface) bool {
	return a.api.presentSupport[family]
}

func (a *mockAdapter) SurfaceCapabilities(driver.Surface) (driver.SurfaceCapabilities, error) {
	return a.api.caps, nil
}

func (a *mockAdapter) SurfaceFormats(driver.Surface) ([]driver.SurfaceFormat, error) {
	return a.api.formats, nil
}

func (a *mockAdapter) SurfacePresentModes(driver.Surface) ([]driver.PresentMode, error) {
	return a.api.modes, nil
}

func (a *mockAdapter) MemoryTypes() []driver.MemoryType { return a.api.memory }

type mockSurface struct {
	api  *mockAPI
	dead bool
}

func (s *mockSurface) Destroy() { s.api.rec.destroy("surface", &s.dead) }

// mockWindow satisfies driver.PlatformWindow and counts releases.
type mockWindow struct {
	releases int
	failure  error
}

func (w *mockWindow) CreateSurface(any) (uintptr, error) {
	if w.failure != nil {
		return 0, w.failure
	}
	return 1, nil
}

func (w *mockWindow) Release() { w.releases++ }

type mockDevice struct {
	api     *mockAPI
	dead    bool
	maxSets int
	sets    int
}

func (d *mockDevice) WaitIdle() error {
	d.api.rec.event("waitIdle")
	return nil
}

func (d *mockDevice) NewSwapchain(_ driver.Surface, cfg driver.SwapchainConfig) (driver.Swapchain, error) {
	d.api.rec.create("swapchain")
	count := int(cfg.MinImageCount)
	sc := &mockSwapchain{api: d.api, imageCount: count, cfg: cfg}
	d.api.lastSwapchain = sc
	return sc, nil
}

func (d *mockDevice) NewRenderPass(driver.Format, bool) (driver.RenderPass, error) {
	d.api.rec.create("renderPass")
	return &mockDestroyer{rec: d.api.rec, kind: "renderPass"}, nil
}

func (d *mockDevice) NewFramebuffer(driver.RenderPass, driver.ImageView, uint32, uint32) (driver.Framebuffer, error) {
	d.api.rec.create("framebuffer")
	return &mockDestroyer{rec: d.api.rec, kind: "framebuffer"}, nil
}

func (d *mockDevice) NewSemaphore() (driver.Semaphore, error) {
	d.api.rec.create("semaphore")
	return &mockDestroyer{rec: d.api.rec, kind: "semaphore"}, nil
}

func (d *mockDevice) NewFence(signaled bool) (driver.Fence, error) {
	d.api.rec.create("fence")
	return &mockFence{rec: d.api.rec, signaled: signaled}, nil
}

func (d *mockDevice) NewBuffer(size uint64, _ driver.BufferUsage) (driver.Buffer, error) {
	d.api.rec.create("buffer")
	return &mockBuffer{rec: d.api.rec, size: size}, nil
}

func (d *mockDevice) NewImage(_ driver.Format, w, h uint32, _ driver.TextureUsage) (driver.Image, error) {
	d.api.rec.create("image")
	return &mockImage{rec: d.api.rec, kind: "image"}, nil
}

func (d *mockDevice) NewImageView(driver.Image, driver.Format) (driver.ImageView, error) {
	d.api.rec.create("imageView")
	return &mockDestroyer{rec: d.api.rec, kind: "imageView"}, nil
}

func (d *mockDevice) NewSampler(driver.Filter, driver.Filter) (driver.Sampler, error) {
	d.api.rec.create("sampler")
	return &mockDestroyer{rec: d.api.rec, kind: "sampler"}, nil
}

func (d *mockDevice) NewShaderModule(code []byte) (driver.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("bad SPIR-V length %d", len(code))
	}
	d.api.rec.create("shaderModule")
	return &mockDestroyer{rec: d.api.rec, kind: "shaderModule"}, nil
}

func (d *mockDevice) NewDescriptorSetLayout([]driver.LayoutBinding) (driver.DescriptorSetLayout, error) {
	d.api.rec.create("descriptorSetLayout")
	return &mockDestroyer{rec: d.api.rec, kind: "descriptorSetLayout"}, nil
}

func (d *mockDevice) NewPipelineLayout([]driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	d.api.rec.create("pipelineLayout")
	return &mockDestroyer{rec: d.api.rec, kind: "pipelineLayout"}, nil
}

func (d *mockDevice) NewGraphicsPipeline(driver.PipelineConfig) (driver.Pipeline, error) {
	d.api.rec.create("pipeline")
	return &mockDestroyer{rec: d.api.rec, kind: "pipeline"}, nil
}

func (d *mockDevice) NewCommandBuffer() (driver.CommandBuffer, error) {
	d.api.rec.create("commandBuffer")
	return &mockCommandBuffer{rec: d.api.rec}, nil
}

func (d *mockDevice) AllocateMemory(size uint64, memoryType uint32) (driver.Memory, error) {
	d.api.rec.create("memory")
	props := d.api.memory[memoryType].Properties
	return &mockMemory{rec: d.api.rec, size: size, hostVisible: props&driver.MemoryHostVisible != 0}, nil
}

func (d *mockDevice) AllocateDescriptorSet(driver.DescriptorSetLayout) (driver.DescriptorSet, error) {
	if d.sets >= d.maxSets {
		return nil, fmt.Errorf("descriptor pool exhausted (%d sets)", d.maxSets)
	}
	d.sets++
	return &struct{}{}, nil
}

func (d *mockDevice) UpdateDescriptorSet(driver.DescriptorSet, []driver.DescriptorWrite) {}

func (d *mockDevice) WaitForFence(f driver.Fence) error {
	mf := f.(*mockFence)
	if !mf.signaled {
		d.api.rec.violate("wait on unsignaled fence")
	}
	d.api.rec.event("waitFence")
	return nil
}

func (d *mockDevice) ResetFence(f driver.Fence) error {
	f.(*mockFence).signaled = false
	return nil
}

func (d *mockDevice) Submit(cb driver.CommandBuffer, wait, signal driver.Semaphore, f driver.Fence) error {
	d.api.rec.event("submit")
	if f != nil {
		f.(*mockFence).signaled = true
	}
	return nil
}

func (d *mockDevice) Present(sc driver.Swapchain, imageIndex int, wait driver.Semaphore) (bool, error) {
	d.api.rec.event(fmt.Sprintf("present %d", imageIndex))
	if d.api.stalePresent {
		d.api.stalePresent = false
		return true, nil
	}
	return false, nil
}

func (d *mockDevice) Destroy() { d.api.rec.destroy("device", &d.dead) }

type mockSwapchain struct {
	api        *mockAPI
	dead       bool
	imageCount int
	cfg        driver.SwapchainConfig
	next       int
}

func (s *mockSwapchain) Images() ([]driver.Image, error) {
	images := make([]driver.Image, s.imageCount)
	for i := range images {
		// Presentation-engine owned; not counted as created.
		images[i] = &mockImage{rec: s.api.rec, kind: "swapchainImage", presentOwned: true}
	}
	return images, nil
}

func (s *mockSwapchain) Acquire(imageAvailable driver.Semaphore) (int, bool, error) {
	if s.api.staleAcquire {
		s.api.staleAcquire = false
		return 0, true, nil
	}
	idx := s.next
	s.next = (s.next + 1) % s.imageCount
	s.api.rec.event(fmt.Sprintf("acquire %d", idx))
	return idx, false, nil
}

func (s *mockSwapchain) Destroy() { s.api.rec.destroy("swapchain", &s.dead) }

// mockDestroyer covers every driver object whose only behavior is
// destruction.
type mockDestroyer struct {
	rec  *recorder
	kind string
	dead bool
}

func (m *mockDestroyer) Destroy() { m.rec.destroy(m.kind, &m.dead) }

type mockFence struct {
	rec      *recorder
	dead     bool
	signaled bool
}

func (f *mockFence) Destroy() { f.rec.destroy("fence", &f.dead) }

type mockBuffer struct {
	rec  *recorder
	dead bool
	size uint64
}

func (b *mockBuffer) Requirements() driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: b.size, Alignment: 16, TypeBits: 0b11}
}

func (b *mockBuffer) BindMemory(driver.Memory) error { return nil }

func (b *mockBuffer) Destroy() { b.rec.destroy("buffer", &b.dead) }

type mockImage struct {
	rec          *recorder
	kind         string
	dead         bool
	presentOwned bool
}

func (i *mockImage) Requirements() driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: 4096, Alignment: 256, TypeBits: 0b01}
}

func (i *mockImage) BindMemory(driver.Memory) error {
	if i.presentOwned {
		return fmt.Errorf("bind on swapchain image")
	}
	return nil
}

func (i *mockImage) Destroy() {
	if i.presentOwned {
		i.rec.violate("destroy of presentation-owned image")
		return
	}
	i.rec.destroy(i.kind, &i.dead)
}

type mockMemory struct {
	rec         *recorder
	dead        bool
	size        uint64
	hostVisible bool
	writes      [][]byte
}

func (m *mockMemory) Write(offset uint64, data []byte) error {
	if !m.hostVisible {
		return fmt.Errorf("memory is not mappable")
	}
	if offset+uint64(len(data)) > m.size {
		return fmt.Errorf("write past end of allocation")
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

func (m *mockMemory) Free() { m.rec.destroy("memory", &m.dead) }

type mockCommandBuffer struct {
	rec      *recorder
	dead     bool
	began    bool
	ended    bool
	passOpen bool
	draws    int
}

func (c *mockCommandBuffer) Begin() error {
	c.began = true
	return nil
}

func (c *mockCommandBuffer) BeginRenderPass(driver.RenderPass, driver.Framebuffer, uint32, uint32, [4]float32) {
	if !c.began || c.ended {
		c.rec.violate("render pass outside recording")
	}
	if c.passOpen {
		c.rec.violate("nested render pass")
	}
	c.passOpen = true
}

func (c *mockCommandBuffer) BindPipeline(driver.Pipeline)                         {}
func (c *mockCommandBuffer) BindVertexBuffer(uint32, driver.Buffer, uint64)       {}
func (c *mockCommandBuffer) BindIndexBuffer(driver.Buffer, uint64, driver.IndexFormat) {}
func (c *mockCommandBuffer) BindDescriptorSet(driver.PipelineLayout, uint32, driver.DescriptorSet) {
}

func (c *mockCommandBuffer) Draw(uint32, uint32, uint32, uint32) { c.draws++ }

func (c *mockCommandBuffer) DrawIndexed(uint32, uint32, uint32, int32, uint32) { c.draws++ }

func (c *mockCommandBuffer) EndRenderPass() {
	if !c.passOpen {
		c.rec.violate("end of render pass that is not open")
	}
	c.passOpen = false
}

func (c *mockCommandBuffer) End() error {
	if c.passOpen {
		c.rec.violate("recording ended with render pass open")
	}
	c.ended = true
	return nil
}

func (c *mockCommandBuffer) Free() { c.rec.destroy("commandBuffer", &c.dead) }
