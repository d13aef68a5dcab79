package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

type instance struct {
	inst vk.Instance
}

func (i *instance) Adapters() ([]driver.Adapter, error) {
	var count uint32
	if err := NewError(vk.EnumeratePhysicalDevices(i.inst, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "enumerate adapters")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := NewError(vk.EnumeratePhysicalDevices(i.inst, &count, gpus)); err != nil {
		return nil, errors.Wrap(err, "enumerate adapters")
	}
	adapters := make([]driver.Adapter, len(gpus))
	for n, gpu := range gpus {
		adapters[n] = &adapter{gpu: gpu}
	}
	return adapters, nil
}

func (i *instance) CreateSurface(win driver.PlatformWindow) (driver.Surface, error) {
	ptr, err := win.CreateSurface(i.inst)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return &surface{inst: i.inst, surf: vk.SurfaceFromPointer(ptr)}, nil
}

func (i *instance) CreateDevice(a driver.Adapter, cfg driver.DeviceConfig) (driver.Device, error) {
	gpu := a.(*adapter).gpu

	families := []uint32{cfg.GraphicsFamily}
	if cfg.PresentFamily != cfg.GraphicsFamily {
		families = append(families, cfg.PresentFamily)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for n, fam := range families {
		queueInfos[n] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: fam,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions := []string{cstr(vk.KhrSwapchainExtensionName)}
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var dev vk.Device
	if err := NewError(vk.CreateDevice(gpu, &createInfo, nil, &dev)); err != nil {
		return nil, errors.Wrap(err, "create device")
	}

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(dev, cfg.GraphicsFamily, 0, &graphicsQueue)
	vk.GetDeviceQueue(dev, cfg.PresentFamily, 0, &presentQueue)

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: cfg.GraphicsFamily,
	}
	var cmdPool vk.CommandPool
	if err := NewError(vk.CreateCommandPool(dev, &poolInfo, nil, &cmdPool)); err != nil {
		vk.DestroyDevice(dev, nil)
		return nil, errors.Wrap(err, "create command pool")
	}

	descPool, err := createDescriptorPool(dev, cfg.DescriptorPool)
	if err != nil {
		vk.DestroyCommandPool(dev, cmdPool, nil)
		vk.DestroyDevice(dev, nil)
		return nil, err
	}

	return &device{
		dev:           dev,
		gpu:           gpu,
		graphicsQueue: graphicsQueue,
		presentQueue:  presentQueue,
		cmdPool:       cmdPool,
		descPool:      descPool,
	}, nil
}

func createDescriptorPool(dev vk.Device, sizes driver.DescriptorPoolSizes) (vk.DescriptorPool, error) {
	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: sizes.UniformBuffers},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: sizes.CombinedImageSamplers},
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: sizes.SampledImages},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: sizes.Samplers},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       sizes.MaxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if err := NewError(vk.CreateDescriptorPool(dev, &poolInfo, nil, &pool)); err != nil {
		return pool, errors.Wrap(err, "create descriptor pool")
	}
	return pool, nil
}

func (i *instance) Destroy() {
	vk.DestroyInstance(i.inst, nil)
}

type surface struct {
	inst vk.Instance
	surf vk.Surface
}

func (s *surface) Destroy() {
	vk.DestroySurface(s.inst, s.surf, nil)
}
