package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

type adapter struct {
	gpu vk.PhysicalDevice
}

func (a *adapter) Name() string {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(a.gpu, &props)
	props.Deref()
	return vk.ToString(props.DeviceName[:])
}

func (a *adapter) QueueFamilies() []driver.QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(a.gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(a.gpu, &count, props)

	families := make([]driver.QueueFamily, len(props))
	for i, p := range props {
		p.Deref()
		families[i] = driver.QueueFamily{
			Index:    uint32(i),
			Graphics: p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		}
	}
	return families
}

func (a *adapter) SupportsPresent(family uint32, surf driver.Surface) bool {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(a.gpu, family, surf.(*surface).surf, &supported)
	return ret == vk.Success && supported.B()
}

func (a *adapter) SurfaceCapabilities(surf driver.Surface) (driver.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := NewError(vk.GetPhysicalDeviceSurfaceCapabilities(a.gpu, surf.(*surface).surf, &caps)); err != nil {
		return driver.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return driver.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentWidth:     caps.CurrentExtent.Width,
		CurrentHeight:    caps.CurrentExtent.Height,
		MinWidth:         caps.MinImageExtent.Width,
		MinHeight:        caps.MinImageExtent.Height,
		MaxWidth:         caps.MaxImageExtent.Width,
		MaxHeight:        caps.MaxImageExtent.Height,
		CurrentTransform: driver.TransformFlags(caps.CurrentTransform),
	}, nil
}

func (a *adapter) SurfaceFormats(surf driver.Surface) ([]driver.SurfaceFormat, error) {
	var count uint32
	if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(a.gpu, surf.(*surface).surf, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(a.gpu, surf.(*surface).surf, &count, formats)); err != nil {
		return nil, err
	}
	out := make([]driver.SurfaceFormat, 0, count)
	for _, f := range formats {
		f.Deref()
		out = append(out, driver.SurfaceFormat{
			Format:     toFormat(f.Format),
			ColorSpace: toColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

func (a *adapter) SurfacePresentModes(surf driver.Surface) ([]driver.PresentMode, error) {
	var count uint32
	if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(a.gpu, surf.(*surface).surf, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(a.gpu, surf.(*surface).surf, &count, modes)); err != nil {
		return nil, err
	}
	out := make([]driver.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = toPresentMode(m)
	}
	return out, nil
}

func (a *adapter) MemoryTypes() []driver.MemoryType {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(a.gpu, &props)
	props.Deref()

	types := make([]driver.MemoryType, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		memType := props.MemoryTypes[i]
		memType.Deref()
		types[i] = driver.MemoryType{Properties: toMemoryProperties(memType.PropertyFlags)}
	}
	return types
}
