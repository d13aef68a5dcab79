// Package vulkan implements the render driver over the Vulkan C
// bindings. Everything here is a thin translation layer; ownership
// and lifecycle rules live above it.
package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

// API is the loaded Vulkan loader. Load it once per process.
type API struct{}

// Load initializes the Vulkan loader. procAddr is the
// vkGetInstanceProcAddr pointer from the windowing layer (e.g. GLFW);
// pass nil to let the loader resolve it from the system library.
func Load(procAddr unsafe.Pointer) (*API, error) {
	if procAddr != nil {
		vk.SetGetInstanceProcAddr(procAddr)
	} else if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, errors.Wrap(err, "resolve vkGetInstanceProcAddr")
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "initialize vulkan")
	}
	return &API{}, nil
}

func (a *API) InstanceLayers() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func (a *API) CreateInstance(appName string, layers []string) (driver.Instance, error) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   cstr(appName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        cstr("lumen"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	extensions := instanceExtensions()
	enabledLayers := make([]string, len(layers))
	for i, l := range layers {
		enabledLayers[i] = cstr(l)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(enabledLayers)),
		PpEnabledLayerNames:     enabledLayers,
	}

	var inst vk.Instance
	if err := NewError(vk.CreateInstance(&createInfo, nil, &inst)); err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	vk.InitInstance(inst)
	return &instance{inst: inst}, nil
}

func instanceExtensions() []string {
	var count uint32
	if IsError(vk.EnumerateInstanceExtensionProperties("", &count, nil)) {
		return nil
	}
	props := make([]vk.ExtensionProperties, count)
	if IsError(vk.EnumerateInstanceExtensionProperties("", &count, props)) {
		return nil
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, cstr(vk.ToString(p.ExtensionName[:])))
	}
	return names
}
