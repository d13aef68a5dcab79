package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"lumen/src/render/driver"
)

func (d *device) NewDescriptorSetLayout(bindings []driver.LayoutBinding) (driver.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  toVkDescriptorType(b.Type),
			DescriptorCount: 1,
			StageFlags:      toVkShaderStages(b.Visibility),
		}
	}
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}
	var layout vk.DescriptorSetLayout
	if err := NewError(vk.CreateDescriptorSetLayout(d.dev, &createInfo, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}
	return &descriptorSetLayout{dev: d.dev, layout: layout}, nil
}

func (d *device) NewPipelineLayout(layouts []driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vkLayouts[i] = l.(*descriptorSetLayout).layout
	}
	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(vkLayouts)),
		PSetLayouts:    vkLayouts,
	}
	var layout vk.PipelineLayout
	if err := NewError(vk.CreatePipelineLayout(d.dev, &createInfo, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	return &pipelineLayout{dev: d.dev, layout: layout}, nil
}

func (d *device) AllocateDescriptorSet(layout driver.DescriptorSetLayout) (driver.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.(*descriptorSetLayout).layout},
	}
	var set vk.DescriptorSet
	if err := NewError(vk.AllocateDescriptorSets(d.dev, &allocInfo, &set)); err != nil {
		return nil, errors.Wrap(err, "allocate descriptor set")
	}
	return descriptorSet{set: set}, nil
}

func (d *device) UpdateDescriptorSet(set driver.DescriptorSet, writes []driver.DescriptorWrite) {
	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		vkWrite := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set.(descriptorSet).set,
			DstBinding:      w.Binding,
			DescriptorType:  toVkDescriptorType(w.Type),
			DescriptorCount: 1,
		}
		switch w.Type {
		case driver.BindingUniformBuffer, driver.BindingStorageBuffer:
			vkWrite.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: w.Buffer.(*buffer).buf,
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(w.Range),
			}}
		default:
			info := vk.DescriptorImageInfo{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}
			if w.View != nil {
				info.ImageView = w.View.(*imageView).view
			}
			if w.Sampler != nil {
				info.Sampler = w.Sampler.(*samplerObj).sampler
			}
			vkWrite.PImageInfo = []vk.DescriptorImageInfo{info}
		}
		vkWrites = append(vkWrites, vkWrite)
	}
	vk.UpdateDescriptorSets(d.dev, uint32(len(vkWrites)), vkWrites, 0, nil)
}

type descriptorSetLayout struct {
	dev    vk.Device
	layout vk.DescriptorSetLayout
}

func (l *descriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(l.dev, l.layout, nil)
}

type pipelineLayout struct {
	dev    vk.Device
	layout vk.PipelineLayout
}

func (l *pipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(l.dev, l.layout, nil)
}

type descriptorSet struct {
	set vk.DescriptorSet
}
