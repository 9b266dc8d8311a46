package prismvk

import vk "github.com/vulkan-go/vulkan"

// DescriptorPool owns the layout, pool and single set binding the
// view-projection uniform at set 0 binding 0.
type DescriptorPool struct {
	device vk.Device
	layout vk.DescriptorSetLayout
	pool   vk.DescriptorPool
	set    vk.DescriptorSet
}

// NewUniformDescriptor builds the set-0 layout with one uniform buffer at
// binding 0 and writes the buffer into the set once. The matrix is static
// after startup, so the set is never updated again.
func NewUniformDescriptor(device vk.Device, uniform *CoreBuffer) (*DescriptorPool, error) {
	core := &DescriptorPool{device: device}

	ret := vk.CreateDescriptorSetLayout(device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		}},
	}, nil, &core.layout)
	if isError(ret) {
		return nil, NewError(ret)
	}

	ret = vk.CreateDescriptorPool(device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
		}},
	}, nil, &core.pool)
	if isError(ret) {
		core.Destroy()
		return nil, NewError(ret)
	}

	sets := make([]vk.DescriptorSet, 1)
	ret = vk.AllocateDescriptorSets(device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     core.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{core.layout},
	}, &sets[0])
	if isError(ret) {
		core.Destroy()
		return nil, NewError(ret)
	}
	core.set = sets[0]

	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          core.set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: uniform.Handle(),
			Offset: 0,
			Range:  uniform.Size(),
		}},
	}}, 0, nil)

	return core, nil
}

func (d *DescriptorPool) Layout() vk.DescriptorSetLayout { return d.layout }
func (d *DescriptorPool) Set() vk.DescriptorSet          { return d.set }

func (d *DescriptorPool) Destroy() {
	if d.device == nil {
		return
	}
	if d.pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(d.device, d.pool, nil)
	}
	if d.layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(d.device, d.layout, nil)
	}
	d.device = nil
}
