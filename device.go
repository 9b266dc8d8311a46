package prismvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// CoreDevice owns the logical device built over the selected gpu along with
// its queue bindings and cached memory properties.
type CoreDevice struct {
	selected_device   vk.PhysicalDevice
	handle            vk.Device
	queue             *CoreQueue
	memory_properties vk.PhysicalDeviceMemoryProperties
}

// NewCoreDevice creates the logical device with one graphics queue and, when
// the families differ, one present queue. The surface pins queue selection.
func NewCoreDevice(gpu vk.PhysicalDevice, surface vk.Surface, layers []string) (*CoreDevice, error) {
	queue, err := NewCoreQueue(gpu, surface)
	if err != nil {
		return nil, err
	}

	actual, err := DeviceExtensions(gpu)
	if err != nil {
		return nil, err
	}
	extensions, missing := checkExisting(actual, requiredDeviceExtensions())
	if missing > 0 {
		return nil, fmt.Errorf("gpu lacks %d required device extensions", missing)
	}

	queueInfos := queue.CreateInfos()
	var handle vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &handle)
	if isError(ret) {
		return nil, NewError(ret)
	}
	queue.Bind(handle)

	core := &CoreDevice{
		selected_device: gpu,
		handle:          handle,
		queue:           queue,
	}
	vk.GetPhysicalDeviceMemoryProperties(gpu, &core.memory_properties)
	core.memory_properties.Deref()
	return core, nil
}

func requiredDeviceExtensions() []string {
	return []string{"VK_KHR_swapchain"}
}

func (d *CoreDevice) Handle() vk.Device           { return d.handle }
func (d *CoreDevice) Physical() vk.PhysicalDevice { return d.selected_device }
func (d *CoreDevice) Queue() *CoreQueue           { return d.queue }

// FindMemoryType locates a memory type matching both the resource's
// requirement bits and the requested property flags.
func (d *CoreDevice) FindMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < d.memory_properties.MemoryTypeCount; i++ {
		if typeBits&(uint32(1)<<i) == 0 {
			continue
		}
		d.memory_properties.MemoryTypes[i].Deref()
		if d.memory_properties.MemoryTypes[i].PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches bits 0x%x with properties 0x%x", typeBits, properties)
}

// WaitIdle blocks until the GPU drains all queues.
func (d *CoreDevice) WaitIdle() error {
	return NewError(vk.DeviceWaitIdle(d.handle))
}

func (d *CoreDevice) Destroy() {
	if d.handle != nil {
		vk.DestroyDevice(d.handle, nil)
		d.handle = nil
	}
}
