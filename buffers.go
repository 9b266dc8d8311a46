package prismvk

import (
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// CoreBuffer pairs a vk.Buffer with the device memory backing it.
type CoreBuffer struct {
	device *CoreDevice
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

func createBuffer(device *CoreDevice, size vk.DeviceSize, usage vk.BufferUsageFlags,
	properties vk.MemoryPropertyFlags) (*CoreBuffer, error) {

	var buffer vk.Buffer
	ret := vk.CreateBuffer(device.Handle(), &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return nil, NewError(ret)
	}

	// Ask the device about its memory requirements.
	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.Handle(), buffer, &memReqs)
	memReqs.Deref()

	memType, err := device.FindMemoryType(memReqs.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, err
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(device.Handle(), &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if isError(ret) {
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, NewError(ret)
	}
	ret = vk.BindBufferMemory(device.Handle(), buffer, memory, 0)
	if isError(ret) {
		vk.FreeMemory(device.Handle(), memory, nil)
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, NewError(ret)
	}

	return &CoreBuffer{device: device, buffer: buffer, memory: memory, size: size}, nil
}

// NewHostBuffer creates a host-visible coherent buffer and copies data in.
func NewHostBuffer(device *CoreDevice, data []byte, usage vk.BufferUsageFlagBits) (*CoreBuffer, error) {
	core, err := createBuffer(device, vk.DeviceSize(len(data)), vk.BufferUsageFlags(usage),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	if err := core.write(data); err != nil {
		core.Destroy()
		return nil, err
	}
	return core, nil
}

// write maps the memory and dumps data in there.
func (b *CoreBuffer) write(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var pData unsafe.Pointer
	ret := vk.MapMemory(b.device.Handle(), b.memory, 0, vk.DeviceSize(len(data)), 0, &pData)
	if isError(ret) {
		return NewError(ret)
	}
	n := vk.Memcopy(pData, data)
	if n != len(data) {
		log.Printf("vulkan warning: failed to copy data, %d != %d", n, len(data))
	}
	vk.UnmapMemory(b.device.Handle(), b.memory)
	return nil
}

// NewDeviceBuffer uploads data into device-local memory through a staging
// buffer. The copy runs as a blocking one-time submission.
func NewDeviceBuffer(device *CoreDevice, commands *CommandManager, data []byte,
	usage vk.BufferUsageFlagBits) (*CoreBuffer, error) {

	if len(data) == 0 {
		return nil, fmt.Errorf("device buffer needs data to upload")
	}
	staging, err := NewHostBuffer(device, data, vk.BufferUsageTransferSrcBit)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	core, err := createBuffer(device, vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(usage)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	err = commands.OneTime(func(cmd vk.CommandBuffer) error {
		vk.CmdCopyBuffer(cmd, staging.buffer, core.buffer, 1, []vk.BufferCopy{{
			Size: vk.DeviceSize(len(data)),
		}})
		return nil
	})
	if err != nil {
		core.Destroy()
		return nil, err
	}
	return core, nil
}

func (b *CoreBuffer) Handle() vk.Buffer   { return b.buffer }
func (b *CoreBuffer) Size() vk.DeviceSize { return b.size }

func (b *CoreBuffer) Destroy() {
	if b.device == nil {
		return
	}
	vk.FreeMemory(b.device.Handle(), b.memory, nil)
	vk.DestroyBuffer(b.device.Handle(), b.buffer, nil)
	b.device = nil
}
