package prismvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// CoreQueue resolves and owns the graphics and present queue bindings for a
// physical device / surface pair.
type CoreQueue struct {
	graphics_family uint32
	present_family  uint32
	graphics        vk.Queue
	present         vk.Queue
}

// NewCoreQueue scans the device queue families for graphics and present
// support against the surface, preferring a single shared family.
func NewCoreQueue(gpu vk.PhysicalDevice, surface vk.Surface) (*CoreQueue, error) {
	graphics, present, ok := findQueueFamilies(gpu, surface)
	if !ok {
		return nil, fmt.Errorf("no queue families with graphics and present support")
	}
	return &CoreQueue{graphics_family: graphics, present_family: present}, nil
}

func findQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) (graphics, present uint32, ok bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	if count == 0 {
		return 0, 0, false
	}
	properties := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, properties)

	var hasGraphics, hasPresent bool
	for i := uint32(0); i < count; i++ {
		properties[i].Deref()
		isGraphics := properties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &supportsPresent)

		if isGraphics && supportsPresent.B() {
			return i, i, true
		}
		if isGraphics && !hasGraphics {
			graphics = i
			hasGraphics = true
		}
		if supportsPresent.B() && !hasPresent {
			present = i
			hasPresent = true
		}
	}
	return graphics, present, hasGraphics && hasPresent
}

// CreateInfos builds the device queue create infos, one entry per distinct
// family with a single queue each.
func (q *CoreQueue) CreateInfos() []vk.DeviceQueueCreateInfo {
	priority := float32(0.5)
	infos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: q.graphics_family,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}}
	if q.SeparatePresent() {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.present_family,
			QueueCount:       1,
			PQueuePriorities: []float32{priority},
		})
	}
	return infos
}

// SeparatePresent reports whether presentation runs on its own family.
func (q *CoreQueue) SeparatePresent() bool {
	return q.graphics_family != q.present_family
}

func (q *CoreQueue) GraphicsFamily() uint32 { return q.graphics_family }
func (q *CoreQueue) PresentFamily() uint32  { return q.present_family }

// Bind fetches the queue handles. Must be called once the logical device exists.
func (q *CoreQueue) Bind(device vk.Device) {
	vk.GetDeviceQueue(device, q.graphics_family, 0, &q.graphics)
	if q.SeparatePresent() {
		vk.GetDeviceQueue(device, q.present_family, 0, &q.present)
	} else {
		q.present = q.graphics
	}
}

func (q *CoreQueue) Graphics() vk.Queue { return q.graphics }
func (q *CoreQueue) Present() vk.Queue  { return q.present }

// Submit queues one command buffer for execution. A non-null wait semaphore
// stalls the color attachment stage until it signals; a non-null signal
// semaphore fires when the buffer completes, as does the fence.
func (q *CoreQueue) Submit(cmd vk.CommandBuffer, wait, signal vk.Semaphore, fence vk.Fence) error {
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if wait != vk.NullSemaphore {
		info.WaitSemaphoreCount = 1
		info.PWaitSemaphores = []vk.Semaphore{wait}
		info.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signal != vk.NullSemaphore {
		info.SignalSemaphoreCount = 1
		info.PSignalSemaphores = []vk.Semaphore{signal}
	}
	ret := vk.QueueSubmit(q.graphics, 1, []vk.SubmitInfo{info}, fence)
	if isError(ret) {
		return NewError(ret)
	}
	return nil
}
