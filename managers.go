package prismvk

import vk "github.com/vulkan-go/vulkan"

// CommandManager allocates primary command buffers from a shared pool and
// runs blocking one-time submissions for resource uploads.
// The manager is not thread-safe; the engine drives all rendering from the
// main thread.
type CommandManager struct {
	device vk.Device
	pool   vk.CommandPool
	queue  *CoreQueue
}

func NewCommandManager(device vk.Device, queue *CoreQueue) (*CommandManager, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queue.GraphicsFamily(),
		// Renderers re-record their buffer every frame, which needs per-buffer reset.
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return &CommandManager{device: device, pool: pool, queue: queue}, nil
}

// NewPrimaryBuffer allocates one primary command buffer owned by the caller.
func (c *CommandManager) NewPrimaryBuffer() (vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return buffers[0], nil
}

func (c *CommandManager) Free(cmd vk.CommandBuffer) {
	if cmd != nil {
		vk.FreeCommandBuffers(c.device, c.pool, 1, []vk.CommandBuffer{cmd})
	}
}

// OneTime records and submits a transient command buffer, blocking on a
// fence until the GPU finishes. Only startup uploads use it, so the wait
// never stalls a frame.
func (c *CommandManager) OneTime(record func(cmd vk.CommandBuffer) error) error {
	cmd, err := c.NewPrimaryBuffer()
	if err != nil {
		return err
	}
	defer c.Free(cmd)

	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if isError(ret) {
		return NewError(ret)
	}
	if err := record(cmd); err != nil {
		return err
	}
	if ret := vk.EndCommandBuffer(cmd); isError(ret) {
		return NewError(ret)
	}

	var fence vk.Fence
	ret = vk.CreateFence(c.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)
	if isError(ret) {
		return NewError(ret)
	}
	defer vk.DestroyFence(c.device, fence, nil)

	if err := c.queue.Submit(cmd, vk.NullSemaphore, vk.NullSemaphore, fence); err != nil {
		return err
	}
	ret = vk.WaitForFences(c.device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64)
	return NewError(ret)
}

func (c *CommandManager) Destroy() {
	if c.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(c.device, c.pool, nil)
		c.pool = vk.NullCommandPool
	}
}
