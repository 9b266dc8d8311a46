package prismvk

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Outcome reports what a frame submission did for one window.
type Outcome int

const (
	// OutcomePresented means the frame was rendered and queued for display.
	OutcomePresented Outcome = iota
	// OutcomeSkipped means no work reached the display (zero-area surface
	// or a failure along the way).
	OutcomeSkipped
	// OutcomeRecreated means the chain was or will be rebuilt instead of
	// presenting; the window should redraw promptly.
	OutcomeRecreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomePresented:
		return "presented"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRecreated:
		return "recreated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Token tracks completion of the last submitted frame for one window. A
// fresh token is trivially satisfied so the first frame never blocks.
type Token interface {
	// Done polls completion without blocking.
	Done() bool
	// Wait blocks until the tracked work completes.
	Wait() error
	// Reset returns the token to the unsignaled state before re-arming.
	Reset() error
}

// fenceToken is the production Token over one exclusively-owned fence,
// created in the signaled state.
type fenceToken struct {
	device vk.Device
	fence  vk.Fence
}

func newFenceToken(device vk.Device) (*fenceToken, error) {
	var fence vk.Fence
	ret := vk.CreateFence(device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &fence)
	if isError(ret) {
		return nil, NewError(ret)
	}
	return &fenceToken{device: device, fence: fence}, nil
}

func (t *fenceToken) Done() bool {
	return vk.GetFenceStatus(t.device, t.fence) == vk.Success
}

func (t *fenceToken) Wait() error {
	ret := vk.WaitForFences(t.device, 1, []vk.Fence{t.fence}, vk.True, vk.MaxUint64)
	return NewError(ret)
}

func (t *fenceToken) Reset() error {
	ret := vk.ResetFences(t.device, 1, []vk.Fence{t.fence})
	return NewError(ret)
}

func (t *fenceToken) Destroy() {
	if t.fence != vk.NullFence {
		vk.DestroyFence(t.device, t.fence, nil)
		t.fence = vk.NullFence
	}
}

// Chain is the synchronizer's view of one window's presentable images.
// WindowRenderer implements it over CoreSwapchain.
type Chain interface {
	Extent() vk.Extent2D
	Acquire(semaphore vk.Semaphore) (uint32, ChainStatus, error)
	Present(image uint32, wait vk.Semaphore) (ChainStatus, error)
	Rebuild() error
}

// Submitter queues recorded work on the shared graphics queue.
// DeviceContext implements it.
type Submitter interface {
	Submit(cmd vk.CommandBuffer, wait, signal vk.Semaphore, fence vk.Fence) error
	Idle() error
}

// RecordFunc records one frame's commands targeting the acquired image.
type RecordFunc func(image uint32, cmd vk.CommandBuffer) error

// FrameSync owns the per-window completion token and runs the frame
// protocol: acquire, wait, record, submit, present. One instance per window,
// never shared between windows.
type FrameSync struct {
	device    vk.Device
	submitter Submitter
	cmd       vk.CommandBuffer

	token       Token
	fence       vk.Fence
	acquire_sem vk.Semaphore
	render_sems []vk.Semaphore

	armed            bool
	rebuild_deferred bool
}

// NewFrameSync creates the synchronizer with its token trivially satisfied.
func NewFrameSync(device vk.Device, submitter Submitter, cmd vk.CommandBuffer) (*FrameSync, error) {
	token, err := newFenceToken(device)
	if err != nil {
		return nil, err
	}
	var acquire vk.Semaphore
	ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &acquire)
	if isError(ret) {
		token.Destroy()
		return nil, NewError(ret)
	}
	return &FrameSync{
		device:      device,
		submitter:   submitter,
		cmd:         cmd,
		token:       token,
		fence:       token.fence,
		acquire_sem: acquire,
	}, nil
}

// SetImageCount sizes the render-finished semaphore set to the chain's image
// count. Called on activation and after every chain rebuild; the caller
// guarantees no submitted work still references the old semaphores.
func (f *FrameSync) SetImageCount(count int) error {
	for _, sem := range f.render_sems {
		vk.DestroySemaphore(f.device, sem, nil)
	}
	f.render_sems = make([]vk.Semaphore, count)
	for i := range f.render_sems {
		ret := vk.CreateSemaphore(f.device, &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &f.render_sems[i])
		if isError(ret) {
			return NewError(ret)
		}
	}
	return nil
}

// SubmitFrame runs the frame protocol against the chain. A stale report at
// acquire defers the rebuild to the next frame; a stale report at present
// rebuilds immediately and leaves the token trivially satisfied. Suboptimal
// reports present normally and schedule a deferred rebuild.
func (f *FrameSync) SubmitFrame(chain Chain, record RecordFunc) (Outcome, error) {
	if f.rebuild_deferred {
		f.rebuild_deferred = false
		if err := chain.Rebuild(); err != nil {
			return OutcomeSkipped, fmt.Errorf("deferred chain rebuild: %w", err)
		}
	}

	// Housekeeping poll: a finished frame returns the token to the
	// trivially satisfied state without blocking.
	if f.armed && f.token.Done() {
		f.armed = false
	}

	extent := chain.Extent()
	if extent.Width == 0 || extent.Height == 0 {
		return OutcomeSkipped, nil
	}

	image, status, err := chain.Acquire(f.acquire_sem)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("acquire image: %w", err)
	}
	switch status {
	case ChainStale:
		// The acquired index is unusable. Rebuild on the next frame,
		// never re-entrantly within this one.
		f.rebuild_deferred = true
		return OutcomeRecreated, nil
	case ChainSuboptimal:
		f.rebuild_deferred = true
	}

	// The token guards the shared command buffer: wait out the previous
	// frame before recording over it.
	if err := f.token.Wait(); err != nil {
		return OutcomeSkipped, err
	}
	if err := f.token.Reset(); err != nil {
		return OutcomeSkipped, err
	}
	f.armed = false

	if err := record(image, f.cmd); err != nil {
		return OutcomeSkipped, fmt.Errorf("record frame: %w", err)
	}

	renderDone := f.render_sems[int(image)]
	if err := f.submitter.Submit(f.cmd, f.acquire_sem, renderDone, f.fence); err != nil {
		return OutcomeSkipped, fmt.Errorf("submit frame: %w", err)
	}
	f.armed = true

	status, err = chain.Present(image, renderDone)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("present image: %w", err)
	}
	switch status {
	case ChainStale:
		// Presentation refused the frame. Rebuild now; waiting out the
		// submission leaves the token satisfied for the fresh chain.
		if err := f.token.Wait(); err != nil {
			return OutcomeSkipped, err
		}
		f.armed = false
		if err := chain.Rebuild(); err != nil {
			return OutcomeSkipped, fmt.Errorf("chain rebuild: %w", err)
		}
		f.rebuild_deferred = false
		return OutcomeRecreated, nil
	case ChainSuboptimal:
		f.rebuild_deferred = true
	}
	return OutcomePresented, nil
}

// WaitPending blocks until any armed submission completes. A trivially
// satisfied token returns immediately.
func (f *FrameSync) WaitPending() error {
	if err := f.token.Wait(); err != nil {
		return err
	}
	f.armed = false
	return nil
}

// Destroy waits out pending work and releases the token and semaphores.
func (f *FrameSync) Destroy() {
	if f.token == nil {
		return
	}
	f.WaitPending()
	if token, ok := f.token.(*fenceToken); ok {
		token.Destroy()
	}
	f.token = nil
	if f.acquire_sem != vk.NullSemaphore {
		vk.DestroySemaphore(f.device, f.acquire_sem, nil)
		f.acquire_sem = vk.NullSemaphore
	}
	for _, sem := range f.render_sems {
		vk.DestroySemaphore(f.device, sem, nil)
	}
	f.render_sems = nil
}
