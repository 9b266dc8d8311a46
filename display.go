package prismvk

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// WindowID identifies one engine window. IDs are assigned at window creation
// and never reused.
type WindowID int

// WindowHandle is the engine's view of a host window. *Display implements it
// over GLFW; tests substitute headless stand-ins.
type WindowHandle interface {
	ID() WindowID
	// Size is the logical window size used for pointer normalization.
	Size() (int, int)
	// FramebufferSize is the pixel size used to resolve swapchain extents.
	FramebufferSize() (int, int)
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	RequiredExtensions() []string
	// MarkDirty schedules a redraw on the next loop pass.
	MarkDirty()
}

// Display wraps one GLFW window together with its redraw flag.
type Display struct {
	id     WindowID
	window *glfw.Window
	dirty  bool
}

// NewDisplay creates a GLFW window configured for Vulkan rendering.
func NewDisplay(id WindowID, title string, width, height int) (*Display, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window %q: %w", title, err)
	}
	return &Display{id: id, window: window}, nil
}

func (d *Display) ID() WindowID { return d.id }

func (d *Display) Size() (int, int) { return d.window.GetSize() }

func (d *Display) FramebufferSize() (int, int) { return d.window.GetFramebufferSize() }

// CreateSurface makes a fresh presentation surface for this window.
func (d *Display) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfPtr, err := d.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("create window surface: %w", err)
	}
	return vk.SurfaceFromPointer(surfPtr), nil
}

func (d *Display) RequiredExtensions() []string {
	return d.window.GetRequiredInstanceExtensions()
}

func (d *Display) MarkDirty() { d.dirty = true }

// SwapDirty reports and clears the redraw flag in one step.
func (d *Display) SwapDirty() bool {
	dirty := d.dirty
	d.dirty = false
	return dirty
}

func (d *Display) Window() *glfw.Window { return d.window }

func (d *Display) Destroy() {
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
}
