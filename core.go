package prismvk

import (
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Engine assembles the whole stack: windows, the shared device context and
// the coordinator, then drives the frame loop. One Engine runs one scene
// across all configured windows.
type Engine struct {
	cfg         *Config
	scene       *Scene
	displays    []*Display
	platform    *Platform
	ctx         *DeviceContext
	coordinator *RenderCoordinator

	terminate bool
	failure   error
}

// NewEngine opens the configured windows and builds the GPU state. InitVulkan
// must have succeeded on the calling thread first.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			e.Destroy()
		}
	}()

	scene, err := LoadScene(cfg.Scene)
	if err != nil {
		return nil, err
	}
	e.scene = scene

	for i, wc := range cfg.Windows {
		display, err := NewDisplay(WindowID(i), wc.Title, wc.Width, wc.Height)
		if err != nil {
			return nil, err
		}
		e.displays = append(e.displays, display)
	}
	primary := primaryIndex(cfg)

	e.platform, err = NewPlatform(cfg, e.displays[primary])
	if err != nil {
		return nil, err
	}
	e.ctx, err = NewDeviceContext(e.platform.Device(), cfg, scene, e.platform.SurfaceFormat())
	if err != nil {
		return nil, err
	}
	log.Printf("vulkan: scene ready, %d vertices and %d indices",
		scene.VertexCount(), scene.IndexCount)

	e.coordinator = NewRenderCoordinator(e.platform.Instance(), WindowID(primary))
	for i, display := range e.displays {
		renderer := NewWindowRenderer(e.ctx, display, clearRamp(i, len(e.displays)))
		if err := e.coordinator.Add(renderer); err != nil {
			return nil, err
		}
		e.wireCallbacks(display)
	}

	ok = true
	return e, nil
}

// Run drives the frame loop until the primary window closes or a dispatch
// fails. It must run on the thread that called InitVulkan.
func (e *Engine) Run() error {
	if err := e.coordinator.Start(); err != nil {
		return err
	}
	log.Printf("vulkan: rendering %d windows", e.coordinator.Len())

	for !e.terminate && e.failure == nil {
		if e.coordinator.State() == CoordSuspended {
			glfw.WaitEvents()
		} else {
			glfw.PollEvents()
		}
		if e.terminate || e.failure != nil {
			break
		}
		e.coordinator.RequestRedrawAll()
		for _, display := range e.displays {
			if !display.SwapDirty() {
				continue
			}
			if _, err := e.coordinator.Dispatch(display.ID()); err != nil {
				e.failure = err
				break
			}
		}
	}

	if err := e.coordinator.Suspend(); err != nil && e.failure == nil {
		e.failure = err
	}
	return e.failure
}

// Destroy releases everything the engine built. Safe to call after a failed
// construction or a finished Run.
func (e *Engine) Destroy() {
	if e.coordinator != nil {
		e.coordinator.Suspend()
		e.coordinator = nil
	}
	if e.ctx != nil {
		e.ctx.Destroy()
		e.ctx = nil
	}
	if e.platform != nil {
		e.platform.Destroy()
		e.platform = nil
	}
	for _, display := range e.displays {
		display.Destroy()
	}
	e.displays = nil
}

// wireCallbacks forwards the window's GLFW callbacks into coordinator
// events. The iconify callback of the primary window drives suspend and
// resume for the whole engine.
func (e *Engine) wireCallbacks(display *Display) {
	id := display.ID()

	display.Window().SetRefreshCallback(func(_ *glfw.Window) {
		e.coordinator.Handle(Event{Window: id, Kind: EventRedraw})
	})
	display.Window().SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		e.coordinator.Handle(Event{Window: id, Kind: EventResize, Width: width, Height: height})
	})
	display.Window().SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		e.coordinator.Handle(Event{Window: id, Kind: EventPointer, X: x, Y: y})
	})
	display.Window().SetCloseCallback(func(_ *glfw.Window) {
		if e.coordinator.Handle(Event{Window: id, Kind: EventClose}) {
			e.terminate = true
			return
		}
		display.Window().SetShouldClose(false)
	})

	if id == e.coordinator.Primary() {
		display.Window().SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
			var err error
			if iconified {
				err = e.coordinator.Suspend()
			} else {
				err = e.coordinator.Resume()
			}
			if err != nil && e.failure == nil {
				e.failure = err
			}
		})
	}
}

func primaryIndex(cfg *Config) int {
	for i, w := range cfg.Windows {
		if w.Primary {
			return i
		}
	}
	return 0
}

// clearRamp picks a distinct background shade per window index.
func clearRamp(index, total int) [4]float32 {
	shade := float32(index) / float32(total)
	return [4]float32{0.05 + 0.15*shade, 0.07 + 0.1*shade, 0.1 + 0.2*shade, 1}
}
