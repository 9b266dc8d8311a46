package prismvk

import (
	"fmt"
	"log"

	vk "github.com/vulkan-go/vulkan"
)

// EventKind identifies a window event routed through the coordinator.
type EventKind int

const (
	EventRedraw EventKind = iota
	EventResize
	EventPointer
	EventClose
)

// Event is one window occurrence delivered to the owning renderer.
type Event struct {
	Window WindowID
	Kind   EventKind
	X, Y   float64 // pointer position for EventPointer
	Width  int     // framebuffer size for EventResize
	Height int
}

// CoordState tracks the coordinator lifecycle.
type CoordState int

const (
	CoordNotStarted CoordState = iota
	CoordActive
	CoordSuspended
)

func (s CoordState) String() string {
	switch s {
	case CoordNotStarted:
		return "not started"
	case CoordActive:
		return "active"
	case CoordSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Renderer is the coordinator's view of one window's drawing side.
// *WindowRenderer is the production implementation.
type Renderer interface {
	ID() WindowID
	State() RendererState
	Activate(instance vk.Instance) error
	Deactivate() error
	RenderFrame() (Outcome, error)
	RequestRedraw()
	OnResize(width, height int)
	OnPointerMove(x, y float64)
}

// RenderCoordinator owns the set of window renderers and routes frames and
// events to them. One window is the primary: closing it ends the run, while
// close requests on any other window are ignored and the window retained.
type RenderCoordinator struct {
	instance  vk.Instance
	renderers []Renderer
	byID      map[WindowID]Renderer
	primary   WindowID
	state     CoordState
}

func NewRenderCoordinator(instance vk.Instance, primary WindowID) *RenderCoordinator {
	return &RenderCoordinator{
		instance: instance,
		byID:     make(map[WindowID]Renderer),
		primary:  primary,
	}
}

// Add registers a renderer. Registration is only allowed before Start.
func (c *RenderCoordinator) Add(r Renderer) error {
	if c.state != CoordNotStarted {
		return fmt.Errorf("coordinator: cannot add windows while %s", c.state)
	}
	if _, exists := c.byID[r.ID()]; exists {
		return fmt.Errorf("coordinator: window %d already registered", r.ID())
	}
	c.renderers = append(c.renderers, r)
	c.byID[r.ID()] = r
	return nil
}

// Start activates every registered renderer. Any failure deactivates the
// renderers already started and the coordinator stays unstarted.
func (c *RenderCoordinator) Start() error {
	if c.state != CoordNotStarted {
		return fmt.Errorf("coordinator: start from state %s", c.state)
	}
	if err := c.activateAll(); err != nil {
		return err
	}
	c.state = CoordActive
	return nil
}

// Suspend deactivates every renderer, keeping the windows and their saved
// state for a later Resume. Suspending twice is a no-op.
func (c *RenderCoordinator) Suspend() error {
	if c.state != CoordActive {
		return nil
	}
	var first error
	for _, r := range c.renderers {
		if err := r.Deactivate(); err != nil && first == nil {
			first = fmt.Errorf("suspend window %d: %w", r.ID(), err)
		}
	}
	c.state = CoordSuspended
	return first
}

// Resume reactivates every renderer. The first failure rolls back the
// renderers activated so far and the coordinator stays suspended.
func (c *RenderCoordinator) Resume() error {
	if c.state == CoordActive {
		return nil
	}
	if c.state != CoordSuspended {
		return fmt.Errorf("coordinator: resume from state %s", c.state)
	}
	if err := c.activateAll(); err != nil {
		return err
	}
	c.state = CoordActive
	return nil
}

func (c *RenderCoordinator) activateAll() error {
	for i, r := range c.renderers {
		if err := r.Activate(c.instance); err != nil {
			for j := i - 1; j >= 0; j-- {
				c.renderers[j].Deactivate()
			}
			return fmt.Errorf("activate window %d: %w", r.ID(), err)
		}
	}
	return nil
}

// Dispatch submits one frame for the window. A rebuilt chain leaves the
// window flagged so the next pass dispatches it again promptly.
func (c *RenderCoordinator) Dispatch(id WindowID) (Outcome, error) {
	if c.state != CoordActive {
		return OutcomeSkipped, nil
	}
	r, ok := c.byID[id]
	if !ok {
		return OutcomeSkipped, fmt.Errorf("coordinator: no renderer for window %d", id)
	}
	outcome, err := r.RenderFrame()
	if err != nil {
		return outcome, fmt.Errorf("window %d: %w", id, err)
	}
	if outcome == OutcomeRecreated {
		r.RequestRedraw()
	}
	return outcome, nil
}

// Handle routes a window event. The returned flag asks the caller to
// terminate the run: only a close request on the primary window sets it.
func (c *RenderCoordinator) Handle(ev Event) (terminate bool) {
	r, ok := c.byID[ev.Window]
	if !ok {
		return false
	}
	switch ev.Kind {
	case EventRedraw:
		r.RequestRedraw()
	case EventResize:
		r.OnResize(ev.Width, ev.Height)
	case EventPointer:
		r.OnPointerMove(ev.X, ev.Y)
	case EventClose:
		if ev.Window == c.primary {
			return true
		}
		log.Printf("vulkan: ignoring close request on window %d", ev.Window)
	}
	return false
}

// RequestRedrawAll flags every window for the next dispatch pass without
// submitting any work.
func (c *RenderCoordinator) RequestRedrawAll() {
	for _, r := range c.renderers {
		r.RequestRedraw()
	}
}

func (c *RenderCoordinator) State() CoordState { return c.state }
func (c *RenderCoordinator) Primary() WindowID { return c.primary }
func (c *RenderCoordinator) Len() int          { return len(c.renderers) }

func (c *RenderCoordinator) Renderer(id WindowID) (Renderer, bool) {
	r, ok := c.byID[id]
	return r, ok
}
