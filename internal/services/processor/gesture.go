package processor

import "math"

const (
	DefaultZoomMin = 0.5
	DefaultZoomMax = 3.0
)

// Mode is the state of the gesture state machine.
type Mode int

const (
	Idle Mode = iota
	Dragging
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Point is a pointer position in display pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// DragSession lives between pointer down and pointer up or leave.
type DragSession struct {
	StartPointer Point
	StartOffsetX float64
	StartOffsetY float64
}

// GestureState is the full input state of a crop session. Values are never
// mutated in place; Apply returns a new one.
type GestureState struct {
	Transform Transform
	Drag      *DragSession
}

func (s GestureState) Mode() Mode {
	if s.Drag != nil {
		return Dragging
	}
	return Idle
}

// Event is a discrete input message.
type Event interface {
	isEvent()
}

type (
	BeginDrag    struct{ Pointer Point }
	MoveDrag     struct{ Pointer Point }
	EndDrag      struct{}
	PointerLeave struct{}
	SetZoom      struct{ Value float64 }
	Reset        struct{}
)

func (BeginDrag) isEvent()    {}
func (MoveDrag) isEvent()     {}
func (EndDrag) isEvent()      {}
func (PointerLeave) isEvent() {}
func (SetZoom) isEvent()      {}
func (Reset) isEvent()        {}

// GestureOptions configures zoom limits and pan clamping.
type GestureOptions struct {
	ZoomMin float64
	ZoomMax float64
	// ClampPan keeps the crop window inside the scaled image while dragging.
	ClampPan bool
}

func DefaultGestureOptions() GestureOptions {
	return GestureOptions{
		ZoomMin:  DefaultZoomMin,
		ZoomMax:  DefaultZoomMax,
		ClampPan: true,
	}
}

// GestureController turns input events into new gesture states for one
// source image.
type GestureController struct {
	opts      GestureOptions
	geometry  Geometry
	imgWidth  int
	imgHeight int
}

func NewGestureController(opts GestureOptions, g Geometry, imgWidth, imgHeight int) *GestureController {
	if !(opts.ZoomMin > 0) {
		opts.ZoomMin = DefaultZoomMin
	}
	if !(opts.ZoomMax > 0) {
		opts.ZoomMax = DefaultZoomMax
	}
	if opts.ZoomMin > opts.ZoomMax {
		opts.ZoomMin, opts.ZoomMax = opts.ZoomMax, opts.ZoomMin
	}
	return &GestureController{
		opts:      opts,
		geometry:  g,
		imgWidth:  imgWidth,
		imgHeight: imgHeight,
	}
}

// Initial is the covering, centered state with no drag open.
func (c *GestureController) Initial() GestureState {
	return GestureState{Transform: InitialTransform(c.geometry, c.imgWidth, c.imgHeight)}
}

// Apply returns the state after ev and whether the transform changed.
// Stray or malformed events leave the state as it is.
func (c *GestureController) Apply(s GestureState, ev Event) (GestureState, bool) {
	switch e := ev.(type) {
	case BeginDrag:
		if s.Drag != nil || !e.Pointer.finite() {
			return s, false
		}
		return GestureState{
			Transform: s.Transform,
			Drag: &DragSession{
				StartPointer: e.Pointer,
				StartOffsetX: s.Transform.OffsetX,
				StartOffsetY: s.Transform.OffsetY,
			},
		}, false

	case MoveDrag:
		if s.Drag == nil || !e.Pointer.finite() {
			return s, false
		}
		next := Transform{
			Scale:   s.Transform.Scale,
			OffsetX: s.Drag.StartOffsetX + (e.Pointer.X - s.Drag.StartPointer.X),
			OffsetY: s.Drag.StartOffsetY + (e.Pointer.Y - s.Drag.StartPointer.Y),
		}
		if c.opts.ClampPan {
			next = c.clampOffset(next)
		}
		return GestureState{Transform: next, Drag: s.Drag}, next != s.Transform

	case EndDrag, PointerLeave:
		return GestureState{Transform: s.Transform}, false

	case SetZoom:
		if math.IsNaN(e.Value) {
			return s, false
		}
		next := s.Transform
		next.Scale = math.Min(math.Max(e.Value, c.opts.ZoomMin), c.opts.ZoomMax)
		return GestureState{Transform: next, Drag: s.Drag}, next != s.Transform

	case Reset:
		initial := c.Initial()
		return initial, initial.Transform != s.Transform
	}

	return s, false
}

// clampOffset limits the offset so the crop window stays on the scaled image.
// An axis where the image is narrower than the window is centered.
func (c *GestureController) clampOffset(t Transform) Transform {
	window := c.geometry.CropWindow()

	maxX := math.Max(0, (float64(c.imgWidth)*t.Scale-window.Width)/2)
	maxY := math.Max(0, (float64(c.imgHeight)*t.Scale-window.Height)/2)

	t.OffsetX = math.Min(math.Max(t.OffsetX, -maxX), maxX)
	t.OffsetY = math.Min(math.Max(t.OffsetY, -maxY), maxY)
	return t
}
