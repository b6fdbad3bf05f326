package models

import (
	"fmt"
	"strings"

	"github.com/phambaophuc/image-cropper/internal/services/processor"
)

const (
	EventBegin = "begin"
	EventMove  = "move"
	EventEnd   = "end"
	EventLeave = "leave"
	EventZoom  = "zoom"
	EventReset = "reset"
)

// GestureEvent is the wire form of a pointer, slider or reset input.
type GestureEvent struct {
	Type  string   `json:"type" yaml:"type" binding:"required,oneof=begin move end leave zoom reset"`
	X     float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y     float64  `json:"y,omitempty" yaml:"y,omitempty"`
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty" binding:"required_if=Type zoom"`
}

type GestureRequest struct {
	Events []GestureEvent `json:"events" binding:"required,min=1,dive"`
}

func (e GestureEvent) ToEvent() (processor.Event, error) {
	p := processor.Point{X: e.X, Y: e.Y}

	switch strings.ToLower(e.Type) {
	case EventBegin:
		return processor.BeginDrag{Pointer: p}, nil
	case EventMove:
		return processor.MoveDrag{Pointer: p}, nil
	case EventEnd:
		return processor.EndDrag{}, nil
	case EventLeave:
		return processor.PointerLeave{}, nil
	case EventZoom:
		if e.Value == nil {
			return nil, fmt.Errorf("zoom event without a value")
		}
		return processor.SetZoom{Value: *e.Value}, nil
	case EventReset:
		return processor.Reset{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
