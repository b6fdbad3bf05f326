package models

import (
	"testing"

	"github.com/phambaophuc/image-cropper/internal/services/processor"
)

func value(v float64) *float64 { return &v }

func TestGestureEventToEvent(t *testing.T) {
	tests := []struct {
		name    string
		in      GestureEvent
		want    processor.Event
		wantErr bool
	}{
		{"begin", GestureEvent{Type: "begin", X: 1, Y: 2}, processor.BeginDrag{Pointer: processor.Point{X: 1, Y: 2}}, false},
		{"move", GestureEvent{Type: "move", X: 3, Y: 4}, processor.MoveDrag{Pointer: processor.Point{X: 3, Y: 4}}, false},
		{"end", GestureEvent{Type: "end"}, processor.EndDrag{}, false},
		{"leave", GestureEvent{Type: "leave"}, processor.PointerLeave{}, false},
		{"zoom", GestureEvent{Type: "ZOOM", Value: value(1.25)}, processor.SetZoom{Value: 1.25}, false},
		{"explicit zero zoom", GestureEvent{Type: "zoom", Value: value(0)}, processor.SetZoom{Value: 0}, false},
		{"zoom without value", GestureEvent{Type: "zoom"}, nil, true},
		{"reset", GestureEvent{Type: "reset"}, processor.Reset{}, false},
		{"unknown", GestureEvent{Type: "pinch"}, nil, true},
		{"empty", GestureEvent{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ToEvent()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ToEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
