package main

import (
	"fmt"
	"io"

	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"gopkg.in/yaml.v3"
)

// Script is a recorded crop interaction:
//
//	aspect_ratio: 1
//	events:
//	  - {type: begin, x: 200, y: 200}
//	  - {type: move, x: 240, y: 180}
//	  - {type: end}
//	  - {type: zoom, value: 1.5}
type Script struct {
	AspectRatio float64               `yaml:"aspect_ratio"`
	Events      []models.GestureEvent `yaml:"events"`
}

func LoadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &s, nil
}

// Compile converts the script into engine events, failing on the first
// unknown event type.
func (s *Script) Compile() ([]processor.Event, error) {
	events := make([]processor.Event, 0, len(s.Events))
	for i, e := range s.Events {
		ev, err := e.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
