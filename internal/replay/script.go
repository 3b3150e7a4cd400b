// Package replay drives the detection pipeline from scripted landmark
// streams: it synthesizes frames from YAML scripts, checks them offline and
// streams them to a running server.
package replay

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/eye"
)

const (
	EyesOpen   = "open"
	EyesClosed = "closed"
	NoFace     = "no_face"

	DefaultFPS = 30

	defaultOpenOpenness   = 0.32
	defaultClosedOpenness = 0.05

	eyeWidth = 0.1
)

// Segment is a stretch of identical frames.
type Segment struct {
	Eyes    string  `yaml:"eyes"`
	Seconds float64 `yaml:"seconds"`
	// Openness overrides the height/width ratio of the synthesized outline.
	Openness *float64 `yaml:"openness,omitempty"`
}

// Expect is checked by Check when present.
type Expect struct {
	Alerts *int `yaml:"alerts,omitempty"`
}

// Script is either a list of segments to synthesize or explicit frames.
type Script struct {
	Name     string                `yaml:"name"`
	FPS      float64               `yaml:"fps,omitempty"`
	Start    float64               `yaml:"start,omitempty"`
	Segments []Segment             `yaml:"segments,omitempty"`
	Frames   []domain.FrameMessage `yaml:"frames,omitempty"`
	Expect   *Expect               `yaml:"expect,omitempty"`
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.FPS == 0 {
		s.FPS = DefaultFPS
	}
	if s.FPS < 0 || math.IsNaN(s.FPS) || math.IsInf(s.FPS, 0) {
		return fmt.Errorf("fps must be positive, got %v", s.FPS)
	}
	if s.Start < 0 {
		return fmt.Errorf("start must not be negative, got %v", s.Start)
	}

	switch {
	case len(s.Segments) == 0 && len(s.Frames) == 0:
		return errors.New("script has neither segments nor frames")
	case len(s.Segments) > 0 && len(s.Frames) > 0:
		return errors.New("script must use segments or frames, not both")
	}

	for i, seg := range s.Segments {
		switch seg.Eyes {
		case EyesOpen, EyesClosed, NoFace:
		default:
			return fmt.Errorf("segment %d: eyes must be open, closed or no_face, got %q", i, seg.Eyes)
		}
		if seg.Seconds <= 0 {
			return fmt.Errorf("segment %d: seconds must be positive", i)
		}
		if seg.Openness != nil && (*seg.Openness < 0 || *seg.Openness > 1) {
			return fmt.Errorf("segment %d: openness must be in [0, 1]", i)
		}
	}

	for i, f := range s.Frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return nil
}

// Synthesize expands the script into frames. Explicit frames are returned
// as-is.
func (s *Script) Synthesize() []domain.FrameMessage {
	if len(s.Frames) > 0 {
		return s.Frames
	}

	var frames []domain.FrameMessage
	index := 0
	for _, seg := range s.Segments {
		n := int(math.Round(seg.Seconds * s.FPS))
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			ts := s.Start + float64(index)/s.FPS
			frames = append(frames, seg.frame(math.Round(ts*1e6)/1e6))
			index++
		}
	}
	return frames
}

func (seg Segment) frame(ts float64) domain.FrameMessage {
	if seg.Eyes == NoFace {
		return domain.FrameMessage{Timestamp: ts, NoFace: true}
	}

	openness := defaultOpenOpenness
	if seg.Eyes == EyesClosed {
		openness = defaultClosedOpenness
	}
	if seg.Openness != nil {
		openness = *seg.Openness
	}

	return domain.FrameMessage{
		Timestamp: ts,
		LeftEye:   Outline(0.35, 0.4, openness),
		RightEye:  Outline(0.65, 0.4, openness),
	}
}

// Outline returns a six point eye contour centred on (cx, cy) whose
// height/width ratio is openness.
func Outline(cx, cy, openness float64) []eye.Point {
	w := eyeWidth
	h := openness * w
	return []eye.Point{
		{X: cx - w/2, Y: cy},
		{X: cx - w/4, Y: cy - h/2},
		{X: cx + w/4, Y: cy - h/2},
		{X: cx + w/2, Y: cy},
		{X: cx + w/4, Y: cy + h/2},
		{X: cx - w/4, Y: cy + h/2},
	}
}
