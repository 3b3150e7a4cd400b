package replay

import (
	"fmt"
	"time"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/drowsiness"
	"github.com/somiljain2006/EverWake/internal/eye"
)

// Alert is one alert the offline pipeline raised.
type Alert struct {
	At             time.Duration `yaml:"at"`
	ClosedDuration time.Duration `yaml:"closed_duration"`
}

// Report summarizes an offline run.
type Report struct {
	Frames    int           `yaml:"frames"`
	Ambiguous int           `yaml:"ambiguous"`
	Stale     int           `yaml:"stale"`
	MaxClosed time.Duration `yaml:"max_closed"`
	Span      time.Duration `yaml:"span"`
	Alerts    []Alert       `yaml:"alerts"`
}

// Check runs frames through the classifier and drowsiness machine exactly as
// the monitor does during a single uninterrupted run, without acknowledging.
func Check(frames []domain.FrameMessage, threshold float64, cfg drowsiness.Config) (Report, error) {
	classifier, err := eye.NewClassifier(threshold)
	if err != nil {
		return Report{}, err
	}
	machine, err := drowsiness.New(cfg)
	if err != nil {
		return Report{}, err
	}

	var report Report
	var first, last time.Duration
	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return report, fmt.Errorf("frame %d: %w", i, err)
		}

		reading := classifier.Read(f.Landmarks())
		if reading.Ambiguous {
			report.Ambiguous++
		}

		at := f.At()
		res := machine.Observe(at, reading.State)
		report.Frames++
		if res.Stale {
			report.Stale++
			continue
		}

		if i == 0 {
			first = at
		}
		last = at

		if res.ClosedDuration > report.MaxClosed {
			report.MaxClosed = res.ClosedDuration
		}
		if res.AlertRaised {
			report.Alerts = append(report.Alerts, Alert{At: at, ClosedDuration: res.ClosedDuration})
		}
	}
	report.Span = last - first

	return report, nil
}

// Verify compares a report against the script's expectations.
func (s *Script) Verify(r Report) error {
	if s.Expect == nil {
		return nil
	}
	if s.Expect.Alerts != nil && *s.Expect.Alerts != len(r.Alerts) {
		return fmt.Errorf("expected %d alerts, got %d", *s.Expect.Alerts, len(r.Alerts))
	}
	return nil
}
