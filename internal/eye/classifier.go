package eye

import "fmt"

// DefaultThreshold is the openness ratio above which an eye counts as open.
const DefaultThreshold = 0.18

// State is the binary eye classification of one frame.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// MarshalText lets State appear as "open"/"closed" in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classifier thresholds openness scores. Anything it cannot judge is Closed.
type Classifier struct {
	threshold float64
}

// NewClassifier validates the threshold and builds a classifier.
func NewClassifier(threshold float64) (*Classifier, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("openness threshold must be in (0, 1], got %v", threshold)
	}
	return &Classifier{threshold: threshold}, nil
}

// Threshold returns the configured openness threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify maps a score onto a State. The boundary itself is Closed.
func (c *Classifier) Classify(score Score) State {
	if !score.Valid {
		return Closed
	}
	if score.Value > c.threshold {
		return Open
	}
	return Closed
}

// Landmarks is what the upstream detector hands over for one frame. A nil
// *Landmarks means no face was found.
type Landmarks struct {
	Left  Sample
	Right Sample
}

// Reading is the outcome of classifying one frame.
type Reading struct {
	Score Score
	State State
	// Ambiguous is set when the frame had no face or no usable eye outline.
	Ambiguous bool
}

// Read estimates and classifies a frame in one step.
func (c *Classifier) Read(lm *Landmarks) Reading {
	if lm == nil {
		return Reading{Score: None, State: Closed, Ambiguous: true}
	}
	score := Estimate(lm.Left, lm.Right)
	return Reading{
		Score:     score,
		State:     c.Classify(score),
		Ambiguous: !score.Valid,
	}
}
