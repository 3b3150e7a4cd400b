// Package eye turns per-frame eye landmarks into an openness score and an
// open/closed classification. Everything here is pure and safe to call from
// the frame producer goroutine.
package eye

const (
	// MinPoints is the smallest landmark count accepted for one eye.
	MinPoints = 6

	// minHorizontalExtent guards the ratio against degenerate, collapsed eyes.
	minHorizontalExtent = 0.0001
)

// Point is a normalized 2D landmark coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sample is the ordered landmark outline of one eye region.
type Sample []Point

// Score is an eye openness ratio. Valid is false when the score could not be
// determined from the input.
type Score struct {
	Value float64
	Valid bool
}

// None is the undetermined score.
var None = Score{}

// Some wraps a determined score.
func Some(v float64) Score {
	return Score{Value: v, Valid: true}
}

// Openness returns the height/width ratio of a single eye outline.
func Openness(s Sample) Score {
	if len(s) < MinPoints {
		return None
	}

	minX, maxX := s[0].X, s[0].X
	minY, maxY := s[0].Y, s[0].Y
	for _, p := range s[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	horizontal := maxX - minX
	if horizontal <= minHorizontalExtent {
		return None
	}

	return Some((maxY - minY) / horizontal)
}

// Combine averages both eyes when both are determined and otherwise falls
// back to whichever one is.
func Combine(left, right Score) Score {
	switch {
	case left.Valid && right.Valid:
		return Some((left.Value + right.Value) / 2)
	case left.Valid:
		return left
	case right.Valid:
		return right
	default:
		return None
	}
}

// Estimate scores a pair of eye outlines. Either sample may be nil.
func Estimate(left, right Sample) Score {
	return Combine(Openness(left), Openness(right))
}
