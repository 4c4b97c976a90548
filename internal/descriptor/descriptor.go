// Package descriptor implements facial descriptor distance and matching shared
// between the CLI and the web handlers.
package descriptor

import (
	"errors"
	"fmt"
	"math"
)

// Dim is the fixed length of a facial descriptor produced by the detector.
const Dim = 128

// DefaultThreshold is the maximum Euclidean distance at which two descriptors
// are still considered the same person. Stricter than the usual 0.6 because a
// false accept is costlier than a false reject at a bank counter.
const DefaultThreshold = 0.55

// ErrDimensionMismatch means two descriptors of different lengths were compared.
// This is a contract violation, never a recoverable condition.
var ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

// Descriptor is a fixed-length facial feature vector.
type Descriptor []float32

// Distance computes the Euclidean distance between two descriptors.
// Returns ErrDimensionMismatch when the lengths differ.
func Distance(a, b Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
