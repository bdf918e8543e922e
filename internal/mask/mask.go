// Package mask implements binary pruning masks over dense tensors and the
// composition rules for applying pruning techniques iteratively: a position
// zeroed once stays zero, and each new technique only ever acts on the
// still-active positions.
package mask

import (
	"fmt"
	"math"

	"prunekit/internal/tensor"
)

// Mask is a flat binary mask congruent with a tensor's data: 1 keeps the
// entry, 0 prunes it.
type Mask []uint8

// Ones returns an all-keep mask of n entries.
func Ones(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = 1
	}
	return m
}

func (m Mask) Clone() Mask {
	return append(Mask(nil), m...)
}

// ActiveCount reports the number of still-unpruned entries.
func (m Mask) ActiveCount() int {
	active := 0
	for _, v := range m {
		if v != 0 {
			active++
		}
	}
	return active
}

// Sparsity reports the pruned fraction. An empty mask has sparsity 0.
func (m Mask) Sparsity() float64 {
	if len(m) == 0 {
		return 0
	}
	return float64(len(m)-m.ActiveCount()) / float64(len(m))
}

// And returns the elementwise AND of the two masks.
func (m Mask) And(other Mask) (Mask, error) {
	if len(m) != len(other) {
		return nil, fmt.Errorf("%w: %d vs %d entries", ErrShapeMismatch, len(m), len(other))
	}
	out := make(Mask, len(m))
	for i := range m {
		if m[i] != 0 && other[i] != 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// ComposeSequential folds elementwise AND over an ordered mask history.
// Because pruning only ever zeroes entries, this equals the incrementally
// maintained cumulative mask.
func ComposeSequential(history []Mask) (Mask, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrShapeMismatch)
	}
	out := history[0].Clone()
	for _, m := range history[1:] {
		next, err := out.And(m)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// Apply writes snapshot masked by m into a fresh slice.
func (m Mask) Apply(snapshot []float64) ([]float64, error) {
	if len(m) != len(snapshot) {
		return nil, fmt.Errorf("%w: mask has %d entries, snapshot %d", ErrShapeMismatch, len(m), len(snapshot))
	}
	out := make([]float64, len(snapshot))
	for i, v := range snapshot {
		if m[i] != 0 {
			out[i] = v
		}
	}
	return out, nil
}

func checkCongruent(t *tensor.Dense, m Mask) error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor", ErrShapeMismatch)
	}
	if t.Len() != len(m) {
		return fmt.Errorf("%w: tensor has %d entries, mask %d", ErrShapeMismatch, t.Len(), len(m))
	}
	return nil
}

// ScoreFunc maps an entry value to an importance score; lower scores are
// pruned first.
type ScoreFunc func(v float64) float64

// Magnitude scores entries by absolute value, the usual L1 criterion.
func Magnitude(v float64) float64 { return math.Abs(v) }
