package mask

import (
	"fmt"
	"math"
	"sort"

	"prunekit/internal/tensor"
)

// Structured zeroes whole slices along axis: the k active slices with the
// lowest Lp norm of their current masked values. A slice is active while
// any of its entries is still unpruned; fully-zeroed slices are not
// candidates. Equal norms resolve to the lowest slice index.
func Structured(t *tensor.Dense, cur Mask, amount Amount, axis int, p float64) (Result, error) {
	if err := checkCongruent(t, cur); err != nil {
		return Result{}, err
	}
	if err := amount.Validate(); err != nil {
		return Result{}, err
	}
	if axis < 0 || axis >= t.Rank() {
		return Result{}, fmt.Errorf("%w: axis %d for rank %d", ErrAxisOutOfRange, axis, t.Rank())
	}
	if math.IsNaN(p) || p <= 0 {
		return Result{}, fmt.Errorf("%w: p=%v", ErrInvalidNorm, p)
	}

	dim, err := t.Dim(axis)
	if err != nil {
		return Result{}, fmt.Errorf("%w: axis %d", ErrAxisOutOfRange, axis)
	}

	// One pass over the flat data: per-slice norm accumulator over masked
	// values, and per-slice activity.
	data := t.Data()
	sums := make([]float64, dim)
	liveEntries := make([]int, dim)
	for i, v := range data {
		if cur[i] == 0 {
			continue
		}
		slice := t.AxisIndex(i, axis)
		sums[slice] += math.Pow(math.Abs(v), p)
		liveEntries[slice]++
	}

	activeSlices := make([]int, 0, dim)
	for slice := 0; slice < dim; slice++ {
		if liveEntries[slice] > 0 {
			activeSlices = append(activeSlices, slice)
		}
	}

	k, clipped := amount.Resolve(len(activeSlices))
	sort.SliceStable(activeSlices, func(a, b int) bool {
		return norm(sums[activeSlices[a]], p) < norm(sums[activeSlices[b]], p)
	})

	doomed := make(map[int]bool, k)
	pruned := 0
	for _, slice := range activeSlices[:k] {
		doomed[slice] = true
		pruned += liveEntries[slice]
	}

	next := cur.Clone()
	if len(doomed) > 0 {
		for i := range next {
			if next[i] != 0 && doomed[t.AxisIndex(i, axis)] {
				next[i] = 0
			}
		}
	}
	return Result{Mask: next, Pruned: pruned, PrunedSlices: k, Clipped: clipped}, nil
}

func norm(powSum, p float64) float64 {
	return math.Pow(powSum, 1/p)
}

// LnStructured prunes whole slices along Axis by their Lp norm.
type LnStructured struct {
	Amount Amount
	Axis   int
	P      float64
}

func (LnStructured) Category() Category { return CategoryStructured }

func (m LnStructured) ComputeMask(t *tensor.Dense, def Mask) (Result, error) {
	return Structured(t, def, m.Amount, m.Axis, m.P)
}
