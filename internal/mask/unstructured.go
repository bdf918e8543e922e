package mask

import (
	"math/rand"
	"sort"

	"prunekit/internal/tensor"
)

// Unstructured zeroes the k lowest-scoring still-active entries of the
// tensor, where k derives from amount over the active count. Entries
// already pruned under cur are never rescored. Ties and equal scores
// resolve to the lowest flat index.
func Unstructured(t *tensor.Dense, cur Mask, amount Amount, score ScoreFunc) (Result, error) {
	if err := checkCongruent(t, cur); err != nil {
		return Result{}, err
	}
	if err := amount.Validate(); err != nil {
		return Result{}, err
	}
	if score == nil {
		return Result{}, ErrNoScore
	}

	data := t.Data()
	active := make([]int, 0, len(cur))
	for i, keep := range cur {
		if keep != 0 {
			active = append(active, i)
		}
	}

	k, clipped := amount.Resolve(len(active))
	sort.SliceStable(active, func(a, b int) bool {
		return score(data[active[a]]) < score(data[active[b]])
	})

	next := cur.Clone()
	for _, idx := range active[:k] {
		next[idx] = 0
	}
	return Result{Mask: next, Pruned: k, Clipped: clipped}, nil
}

// L1Unstructured prunes the entries with the smallest absolute value.
type L1Unstructured struct {
	Amount Amount
}

func (L1Unstructured) Category() Category { return CategoryUnstructured }

func (m L1Unstructured) ComputeMask(t *tensor.Dense, def Mask) (Result, error) {
	return Unstructured(t, def, m.Amount, Magnitude)
}

// RandomUnstructured prunes uniformly at random among the active entries.
// The selection is deterministic for a given source.
type RandomUnstructured struct {
	Amount Amount
	Rand   *rand.Rand
}

func (RandomUnstructured) Category() Category { return CategoryUnstructured }

func (m RandomUnstructured) ComputeMask(t *tensor.Dense, def Mask) (Result, error) {
	if err := checkCongruent(t, def); err != nil {
		return Result{}, err
	}
	if err := m.Amount.Validate(); err != nil {
		return Result{}, err
	}
	if m.Rand == nil {
		return Result{}, ErrNoRand
	}

	active := make([]int, 0, len(def))
	for i, keep := range def {
		if keep != 0 {
			active = append(active, i)
		}
	}
	k, clipped := m.Amount.Resolve(len(active))
	m.Rand.Shuffle(len(active), func(a, b int) {
		active[a], active[b] = active[b], active[a]
	})

	next := def.Clone()
	for _, idx := range active[:k] {
		next[idx] = 0
	}
	return Result{Mask: next, Pruned: k, Clipped: clipped}, nil
}
