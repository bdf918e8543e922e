package mask

import (
	"fmt"
	"sort"

	"prunekit/internal/tensor"
)

// GlobalParam is one parameter's view into a global pruning pool.
type GlobalParam struct {
	Name     string
	Snapshot *tensor.Dense
	Mask     Mask
}

// GlobalResult carries one updated mask per input parameter, in input
// order, plus pool-wide totals.
type GlobalResult struct {
	Results []Result
	Pruned  int
	Clipped bool
}

type poolEntry struct {
	param int
	flat  int
	score float64
}

// Global pools the active entries of every parameter, scores them
// uniformly, and zeroes the k lowest-scoring entries across the whole
// pool. Exactly k entries are pruned in total; how they distribute over
// the parameters is an emergent result of the ranking, not a per-tensor
// quota. Ties resolve to the earlier parameter, then the lower flat index.
func Global(params []GlobalParam, amount Amount, score ScoreFunc) (GlobalResult, error) {
	if err := amount.Validate(); err != nil {
		return GlobalResult{}, err
	}
	if score == nil {
		return GlobalResult{}, ErrNoScore
	}
	if len(params) == 0 {
		return GlobalResult{}, fmt.Errorf("%w: no parameters to pool", ErrShapeMismatch)
	}

	pool := make([]poolEntry, 0)
	for pi, p := range params {
		if err := checkCongruent(p.Snapshot, p.Mask); err != nil {
			return GlobalResult{}, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		data := p.Snapshot.Data()
		for i, keep := range p.Mask {
			if keep != 0 {
				pool = append(pool, poolEntry{param: pi, flat: i, score: score(data[i])})
			}
		}
	}

	k, clipped := amount.Resolve(len(pool))
	sort.SliceStable(pool, func(a, b int) bool {
		return pool[a].score < pool[b].score
	})

	results := make([]Result, len(params))
	for pi, p := range params {
		results[pi] = Result{Mask: p.Mask.Clone(), Clipped: clipped}
	}
	for _, entry := range pool[:k] {
		results[entry.param].Mask[entry.flat] = 0
		results[entry.param].Pruned++
	}
	return GlobalResult{Results: results, Pruned: k, Clipped: clipped}, nil
}
