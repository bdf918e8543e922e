package mask

import "prunekit/internal/tensor"

// Category tags how a pruning technique selects what to remove. It decides
// how a technique's masks combine when pruning is applied iteratively.
type Category int

const (
	CategoryUnstructured Category = iota
	CategoryStructured
	CategoryGlobal
)

func (c Category) String() string {
	switch c {
	case CategoryUnstructured:
		return "unstructured"
	case CategoryStructured:
		return "structured"
	case CategoryGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Result is the outcome of one mask computation. Pruned counts entries
// newly zeroed relative to the default mask; Clipped is set when an
// absolute amount exceeded the active set and was reduced to it.
type Result struct {
	Mask         Mask
	Pruned       int
	PrunedSlices int
	Clipped      bool
}

// Method is a pruning technique. ComputeMask receives the parameter's
// value snapshot and the current cumulative mask (all ones on the first
// call) and returns the next mask. Implementations must honor the
// iteration contract: never set a zero entry of def back to one, and
// select only among entries still active under def. The surrounding
// composition machinery (history, snapshots, finalize) is shared across
// categories and must not be reimplemented per technique.
type Method interface {
	Category() Category
	ComputeMask(t *tensor.Dense, def Mask) (Result, error)
}
