package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ParameterState is the full pruning state of one named parameter: its
// live (pruned) value, the pre-pruning snapshot, the cumulative mask, and
// the applied-step history. Snapshot, Mask, StepMasks and History are empty
// for parameters that were never pruned or have been finalized.
type ParameterState struct {
	VersionedRecord
	Name      string      `json:"name"`
	Shape     []int       `json:"shape"`
	Value     []float64   `json:"value"`
	Snapshot  []float64   `json:"snapshot,omitempty"`
	Mask      []uint8     `json:"mask,omitempty"`
	History   []PruneStep `json:"history,omitempty"`
	StepMasks [][]uint8   `json:"step_masks,omitempty"`
	Finalized bool        `json:"finalized,omitempty"`
}

// PruneStep records one applied pruning call. It is append-only and used
// for introspection; recomputation of the pruned view uses only the
// current mask and snapshot.
type PruneStep struct {
	Method      string  `json:"method"`
	Amount      float64 `json:"amount"`
	Fractional  bool    `json:"fractional"`
	Axis        int     `json:"axis,omitempty"`
	Norm        float64 `json:"norm,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
	NewlyPruned int     `json:"newly_pruned"`
	Clipped     bool    `json:"clipped,omitempty"`
}

// ParameterSparsity is one parameter's share of zero entries.
type ParameterSparsity struct {
	Name     string  `json:"name"`
	Zeros    int     `json:"zeros"`
	Total    int     `json:"total"`
	Sparsity float64 `json:"sparsity"`
}

// SparsityReport summarizes zero fractions per parameter and globally.
type SparsityReport struct {
	VersionedRecord
	Parameters []ParameterSparsity `json:"parameters"`
	Zeros      int                 `json:"zeros"`
	Total      int                 `json:"total"`
	Global     float64             `json:"global"`
}
