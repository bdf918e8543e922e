// Package prune manages the pruning lifecycle of a set of named
// parameters on top of the mask composition engine: snapshot and mask
// bookkeeping, iterative application of techniques, global pruning across
// parameters, history verification, sparsity reporting and finalization.
package prune

import (
	"errors"
	"fmt"

	"prunekit/internal/mask"
	"prunekit/internal/model"
	"prunekit/internal/tensor"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// GlobalMethodName labels global pruning steps in parameter histories.
const GlobalMethodName = "global_unstructured"

var (
	ErrParameterExists   = errors.New("parameter already exists")
	ErrParameterNotFound = errors.New("parameter not found")
	ErrNotPruned         = errors.New("parameter has no pruning state")
	ErrGlobalMethod      = errors.New("global methods must be applied through ApplyGlobal")
)

// Parameter is one named tensor under pruning management. Before the
// first pruning call it holds only a live value; afterwards it carries the
// pre-pruning snapshot and the cumulative mask, and the live value is
// always snapshot masked by the cumulative mask.
type Parameter struct {
	name      string
	value     *tensor.Dense
	snapshot  *tensor.Dense
	mask      mask.Mask
	history   []model.PruneStep
	stepMasks []mask.Mask
	finalized bool
}

func (p *Parameter) Name() string { return p.name }

func (p *Parameter) Shape() []int { return p.value.Shape() }

// Value returns a copy of the live (pruned) values.
func (p *Parameter) Value() []float64 {
	return append([]float64(nil), p.value.Data()...)
}

// Snapshot returns a copy of the pre-pruning values, or nil when the
// parameter carries no pruning state.
func (p *Parameter) Snapshot() []float64 {
	if p.snapshot == nil {
		return nil
	}
	return append([]float64(nil), p.snapshot.Data()...)
}

// Mask returns a copy of the cumulative mask, or nil when the parameter
// carries no pruning state.
func (p *Parameter) Mask() mask.Mask {
	if p.mask == nil {
		return nil
	}
	return p.mask.Clone()
}

func (p *Parameter) Pruned() bool { return p.mask != nil }

func (p *Parameter) Finalized() bool { return p.finalized }

func (p *Parameter) History() []model.PruneStep {
	return append([]model.PruneStep(nil), p.history...)
}

// ensureState creates the snapshot and all-ones mask on the first pruning
// call. Pruning after finalize starts a fresh snapshot from the already
// pruned values.
func (p *Parameter) ensureState() {
	if p.mask != nil {
		return
	}
	p.snapshot = p.value.Clone()
	p.mask = mask.Ones(p.value.Len())
	p.finalized = false
}

func (p *Parameter) recomputeView() error {
	view, err := p.mask.Apply(p.snapshot.Data())
	if err != nil {
		return err
	}
	copy(p.value.Data(), view)
	return nil
}

// Set is an ordered collection of named parameters. It is not internally
// locked: callers that mutate a Set while anything else reads it (a
// concurrent forward pass, for instance) must synchronize externally.
type Set struct {
	params map[string]*Parameter
	order  []string
}

func NewSet() *Set {
	return &Set{params: make(map[string]*Parameter)}
}

// Add registers a parameter with its initial values. Names are unique.
func (s *Set) Add(name string, values []float64, shape ...int) error {
	if name == "" {
		return errors.New("parameter name is required")
	}
	if _, exists := s.params[name]; exists {
		return fmt.Errorf("%w: %s", ErrParameterExists, name)
	}
	value, err := tensor.FromValues(values, shape...)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	s.params[name] = &Parameter{name: name, value: value}
	s.order = append(s.order, name)
	return nil
}

func (s *Set) Get(name string) (*Parameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Names returns parameter names in insertion order.
func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Outcome reports what one pruning call changed.
type Outcome struct {
	NewlyPruned int
	Clipped     bool
}

// Apply runs one pruning method against a parameter, combining the
// method's mask with the cumulative one. The step record's identifying
// fields (method name, arguments) come from the caller; counters are
// filled in here.
func (s *Set) Apply(paramName string, method mask.Method, step model.PruneStep) (Outcome, error) {
	p, ok := s.params[paramName]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrParameterNotFound, paramName)
	}
	if method == nil {
		return Outcome{}, errors.New("pruning method is required")
	}
	if method.Category() == mask.CategoryGlobal {
		return Outcome{}, ErrGlobalMethod
	}

	p.ensureState()
	res, err := method.ComputeMask(p.snapshot, p.mask)
	if err != nil {
		return Outcome{}, fmt.Errorf("parameter %s: %w", paramName, err)
	}

	return s.commit(p, res.Mask, res.Clipped, step)
}

// ApplyNamed resolves a registered method by name and applies it.
func (s *Set) ApplyNamed(paramName string, spec MethodSpec) (Outcome, error) {
	method, err := BuildMethod(spec)
	if err != nil {
		return Outcome{}, err
	}
	step := model.PruneStep{
		Method:     spec.Name,
		Amount:     spec.Amount.Value(),
		Fractional: spec.Amount.Fractional(),
		Axis:       spec.Axis,
		Norm:       spec.Norm,
		Seed:       spec.Seed,
	}
	return s.Apply(paramName, method, step)
}

// commit folds a newly computed mask into the parameter: AND with the
// cumulative mask (so a method can never resurrect a pruned entry),
// recompute the live view, append the history record.
func (s *Set) commit(p *Parameter, computed mask.Mask, clipped bool, step model.PruneStep) (Outcome, error) {
	next, err := p.mask.And(computed)
	if err != nil {
		return Outcome{}, fmt.Errorf("parameter %s: %w", p.name, err)
	}
	newly := p.mask.ActiveCount() - next.ActiveCount()
	p.mask = next
	if err := p.recomputeView(); err != nil {
		return Outcome{}, fmt.Errorf("parameter %s: %w", p.name, err)
	}

	step.NewlyPruned = newly
	step.Clipped = clipped
	p.history = append(p.history, step)
	p.stepMasks = append(p.stepMasks, computed.Clone())
	return Outcome{NewlyPruned: newly, Clipped: clipped}, nil
}

// GlobalOutcome reports a global pruning call: the exact pool-wide count
// and its distribution over the parameters.
type GlobalOutcome struct {
	Pruned       int
	Clipped      bool
	PerParameter map[string]int
}

// ApplyGlobal pools the active entries of the named parameters and prunes
// the lowest-scoring amount across the whole pool.
func (s *Set) ApplyGlobal(names []string, amount mask.Amount, score mask.ScoreFunc) (GlobalOutcome, error) {
	if len(names) == 0 {
		return GlobalOutcome{}, errors.New("no parameters named for global pruning")
	}

	params := make([]*Parameter, 0, len(names))
	pool := make([]mask.GlobalParam, 0, len(names))
	for _, name := range names {
		p, ok := s.params[name]
		if !ok {
			return GlobalOutcome{}, fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}
		p.ensureState()
		params = append(params, p)
		pool = append(pool, mask.GlobalParam{Name: name, Snapshot: p.snapshot, Mask: p.mask})
	}

	res, err := mask.Global(pool, amount, score)
	if err != nil {
		return GlobalOutcome{}, err
	}

	out := GlobalOutcome{Pruned: res.Pruned, Clipped: res.Clipped, PerParameter: make(map[string]int, len(params))}
	for i, p := range params {
		step := model.PruneStep{
			Method:     GlobalMethodName,
			Amount:     amount.Value(),
			Fractional: amount.Fractional(),
		}
		if _, err := s.commit(p, res.Results[i].Mask, res.Clipped, step); err != nil {
			return GlobalOutcome{}, err
		}
		out.PerParameter[p.name] = res.Results[i].Pruned
	}
	return out, nil
}

// Finalize makes the pruned state permanent: the live value keeps the
// masked snapshot, and snapshot, mask and history are discarded.
// Finalizing an already finalized parameter is a no-op.
func (s *Set) Finalize(name string) error {
	p, ok := s.params[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	if p.finalized {
		return nil
	}
	if p.mask == nil {
		return fmt.Errorf("%w: %s", ErrNotPruned, name)
	}
	if err := p.recomputeView(); err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	p.snapshot = nil
	p.mask = nil
	p.history = nil
	p.stepMasks = nil
	p.finalized = true
	return nil
}

// HistoryConsistent recomputes the cumulative mask by folding AND over the
// per-step masks and reports whether it matches the maintained one.
func (s *Set) HistoryConsistent(name string) (bool, error) {
	p, ok := s.params[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	if len(p.stepMasks) == 0 {
		return true, nil
	}
	composed, err := mask.ComposeSequential(p.stepMasks)
	if err != nil {
		return false, err
	}
	if len(composed) != len(p.mask) {
		return false, nil
	}
	for i := range composed {
		if composed[i] != p.mask[i] {
			return false, nil
		}
	}
	return true, nil
}

// Sparsity reports zero fractions over the live values, parameter by
// parameter and pooled.
func (s *Set) Sparsity() model.SparsityReport {
	report := model.SparsityReport{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
	}
	for _, name := range s.order {
		p := s.params[name]
		zeros := 0
		for _, v := range p.value.Data() {
			if v == 0 {
				zeros++
			}
		}
		total := p.value.Len()
		report.Parameters = append(report.Parameters, model.ParameterSparsity{
			Name:     name,
			Zeros:    zeros,
			Total:    total,
			Sparsity: float64(zeros) / float64(total),
		})
		report.Zeros += zeros
		report.Total += total
	}
	if report.Total > 0 {
		report.Global = float64(report.Zeros) / float64(report.Total)
	}
	return report
}

// States exports the full pruning state of every parameter, in insertion
// order, for persistence.
func (s *Set) States() []model.ParameterState {
	states := make([]model.ParameterState, 0, len(s.order))
	for _, name := range s.order {
		states = append(states, s.params[name].state())
	}
	return states
}

func (p *Parameter) state() model.ParameterState {
	state := model.ParameterState{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		Name:      p.name,
		Shape:     p.value.Shape(),
		Value:     append([]float64(nil), p.value.Data()...),
		Snapshot:  p.Snapshot(),
		History:   p.History(),
		Finalized: p.finalized,
	}
	if p.mask != nil {
		state.Mask = append([]uint8(nil), p.mask...)
	}
	for _, m := range p.stepMasks {
		state.StepMasks = append(state.StepMasks, append([]uint8(nil), m...))
	}
	return state
}

// NewSetFromStates rebuilds a Set from exported parameter states. A
// restored set behaves identically to the one that produced the states.
func NewSetFromStates(states []model.ParameterState) (*Set, error) {
	s := NewSet()
	for _, state := range states {
		if err := s.Add(state.Name, state.Value, state.Shape...); err != nil {
			return nil, err
		}
		p := s.params[state.Name]
		p.finalized = state.Finalized
		if len(state.Mask) == 0 {
			continue
		}
		if len(state.Mask) != p.value.Len() || len(state.Snapshot) != p.value.Len() {
			return nil, fmt.Errorf("parameter %s: %w", state.Name, mask.ErrShapeMismatch)
		}
		snapshot, err := tensor.FromValues(state.Snapshot, state.Shape...)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", state.Name, err)
		}
		p.snapshot = snapshot
		p.mask = mask.Mask(append([]uint8(nil), state.Mask...))
		p.history = append([]model.PruneStep(nil), state.History...)
		for _, m := range state.StepMasks {
			p.stepMasks = append(p.stepMasks, mask.Mask(append([]uint8(nil), m...)))
		}
		if err := p.recomputeView(); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", state.Name, err)
		}
	}
	return s, nil
}
