package storage

import (
	"context"
	"sort"
	"sync"

	"prunekit/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	parameters  map[string]model.ParameterState
	reports     map[string]model.SparsityReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.parameters = make(map[string]model.ParameterState)
	s.reports = make(map[string]model.SparsityReport)
	return nil
}

func (s *MemoryStore) SaveParameter(_ context.Context, state model.ParameterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parameters[state.Name] = copyParameterState(state)
	return nil
}

func (s *MemoryStore) GetParameter(_ context.Context, name string) (model.ParameterState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.parameters[name]
	if !ok {
		return model.ParameterState{}, false, nil
	}
	return copyParameterState(state), true, nil
}

func (s *MemoryStore) ListParameters(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.parameters))
	for name := range s.parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) DeleteParameter(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.parameters, name)
	return nil
}

func (s *MemoryStore) SaveSparsityReport(_ context.Context, id string, report model.SparsityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := report
	copied.Parameters = append([]model.ParameterSparsity(nil), report.Parameters...)
	s.reports[id] = copied
	return nil
}

func (s *MemoryStore) GetSparsityReport(_ context.Context, id string) (model.SparsityReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return model.SparsityReport{}, false, nil
	}
	copied := report
	copied.Parameters = append([]model.ParameterSparsity(nil), report.Parameters...)
	return copied, true, nil
}

func copyParameterState(state model.ParameterState) model.ParameterState {
	copied := state
	copied.Shape = append([]int(nil), state.Shape...)
	copied.Value = append([]float64(nil), state.Value...)
	copied.Snapshot = append([]float64(nil), state.Snapshot...)
	copied.Mask = append([]uint8(nil), state.Mask...)
	copied.History = append([]model.PruneStep(nil), state.History...)
	copied.StepMasks = nil
	for _, m := range state.StepMasks {
		copied.StepMasks = append(copied.StepMasks, append([]uint8(nil), m...))
	}
	return copied
}
