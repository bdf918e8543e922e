package storage

import (
	"context"

	"prunekit/internal/model"
)

// Store defines persistence for pruning state: per-parameter snapshots,
// masks and step histories, plus saved sparsity reports.
type Store interface {
	Init(ctx context.Context) error
	SaveParameter(ctx context.Context, state model.ParameterState) error
	GetParameter(ctx context.Context, name string) (model.ParameterState, bool, error)
	ListParameters(ctx context.Context) ([]string, error)
	DeleteParameter(ctx context.Context, name string) error
	SaveSparsityReport(ctx context.Context, id string, report model.SparsityReport) error
	GetSparsityReport(ctx context.Context, id string) (model.SparsityReport, bool, error)
}
