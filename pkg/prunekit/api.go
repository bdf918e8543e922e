// Package prunekit is the public client for pruning stored model
// parameters: import tensors, apply local or global pruning techniques,
// inspect histories and sparsity, finalize, and export the full pruning
// state.
package prunekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"prunekit/internal/mask"
	"prunekit/internal/model"
	"prunekit/internal/prune"
	"prunekit/internal/storage"
)

const defaultDBPath = "prunekit.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	initialized bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// ParameterSpec is one tensor to put under pruning management.
type ParameterSpec struct {
	Name   string
	Shape  []int
	Values []float64
}

// Import registers parameters with their initial values. Importing a name
// that already exists fails rather than overwriting pruning state.
func (c *Client) Import(ctx context.Context, specs []ParameterSpec) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	for _, spec := range specs {
		if _, ok, err := c.store.GetParameter(ctx, spec.Name); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("parameter already imported: %s", spec.Name)
		}

		set := prune.NewSet()
		if err := set.Add(spec.Name, spec.Values, spec.Shape...); err != nil {
			return err
		}
		if err := c.saveSet(ctx, set); err != nil {
			return err
		}
	}
	return nil
}

// PruneRequest applies one named technique to one parameter.
type PruneRequest struct {
	Parameter string
	Method    string
	Amount    float64
	// Absolute treats Amount as an entry (or slice) count instead of a
	// fraction of the active set.
	Absolute bool
	Axis     int
	Norm     float64
	Seed     int64
}

// PruneSummary reports what one pruning call changed.
type PruneSummary struct {
	Parameter   string
	Method      string
	NewlyPruned int
	Clipped     bool
	Sparsity    float64
}

func (r PruneRequest) amount() mask.Amount {
	if r.Absolute {
		return mask.Count(int(r.Amount))
	}
	return mask.Fraction(r.Amount)
}

func (c *Client) Prune(ctx context.Context, req PruneRequest) (PruneSummary, error) {
	if req.Parameter == "" {
		return PruneSummary{}, errors.New("parameter name is required")
	}
	if req.Method == "" {
		return PruneSummary{}, errors.New("method name is required")
	}

	set, err := c.loadSet(ctx, []string{req.Parameter})
	if err != nil {
		return PruneSummary{}, err
	}

	out, err := set.ApplyNamed(req.Parameter, prune.MethodSpec{
		Name:   req.Method,
		Amount: req.amount(),
		Axis:   req.Axis,
		Norm:   req.Norm,
		Seed:   req.Seed,
	})
	if err != nil {
		return PruneSummary{}, err
	}
	if out.Clipped {
		c.logger.Warn("pruning amount exceeded active set; clipped",
			"parameter", req.Parameter,
			"method", req.Method,
			"amount", req.Amount)
	}

	if err := c.saveSet(ctx, set); err != nil {
		return PruneSummary{}, err
	}
	p, _ := set.Get(req.Parameter)
	return PruneSummary{
		Parameter:   req.Parameter,
		Method:      req.Method,
		NewlyPruned: out.NewlyPruned,
		Clipped:     out.Clipped,
		Sparsity:    p.Mask().Sparsity(),
	}, nil
}

// GlobalRequest prunes across parameters by pooled rank. Parameters left
// empty means every stored parameter.
type GlobalRequest struct {
	Parameters []string
	Amount     float64
	Absolute   bool
}

// GlobalSummary reports a global pruning call and its per-parameter
// distribution.
type GlobalSummary struct {
	Pruned       int
	Clipped      bool
	PerParameter map[string]int
}

func (c *Client) PruneGlobal(ctx context.Context, req GlobalRequest) (GlobalSummary, error) {
	names := req.Parameters
	if len(names) == 0 {
		var err error
		if err = c.Init(ctx); err != nil {
			return GlobalSummary{}, err
		}
		names, err = c.store.ListParameters(ctx)
		if err != nil {
			return GlobalSummary{}, err
		}
	}
	if len(names) == 0 {
		return GlobalSummary{}, errors.New("no parameters to prune")
	}

	set, err := c.loadSet(ctx, names)
	if err != nil {
		return GlobalSummary{}, err
	}

	amount := mask.Fraction(req.Amount)
	if req.Absolute {
		amount = mask.Count(int(req.Amount))
	}
	out, err := set.ApplyGlobal(names, amount, mask.Magnitude)
	if err != nil {
		return GlobalSummary{}, err
	}
	if out.Clipped {
		c.logger.Warn("global pruning amount exceeded active pool; clipped",
			"amount", req.Amount)
	}

	if err := c.saveSet(ctx, set); err != nil {
		return GlobalSummary{}, err
	}
	return GlobalSummary{Pruned: out.Pruned, Clipped: out.Clipped, PerParameter: out.PerParameter}, nil
}

// Sparsity computes the current zero fractions over all stored parameters
// and persists the report under the given id when it is non-empty.
func (c *Client) Sparsity(ctx context.Context, reportID string) (model.SparsityReport, error) {
	if err := c.Init(ctx); err != nil {
		return model.SparsityReport{}, err
	}
	names, err := c.store.ListParameters(ctx)
	if err != nil {
		return model.SparsityReport{}, err
	}
	set, err := c.loadSet(ctx, names)
	if err != nil {
		return model.SparsityReport{}, err
	}
	report := set.Sparsity()
	if reportID != "" {
		if err := c.store.SaveSparsityReport(ctx, reportID, report); err != nil {
			return model.SparsityReport{}, err
		}
	}
	return report, nil
}

// History returns the applied pruning steps of one parameter.
func (c *Client) History(ctx context.Context, name string) ([]model.PruneStep, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	state, ok, err := c.store.GetParameter(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", prune.ErrParameterNotFound, name)
	}
	return state.History, nil
}

// Finalize makes pruning permanent for the named parameter. Calling it
// again on a finalized parameter is a no-op.
func (c *Client) Finalize(ctx context.Context, name string) error {
	set, err := c.loadSet(ctx, []string{name})
	if err != nil {
		return err
	}
	if err := set.Finalize(name); err != nil {
		return err
	}
	return c.saveSet(ctx, set)
}

// FinalizeAll finalizes every stored parameter that carries pruning state.
func (c *Client) FinalizeAll(ctx context.Context) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	names, err := c.store.ListParameters(ctx)
	if err != nil {
		return err
	}
	set, err := c.loadSet(ctx, names)
	if err != nil {
		return err
	}
	for _, name := range names {
		p, _ := set.Get(name)
		if !p.Pruned() {
			continue
		}
		if err := set.Finalize(name); err != nil {
			return err
		}
	}
	return c.saveSet(ctx, set)
}

// Export returns the full pruning state of every stored parameter as a
// name-keyed mapping, the contract an external persistence layer needs to
// save and restore pruning without this engine.
func (c *Client) Export(ctx context.Context) (map[string]model.ParameterState, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	names, err := c.store.ListParameters(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ParameterState, len(names))
	for _, name := range names {
		state, ok, err := c.store.GetParameter(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[name] = state
	}
	return out, nil
}

// Methods lists the registered pruning techniques.
func (c *Client) Methods() []string {
	return prune.ListMethods()
}

func (c *Client) loadSet(ctx context.Context, names []string) (*prune.Set, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	states := make([]model.ParameterState, 0, len(names))
	for _, name := range names {
		state, ok, err := c.store.GetParameter(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", prune.ErrParameterNotFound, name)
		}
		states = append(states, state)
	}
	return prune.NewSetFromStates(states)
}

func (c *Client) saveSet(ctx context.Context, set *prune.Set) error {
	for _, state := range set.States() {
		if err := c.store.SaveParameter(ctx, state); err != nil {
			return err
		}
	}
	return nil
}
