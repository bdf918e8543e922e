package prune

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"prunekit/internal/mask"
)

var (
	ErrMethodExists   = errors.New("pruning method already registered")
	ErrMethodNotFound = errors.New("pruning method not found")
)

// MethodSpec names a registered pruning method together with its
// arguments. Axis, Norm and Seed are only read by methods that use them.
type MethodSpec struct {
	Name   string
	Amount mask.Amount
	Axis   int
	Norm   float64
	Seed   int64
}

// Builder constructs a concrete pruning method from a spec.
type Builder func(spec MethodSpec) (mask.Method, error)

var methodRegistry = struct {
	mu sync.RWMutex
	m  map[string]Builder
}{
	m: make(map[string]Builder),
}

func init() {
	initializeBuiltInMethods()
}

func initializeBuiltInMethods() {
	MustRegisterMethod("l1_unstructured", func(spec MethodSpec) (mask.Method, error) {
		return mask.L1Unstructured{Amount: spec.Amount}, nil
	})
	MustRegisterMethod("random_unstructured", func(spec MethodSpec) (mask.Method, error) {
		return mask.RandomUnstructured{
			Amount: spec.Amount,
			Rand:   rand.New(rand.NewSource(spec.Seed)),
		}, nil
	})
	MustRegisterMethod("ln_structured", func(spec MethodSpec) (mask.Method, error) {
		p := spec.Norm
		if p == 0 {
			p = 2
		}
		return mask.LnStructured{Amount: spec.Amount, Axis: spec.Axis, P: p}, nil
	})
	MustRegisterMethod("l1_structured", func(spec MethodSpec) (mask.Method, error) {
		return mask.LnStructured{Amount: spec.Amount, Axis: spec.Axis, P: 1}, nil
	})
}

func RegisterMethod(name string, builder Builder) error {
	if name == "" {
		return errors.New("method name is required")
	}
	if builder == nil {
		return errors.New("method builder is required")
	}

	methodRegistry.mu.Lock()
	defer methodRegistry.mu.Unlock()

	if _, exists := methodRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	methodRegistry.m[name] = builder
	return nil
}

func MustRegisterMethod(name string, builder Builder) {
	if err := RegisterMethod(name, builder); err != nil {
		panic(err)
	}
}

func BuildMethod(spec MethodSpec) (mask.Method, error) {
	methodRegistry.mu.RLock()
	builder, ok := methodRegistry.m[spec.Name]
	methodRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, spec.Name)
	}
	return builder(spec)
}

func ListMethods() []string {
	methodRegistry.mu.RLock()
	defer methodRegistry.mu.RUnlock()

	names := make([]string, 0, len(methodRegistry.m))
	for name := range methodRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetMethodRegistryForTests() {
	methodRegistry.mu.Lock()
	methodRegistry.m = make(map[string]Builder)
	methodRegistry.mu.Unlock()
	initializeBuiltInMethods()
}
