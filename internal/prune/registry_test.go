package prune

import (
	"errors"
	"testing"

	"prunekit/internal/mask"
	"prunekit/internal/tensor"
)

func TestBuiltInMethods(t *testing.T) {
	names := ListMethods()
	want := []string{"l1_structured", "l1_unstructured", "ln_structured", "random_unstructured"}
	if len(names) != len(want) {
		t.Fatalf("unexpected method list: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("method list not sorted as expected: %v", names)
		}
	}

	if _, err := BuildMethod(MethodSpec{Name: "nope"}); !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("expected ErrMethodNotFound, got %v", err)
	}
}

func TestLnStructuredDefaultsToL2(t *testing.T) {
	method, err := BuildMethod(MethodSpec{Name: "ln_structured", Amount: mask.Count(1), Axis: 0})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ln, ok := method.(mask.LnStructured)
	if !ok {
		t.Fatalf("unexpected method type %T", method)
	}
	if ln.P != 2 {
		t.Fatalf("expected default P=2, got %v", ln.P)
	}
}

func TestRegisterMethodValidation(t *testing.T) {
	defer resetMethodRegistryForTests()

	if err := RegisterMethod("", nil); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := RegisterMethod("custom", nil); err == nil {
		t.Fatal("expected error for nil builder")
	}
	builder := func(spec MethodSpec) (mask.Method, error) {
		return mask.L1Unstructured{Amount: spec.Amount}, nil
	}
	if err := RegisterMethod("custom", builder); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := RegisterMethod("custom", builder); !errors.Is(err, ErrMethodExists) {
		t.Fatalf("expected ErrMethodExists, got %v", err)
	}
	if err := RegisterMethod("l1_unstructured", builder); !errors.Is(err, ErrMethodExists) {
		t.Fatalf("expected ErrMethodExists for built-in, got %v", err)
	}
}

func TestRegisteredCustomMethodUsableByName(t *testing.T) {
	defer resetMethodRegistryForTests()

	MustRegisterMethod("keep_first_only", func(spec MethodSpec) (mask.Method, error) {
		return keepFirstOnly{}, nil
	})

	s := NewSet()
	if err := s.Add("w", []float64{3, 1, 2}, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	out, err := s.ApplyNamed("w", MethodSpec{Name: "keep_first_only"})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if out.NewlyPruned != 2 {
		t.Fatalf("expected 2 pruned, got %d", out.NewlyPruned)
	}
}

type keepFirstOnly struct{}

func (keepFirstOnly) Category() mask.Category { return mask.CategoryUnstructured }

func (keepFirstOnly) ComputeMask(t *tensor.Dense, def mask.Mask) (mask.Result, error) {
	next := def.Clone()
	seen := false
	pruned := 0
	for i, keep := range next {
		if keep == 0 {
			continue
		}
		if seen {
			next[i] = 0
			pruned++
		}
		seen = true
	}
	return mask.Result{Mask: next, Pruned: pruned}, nil
}
