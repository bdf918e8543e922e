package tensor

import (
	"errors"
	"testing"
)

func TestFromValuesShapeChecks(t *testing.T) {
	if _, err := FromValues([]float64{1, 2, 3}, 2, 2); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape for short values, got %v", err)
	}
	if _, err := FromValues([]float64{1, 2}, 2, 0); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape for zero dim, got %v", err)
	}
	if _, err := FromValues([]float64{1, 2}); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape for empty shape, got %v", err)
	}
	d, err := FromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("from values failed: %v", err)
	}
	if d.Len() != 6 || d.Rank() != 2 {
		t.Fatalf("unexpected geometry: len=%d rank=%d", d.Len(), d.Rank())
	}
}

func TestFromValuesCopies(t *testing.T) {
	values := []float64{1, 2}
	d, err := FromValues(values, 2)
	if err != nil {
		t.Fatalf("from values failed: %v", err)
	}
	values[0] = 99
	if d.Data()[0] != 1 {
		t.Fatalf("tensor aliased caller slice: %v", d.Data())
	}
}

func TestAxisIndex(t *testing.T) {
	// Shape (2, 3): rows of 3, flat offset i maps to row i/3, column i%3.
	d, err := FromValues([]float64{0, 1, 2, 3, 4, 5}, 2, 3)
	if err != nil {
		t.Fatalf("from values failed: %v", err)
	}
	for flat := 0; flat < 6; flat++ {
		if got := d.AxisIndex(flat, 0); got != flat/3 {
			t.Fatalf("axis 0 index at %d: got %d want %d", flat, got, flat/3)
		}
		if got := d.AxisIndex(flat, 1); got != flat%3 {
			t.Fatalf("axis 1 index at %d: got %d want %d", flat, got, flat%3)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	d, err := New(2, 2)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	c := d.Clone()
	c.Data()[0] = 7
	if d.Data()[0] != 0 {
		t.Fatalf("clone shares data with original")
	}
	if !d.SameShape(c) {
		t.Fatalf("clone shape differs")
	}
}

func TestDimRange(t *testing.T) {
	d, err := New(4, 2)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if dim, err := d.Dim(0); err != nil || dim != 4 {
		t.Fatalf("dim 0: got %d err=%v", dim, err)
	}
	if _, err := d.Dim(2); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape for axis 2, got %v", err)
	}
	if _, err := d.Dim(-1); !errors.Is(err, ErrBadShape) {
		t.Fatalf("expected ErrBadShape for axis -1, got %v", err)
	}
}
