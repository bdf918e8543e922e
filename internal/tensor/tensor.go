package tensor

import (
	"errors"
	"fmt"
)

var ErrBadShape = errors.New("invalid tensor shape")

// Dense is a row-major multi-dimensional array of float64 values.
type Dense struct {
	shape   []int
	strides []int
	data    []float64
}

func New(shape ...int) (*Dense, error) {
	n, strides, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	return &Dense{
		shape:   append([]int(nil), shape...),
		strides: strides,
		data:    make([]float64, n),
	}, nil
}

// FromValues wraps values in a tensor of the given shape. The slice is
// copied, not aliased.
func FromValues(values []float64, shape ...int) (*Dense, error) {
	n, strides, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(values) != n {
		return nil, fmt.Errorf("%w: %d values for shape %v (want %d)", ErrBadShape, len(values), shape, n)
	}
	return &Dense{
		shape:   append([]int(nil), shape...),
		strides: strides,
		data:    append([]float64(nil), values...),
	}, nil
}

func checkShape(shape []int) (int, []int, error) {
	if len(shape) == 0 {
		return 0, nil, fmt.Errorf("%w: no dimensions", ErrBadShape)
	}
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, nil, fmt.Errorf("%w: dimension %d", ErrBadShape, dim)
		}
		n *= dim
	}
	strides := make([]int, len(shape))
	stride := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= shape[axis]
	}
	return n, strides, nil
}

func (d *Dense) Clone() *Dense {
	return &Dense{
		shape:   append([]int(nil), d.shape...),
		strides: append([]int(nil), d.strides...),
		data:    append([]float64(nil), d.data...),
	}
}

func (d *Dense) Len() int { return len(d.data) }

func (d *Dense) Rank() int { return len(d.shape) }

func (d *Dense) Shape() []int { return append([]int(nil), d.shape...) }

// Data returns the underlying flat slice. Mutations are visible to the
// tensor.
func (d *Dense) Data() []float64 { return d.data }

func (d *Dense) Dim(axis int) (int, error) {
	if axis < 0 || axis >= len(d.shape) {
		return 0, fmt.Errorf("%w: axis %d out of range for rank %d", ErrBadShape, axis, len(d.shape))
	}
	return d.shape[axis], nil
}

// AxisIndex reports the coordinate along axis of the element at flat
// offset. The axis must be in range.
func (d *Dense) AxisIndex(flat, axis int) int {
	return (flat / d.strides[axis]) % d.shape[axis]
}

// SameShape reports whether the two tensors have identical shapes.
func (d *Dense) SameShape(other *Dense) bool {
	if len(d.shape) != len(other.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != other.shape[i] {
			return false
		}
	}
	return true
}
