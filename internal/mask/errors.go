package mask

import "errors"

var (
	ErrInvalidAmount  = errors.New("invalid pruning amount")
	ErrShapeMismatch  = errors.New("mask shape mismatch")
	ErrAxisOutOfRange = errors.New("axis out of range")
	ErrInvalidNorm    = errors.New("invalid norm order")
	ErrNoScore        = errors.New("score function is required")
	ErrNoRand         = errors.New("random source is required")
)
