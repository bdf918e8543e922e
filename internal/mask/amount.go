package mask

import (
	"fmt"
	"math"
)

// Amount is how much to prune: either a fraction of the still-active
// entries (or slices), or an absolute count.
type Amount struct {
	fraction   float64
	count      int
	fractional bool
}

// Fraction requests pruning of a share of the active set, in [0, 1].
func Fraction(v float64) Amount {
	return Amount{fraction: v, fractional: true}
}

// Count requests pruning of an absolute number of entries or slices.
func Count(n int) Amount {
	return Amount{count: n}
}

func (a Amount) Fractional() bool { return a.fractional }

func (a Amount) Validate() error {
	if a.fractional {
		if math.IsNaN(a.fraction) || a.fraction < 0 || a.fraction > 1 {
			return fmt.Errorf("%w: fraction %v not in [0,1]", ErrInvalidAmount, a.fraction)
		}
		return nil
	}
	if a.count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidAmount, a.count)
	}
	return nil
}

// Resolve turns the amount into a concrete number of entries to prune out
// of active. An absolute count larger than the active set is clipped;
// callers must surface the clip as a warning.
func (a Amount) Resolve(active int) (k int, clipped bool) {
	if a.fractional {
		return int(math.Round(a.fraction * float64(active))), false
	}
	if a.count > active {
		return active, true
	}
	return a.count, false
}

func (a Amount) String() string {
	if a.fractional {
		return fmt.Sprintf("%g of active", a.fraction)
	}
	return fmt.Sprintf("%d", a.count)
}

// Value reports the raw amount for record keeping: the fraction when
// fractional, else the count.
func (a Amount) Value() float64 {
	if a.fractional {
		return a.fraction
	}
	return float64(a.count)
}

// FromValue rebuilds an Amount from its recorded Value / Fractional pair.
func FromValue(v float64, fractional bool) Amount {
	if fractional {
		return Fraction(v)
	}
	return Count(int(v))
}
