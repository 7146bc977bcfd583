package series

import (
	"fmt"
	"math"

	"goglam/internal/errors"
)

// ValueDomain describes the support a likelihood family imposes on the
// observed metric column.
type ValueDomain int

const (
	// DomainReal admits any finite real value.
	DomainReal ValueDomain = iota
	// DomainPositiveReal admits strictly positive real values.
	DomainPositiveReal
	// DomainNonNegativeInt admits unsigned integer counts.
	DomainNonNegativeInt
	// DomainUnitInterval admits proportions in [0, 1].
	DomainUnitInterval
	// DomainBoundedInt admits unsigned integers up to the per-row capacity.
	DomainBoundedInt
)

func (d ValueDomain) String() string {
	switch d {
	case DomainReal:
		return "real"
	case DomainPositiveReal:
		return "positive real"
	case DomainNonNegativeInt:
		return "non-negative integer"
	case DomainUnitInterval:
		return "unit interval"
	case DomainBoundedInt:
		return "capacity-bounded integer"
	}
	return "unknown"
}

// Validate checks structural invariants: matching column lengths, strictly
// increasing timestamps and finite values. Domain checks against a family's
// support are performed separately by ValidateDomain.
func (s *Series) Validate() error {
	n := s.Len()
	if n == 0 {
		return errors.InvalidInput("series has no observations")
	}
	if len(s.Values) != n {
		return errors.InvalidInput(fmt.Sprintf("series has %d timestamps but %d values", n, len(s.Values)))
	}
	if s.Capacity != nil && len(s.Capacity) != n {
		return errors.InvalidInput(fmt.Sprintf("series has %d timestamps but %d capacity entries", n, len(s.Capacity)))
	}
	for i := 1; i < n; i++ {
		if !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return errors.InvalidInput(fmt.Sprintf("timestamps must be strictly increasing (row %d)", i))
		}
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.InvalidInput(fmt.Sprintf("non-finite value at row %d", i))
		}
	}
	for name, col := range s.Regressors {
		if len(col) != n {
			return errors.InvalidInput(fmt.Sprintf("regressor %q has %d rows, expected %d", name, len(col), n))
		}
	}
	return nil
}

// ValidateDomain checks every observation against the given value domain.
// A mismatch is a usage error and is never silently coerced.
func (s *Series) ValidateDomain(d ValueDomain) error {
	for i, v := range s.Values {
		switch d {
		case DomainPositiveReal:
			if v <= 0 {
				return errors.DomainMismatch(fmt.Sprintf("row %d: value %v is not strictly positive", i, v))
			}
		case DomainNonNegativeInt:
			if v < 0 || v != math.Trunc(v) {
				return errors.DomainMismatch(fmt.Sprintf("row %d: value %v is not an unsigned integer", i, v))
			}
		case DomainUnitInterval:
			if v < 0 || v > 1 {
				return errors.DomainMismatch(fmt.Sprintf("row %d: value %v is outside [0, 1]", i, v))
			}
		case DomainBoundedInt:
			if v < 0 || v != math.Trunc(v) {
				return errors.DomainMismatch(fmt.Sprintf("row %d: value %v is not an unsigned integer", i, v))
			}
			if s.Capacity == nil {
				return errors.ConfigInvalid("capacity column required for bounded count families")
			}
			if v > s.Capacity[i] {
				return errors.DomainMismatch(fmt.Sprintf("row %d: value %v exceeds capacity %v", i, v, s.Capacity[i]))
			}
		}
	}
	if d == DomainBoundedInt {
		for i, c := range s.Capacity {
			if c < 1 || c != math.Trunc(c) {
				return errors.DomainMismatch(fmt.Sprintf("row %d: capacity %v is not a positive integer", i, c))
			}
		}
	}
	return nil
}
