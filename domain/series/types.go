package series

import (
	"time"
)

// Series is an ordered univariate observation series with optional external
// regressor columns. Timestamps must be strictly increasing; values are
// interpreted according to the likelihood family the model is fit with.
type Series struct {
	Timestamps []time.Time
	Values     []float64

	// Capacity holds the per-row trial count N for the binomial and
	// beta-binomial families. Nil for every other family.
	Capacity []float64

	// Regressors maps a column name to one value per row.
	Regressors map[string][]float64
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Timestamps)
}

// Span returns the duration between the first and last observation.
func (s *Series) Span() time.Duration {
	if len(s.Timestamps) < 2 {
		return 0
	}
	return s.Timestamps[len(s.Timestamps)-1].Sub(s.Timestamps[0])
}

// Frequency estimates the sampling cadence as the median gap between
// consecutive timestamps.
func (s *Series) Frequency() time.Duration {
	n := len(s.Timestamps)
	if n < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, n-1)
	for i := 1; i < n; i++ {
		gaps = append(gaps, s.Timestamps[i].Sub(s.Timestamps[i-1]))
	}
	// insertion sort; gap slices are short-lived and usually near-sorted
	for i := 1; i < len(gaps); i++ {
		for j := i; j > 0 && gaps[j] < gaps[j-1]; j-- {
			gaps[j], gaps[j-1] = gaps[j-1], gaps[j]
		}
	}
	return gaps[len(gaps)/2]
}

// FutureGrid continues the series cadence for horizon additional steps past
// the last training timestamp, optionally including the training timestamps
// themselves.
func (s *Series) FutureGrid(horizon int, includeHistory bool) []time.Time {
	freq := s.Frequency()
	out := make([]time.Time, 0, horizon+len(s.Timestamps))
	if includeHistory {
		out = append(out, s.Timestamps...)
	}
	last := s.Timestamps[len(s.Timestamps)-1]
	for i := 1; i <= horizon; i++ {
		out = append(out, last.Add(time.Duration(i)*freq))
	}
	return out
}
