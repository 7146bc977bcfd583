package model

import (
	"time"
)

// ScalingContext holds the per-series scalars mapping raw inputs into the
// normalized space the model is fit in, and back. It is produced once per fit
// and owned by the fitted model; every predict call reuses it unchanged.
type ScalingContext struct {
	// TimeOffset and TimeSpan map the training window onto [0, 1]:
	// tNorm = (t - TimeOffset) / TimeSpan.
	TimeOffset time.Time     `json:"time_offset"`
	TimeSpan   time.Duration `json:"time_span"`

	// LinkedOffset and LinkedScale denormalize the linear predictor on the
	// linked scale: etaLinked = eta*LinkedScale + LinkedOffset.
	LinkedOffset float64 `json:"linked_offset"`
	LinkedScale  float64 `json:"linked_scale"`

	// RegressorOffset and RegressorScale hold range-based normalization per
	// regressor column.
	RegressorOffset map[string]float64 `json:"regressor_offset,omitempty"`
	RegressorScale  map[string]float64 `json:"regressor_scale,omitempty"`

	// VarianceMax is the resolved variance ceiling the dispersion proxy is
	// bounded against.
	VarianceMax float64 `json:"variance_max"`
}

// NormalizeTime maps a timestamp into normalized model time. Times past the
// training window map beyond 1.
func (sc *ScalingContext) NormalizeTime(t time.Time) float64 {
	return float64(t.Sub(sc.TimeOffset)) / float64(sc.TimeSpan)
}

// DenormalizeTime is the inverse of NormalizeTime.
func (sc *ScalingContext) DenormalizeTime(tNorm float64) time.Time {
	return sc.TimeOffset.Add(time.Duration(tNorm * float64(sc.TimeSpan)))
}

// Params is the fitted parameter set in normalized space.
type Params struct {
	// K is the base growth rate and M the trend offset.
	K float64 `json:"k"`
	M float64 `json:"m"`
	// Delta holds one rate adjustment per changepoint. The double
	// exponential prior keeps most entries near zero.
	Delta []float64 `json:"delta"`
	// Beta holds one coefficient per design-matrix column.
	Beta []float64 `json:"beta"`
	// Kappa is the bounded dispersion proxy in (0, 1]; zero for families
	// without a dispersion parameter.
	Kappa float64 `json:"kappa"`
}

// Clone returns a deep copy; fitted parameters are immutable once published.
func (p Params) Clone() Params {
	out := p
	out.Delta = append([]float64(nil), p.Delta...)
	out.Beta = append([]float64(nil), p.Beta...)
	return out
}

// DenormalizedTrend reports the trend parameters rescaled to original units
// per unit of raw time (day), for inspection and round-trip testing.
type DenormalizedTrend struct {
	BaseRate float64   `json:"base_rate"`
	Offset   float64   `json:"offset"`
	Delta    []float64 `json:"delta"`
}

// Posterior is a bundle of parameter draws from the Gaussian approximation
// around the MAP mode. Created at fit time, consumed at predict time and
// discarded on refit.
type Posterior struct {
	Draws []Params `json:"draws"`
}

// Len returns the number of posterior draws.
func (p *Posterior) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Draws)
}
