package family

import (
	"math"

	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normal is the Gaussian family with identity link. The dispersion proxy
// scales the standard deviation against the variance ceiling:
// sigma = sqrt(varianceMax) * kappa.
type Normal struct{}

func (Normal) Name() string               { return "normal" }
func (Normal) Domain() series.ValueDomain { return series.DomainReal }
func (Normal) HasDispersion() bool        { return true }

func (Normal) Link(mu float64) float64    { return mu }
func (Normal) InvLink(eta float64) float64 { return eta }

func (Normal) Mean(etaLinked, _ float64) float64 { return etaLinked }

func (Normal) sigma(kappa, varianceMax float64) float64 {
	return math.Sqrt(varianceMax) * clipKappa(kappa)
}

func (f Normal) LogLikelihood(y, etaLinked, kappa, _, varianceMax float64) float64 {
	dist := distuv.Normal{Mu: etaLinked, Sigma: f.sigma(kappa, varianceMax)}
	return dist.LogProb(y)
}

func (f Normal) Quantile(p, etaLinked, kappa, _, varianceMax float64) float64 {
	dist := distuv.Normal{Mu: etaLinked, Sigma: f.sigma(kappa, varianceMax)}
	return dist.Quantile(p)
}

func (Normal) LinkedScaling(values []float64) (offset, scale float64) {
	lo, hi := valueRange(values)
	scale = hi - lo
	if scale <= 0 {
		scale = 1
	}
	return lo, scale
}

func (Normal) DefaultVarianceMax(values []float64) float64 {
	lo, hi := valueRange(values)
	r := hi - lo
	if r <= 0 {
		return 1
	}
	return r * r
}
