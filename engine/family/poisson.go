package family

import (
	"math"

	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

// Poisson is the count family with log link. Variance equals the mean, so
// there is no dispersion parameter.
type Poisson struct{}

func (Poisson) Name() string               { return "poisson" }
func (Poisson) Domain() series.ValueDomain { return series.DomainNonNegativeInt }
func (Poisson) HasDispersion() bool        { return false }

func (Poisson) Link(mu float64) float64 {
	return math.Log(math.Max(mu, Epsilon))
}

func (Poisson) InvLink(eta float64) float64 { return math.Exp(eta) }

func (f Poisson) Mean(etaLinked, _ float64) float64 { return f.InvLink(etaLinked) }

func (f Poisson) LogLikelihood(y, etaLinked, _, _, _ float64) float64 {
	lambda := f.InvLink(etaLinked)
	lg, _ := math.Lgamma(y + 1)
	return y*etaLinked - lambda - lg
}

func (f Poisson) Quantile(p, etaLinked, _, _, _ float64) float64 {
	lambda := f.InvLink(etaLinked)
	dist := distuv.Poisson{Lambda: lambda}
	start := lambda + 3*math.Sqrt(lambda)
	return countQuantile(p, start, dist.CDF)
}

func (Poisson) LinkedScaling(values []float64) (offset, scale float64) {
	_, hi := valueRange(values)
	scale = math.Log1p(hi)
	if scale <= 0 {
		scale = 1
	}
	return 0, scale
}

func (Poisson) DefaultVarianceMax(values []float64) float64 {
	// unused: the Poisson variance is fixed by its mean
	_, hi := valueRange(values)
	return math.Max(hi, 1)
}
