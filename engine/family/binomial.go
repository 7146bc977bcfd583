package family

import (
	"math"

	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

// Binomial is the bounded count family with logit link on the per-trial
// success probability. The per-row capacity supplies the trial count; the
// variance is fixed by mean and capacity, so there is no dispersion
// parameter.
type Binomial struct{}

func (Binomial) Name() string               { return "binomial" }
func (Binomial) Domain() series.ValueDomain { return series.DomainBoundedInt }
func (Binomial) HasDispersion() bool        { return false }

func (Binomial) Link(mu float64) float64    { return logit(mu) }
func (Binomial) InvLink(eta float64) float64 { return sigmoid(eta) }

func (f Binomial) Mean(etaLinked, capacity float64) float64 {
	return capacity * f.InvLink(etaLinked)
}

func (f Binomial) LogLikelihood(y, etaLinked, _, capacity, _ float64) float64 {
	p := clipUnit(f.InvLink(etaLinked))
	dist := distuv.Binomial{N: capacity, P: p}
	return dist.LogProb(y)
}

func (f Binomial) Quantile(prob, etaLinked, _, capacity, _ float64) float64 {
	p := clipUnit(f.InvLink(etaLinked))
	dist := distuv.Binomial{N: capacity, P: p}
	return boundedCountQuantile(prob, capacity, dist.CDF)
}

func (Binomial) LinkedScaling(values []float64) (offset, scale float64) {
	return 0, 1
}

func (Binomial) DefaultVarianceMax(values []float64) float64 {
	// unused: the binomial variance is fixed by p and capacity
	_, hi := valueRange(values)
	return math.Max(hi, 1)
}
