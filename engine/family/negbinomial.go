package family

import (
	"math"

	"goglam/domain/series"

	"gonum.org/v1/gonum/mathext"
)

// NegativeBinomial is the overdispersed count family with log link. The
// dispersion proxy sets the implied variance as varianceMax*kappa^2, clamped
// per-observation to stay strictly above the mean (the negative binomial's
// lower variance bound); the size parameter follows as r = mu^2/(v - mu).
type NegativeBinomial struct{}

func (NegativeBinomial) Name() string               { return "negbinomial" }
func (NegativeBinomial) Domain() series.ValueDomain { return series.DomainNonNegativeInt }
func (NegativeBinomial) HasDispersion() bool        { return true }

func (NegativeBinomial) Link(mu float64) float64 {
	return math.Log(math.Max(mu, Epsilon))
}

func (NegativeBinomial) InvLink(eta float64) float64 { return math.Exp(eta) }

func (f NegativeBinomial) Mean(etaLinked, _ float64) float64 { return f.InvLink(etaLinked) }

// size returns the mean and size parameter r implied by the linked predictor
// and dispersion proxy.
func (f NegativeBinomial) size(etaLinked, kappa, varianceMax float64) (mu, r float64) {
	mu = math.Max(f.InvLink(etaLinked), Epsilon)
	kappa = clipKappa(kappa)

	v := varianceMax * kappa * kappa
	vFloor := mu * (1 + Epsilon)
	if v <= vFloor {
		v = vFloor
	}
	r = mu * mu / (v - mu)
	return mu, r
}

func (f NegativeBinomial) LogLikelihood(y, etaLinked, kappa, _, varianceMax float64) float64 {
	mu, r := f.size(etaLinked, kappa, varianceMax)
	lgYR, _ := math.Lgamma(y + r)
	lgR, _ := math.Lgamma(r)
	lgY1, _ := math.Lgamma(y + 1)
	return lgYR - lgR - lgY1 + r*math.Log(r/(r+mu)) + y*math.Log(mu/(r+mu))
}

// cdf is the regularized incomplete beta form of the negative binomial CDF:
// P(X <= k) = I_{r/(r+mu)}(r, k+1).
func (f NegativeBinomial) cdf(k, mu, r float64) float64 {
	if k < 0 {
		return 0
	}
	return mathext.RegIncBeta(r, math.Floor(k)+1, r/(r+mu))
}

func (f NegativeBinomial) Quantile(p, etaLinked, kappa, _, varianceMax float64) float64 {
	mu, r := f.size(etaLinked, kappa, varianceMax)
	sd := math.Sqrt(mu + mu*mu/r)
	return countQuantile(p, mu+3*sd, func(k float64) float64 { return f.cdf(k, mu, r) })
}

func (NegativeBinomial) LinkedScaling(values []float64) (offset, scale float64) {
	_, hi := valueRange(values)
	scale = math.Log1p(hi)
	if scale <= 0 {
		scale = 1
	}
	return 0, scale
}

func (NegativeBinomial) DefaultVarianceMax(values []float64) float64 {
	lo, hi := valueRange(values)
	r := hi - lo
	// the ceiling must admit variance above the largest observed mean
	return math.Max(r*r, 2*math.Max(hi, 1))
}
