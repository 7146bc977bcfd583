package family

import (
	"math"

	"goglam/domain/series"

	"gonum.org/v1/gonum/mathext"
)

// BetaBinomial is the overdispersed bounded count family with logit link on
// the per-trial success probability. The dispersion proxy maps to the
// intra-class correlation rho = kappa^2, which inflates the binomial
// variance by 1 + (n-1)*rho.
type BetaBinomial struct{}

func (BetaBinomial) Name() string               { return "betabinomial" }
func (BetaBinomial) Domain() series.ValueDomain { return series.DomainBoundedInt }
func (BetaBinomial) HasDispersion() bool        { return true }

func (BetaBinomial) Link(mu float64) float64    { return logit(mu) }
func (BetaBinomial) InvLink(eta float64) float64 { return sigmoid(eta) }

func (f BetaBinomial) Mean(etaLinked, capacity float64) float64 {
	return capacity * f.InvLink(etaLinked)
}

// shapes derives the beta mixing parameters from the linked predictor and
// dispersion proxy.
func (f BetaBinomial) shapes(etaLinked, kappa float64) (alpha, beta float64) {
	p := clipUnit(f.InvLink(etaLinked))
	rho := clipKappa(kappa)
	rho = clipUnit(rho * rho)
	nu := (1 - rho) / rho
	return p * nu, (1 - p) * nu
}

func (f BetaBinomial) logProb(y, n, alpha, beta float64) float64 {
	return lchoose(n, y) +
		mathext.Lbeta(y+alpha, n-y+beta) -
		mathext.Lbeta(alpha, beta)
}

func (f BetaBinomial) LogLikelihood(y, etaLinked, kappa, capacity, _ float64) float64 {
	alpha, beta := f.shapes(etaLinked, kappa)
	return f.logProb(y, capacity, alpha, beta)
}

func (f BetaBinomial) Quantile(prob, etaLinked, kappa, capacity, _ float64) float64 {
	alpha, beta := f.shapes(etaLinked, kappa)

	// cumulative pmf over the bounded support; capacities are modest in
	// practice so the direct sum is fine
	cum := make([]float64, int(capacity)+1)
	total := 0.0
	for k := 0; k <= int(capacity); k++ {
		total += math.Exp(f.logProb(float64(k), capacity, alpha, beta))
		cum[k] = total
	}
	cdf := func(k float64) float64 {
		idx := int(math.Floor(k))
		if idx < 0 {
			return 0
		}
		if idx >= len(cum) {
			idx = len(cum) - 1
		}
		// normalize against accumulated rounding
		return cum[idx] / total
	}
	return boundedCountQuantile(prob, capacity, cdf)
}

func (BetaBinomial) LinkedScaling(values []float64) (offset, scale float64) {
	return 0, 1
}

func (BetaBinomial) DefaultVarianceMax(values []float64) float64 {
	// unused: dispersion maps through the intra-class correlation instead
	_, hi := valueRange(values)
	return math.Max(hi, 1)
}
