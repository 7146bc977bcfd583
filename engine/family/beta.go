package family

import (
	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

// Beta is the proportion family on [0, 1] with logit link. The dispersion
// proxy sets the implied variance as varianceMax*kappa^2, clamped
// per-observation so it stays strictly below mu*(1-mu), the theoretical
// maximum for a beta variable with that mean.
type Beta struct{}

func (Beta) Name() string               { return "beta" }
func (Beta) Domain() series.ValueDomain { return series.DomainUnitInterval }
func (Beta) HasDispersion() bool        { return true }

func (Beta) Link(mu float64) float64    { return logit(mu) }
func (Beta) InvLink(eta float64) float64 { return sigmoid(eta) }

func (f Beta) Mean(etaLinked, _ float64) float64 { return f.InvLink(etaLinked) }

func (f Beta) dist(etaLinked, kappa, varianceMax float64) distuv.Beta {
	mu := clipUnit(f.InvLink(etaLinked))
	kappa = clipKappa(kappa)

	v := varianceMax * kappa * kappa
	vCeil := mu * (1 - mu) * (1 - Epsilon)
	if v >= vCeil {
		v = vCeil
	}
	nu := mu*(1-mu)/v - 1
	if nu < Epsilon {
		nu = Epsilon
	}
	return distuv.Beta{Alpha: mu * nu, Beta: (1 - mu) * nu}
}

func (f Beta) LogLikelihood(y, etaLinked, kappa, _, varianceMax float64) float64 {
	return f.dist(etaLinked, kappa, varianceMax).LogProb(clipUnit(y))
}

func (f Beta) Quantile(p, etaLinked, kappa, _, varianceMax float64) float64 {
	return f.dist(etaLinked, kappa, varianceMax).Quantile(p)
}

func (Beta) LinkedScaling(values []float64) (offset, scale float64) {
	return 0, 1
}

func (Beta) DefaultVarianceMax(values []float64) float64 {
	// 0.25 is the variance ceiling of any [0,1] variable
	return 0.25
}
