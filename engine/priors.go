package engine

import (
	"math"

	"goglam/domain/model"
)

// Prior scales fixed by the model rather than the configuration.
const (
	trendPriorScale = 5.0
	// deltaStabilizerScale is the weak Gaussian supplementing the sparse
	// double-exponential prior on the rate adjustments; it keeps the
	// posterior proper when a changepoint basis column is unidentified.
	deltaStabilizerScale = 10.0
)

func normalLogPdf(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
}

func laplaceLogPdf(x, mu, scale float64) float64 {
	return -math.Abs(x-mu)/scale - math.Log(2*scale)
}

// paramShape fixes the flat parameter-vector layout:
// [k, m, delta..., beta..., q] with q the unconstrained dispersion proxy.
type paramShape struct {
	nDelta        int
	nBeta         int
	hasDispersion bool
}

func (ps paramShape) dim() int {
	n := 2 + ps.nDelta + ps.nBeta
	if ps.hasDispersion {
		n++
	}
	return n
}

// unpack splits a flat vector into named parameters. The dispersion proxy is
// kept bounded via the logistic transform kappa = sigmoid(q).
func (ps paramShape) unpack(x []float64) model.Params {
	p := model.Params{K: x[0], M: x[1]}
	p.Delta = append([]float64(nil), x[2:2+ps.nDelta]...)
	p.Beta = append([]float64(nil), x[2+ps.nDelta:2+ps.nDelta+ps.nBeta]...)
	if ps.hasDispersion {
		p.Kappa = logistic(x[len(x)-1])
	}
	return p
}

func logistic(q float64) float64 {
	if q >= 0 {
		return 1 / (1 + math.Exp(-q))
	}
	e := math.Exp(q)
	return e / (1 + e)
}

// logPriors evaluates the joint log prior over the flat vector: normal on k
// and m, Laplace plus a weak normal stabilizer on each delta, per-column
// normal on the regression coefficients, normal on the unconstrained
// dispersion proxy.
func logPriors(x []float64, ps paramShape, cfg *model.Config, cols []Column) float64 {
	lp := normalLogPdf(x[0], 0, trendPriorScale)
	lp += normalLogPdf(x[1], 0, trendPriorScale)

	for j := 0; j < ps.nDelta; j++ {
		d := x[2+j]
		lp += laplaceLogPdf(d, 0, cfg.ChangepointPriorScale)
		lp += normalLogPdf(d, 0, deltaStabilizerScale)
	}
	for i := 0; i < ps.nBeta; i++ {
		lp += normalLogPdf(x[2+ps.nDelta+i], 0, cols[i].PriorScale)
	}
	if ps.hasDispersion {
		lp += normalLogPdf(x[len(x)-1], 0, cfg.DispersionPriorScale)
	}
	return lp
}
