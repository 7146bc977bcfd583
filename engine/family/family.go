// Package family implements the likelihood families a model can be fit
// under. Each family bundles its link function, dispersion parameterization,
// log likelihood and quantile function behind one interface so the engine
// never branches on a concrete distribution.
package family

import (
	"fmt"
	"math"
	"sort"

	"goglam/domain/series"
	"goglam/internal/errors"
)

// Epsilon keeps proportions away from the exact 0/1 boundaries before logit
// and quantile evaluation.
const Epsilon = 1e-8

// Family is one observation-noise distribution. All methods are pure and
// safe for concurrent use.
//
// etaLinked is the denormalized linear predictor on the linked scale; each
// family maps it to its own natural parameters via the inverse link. kappa is
// the bounded dispersion proxy in (0, 1], ignored by families without a
// dispersion parameter. capacity is the per-row trial count for bounded
// count families and zero elsewhere.
type Family interface {
	Name() string
	Domain() series.ValueDomain
	HasDispersion() bool

	// Link maps a mean-scale value to the linear predictor scale.
	Link(mu float64) float64
	// InvLink maps the linked linear predictor back to the natural
	// location parameter (mean for most families, success probability for
	// the bounded count families).
	InvLink(eta float64) float64

	// Mean is the expected observation implied by the linked predictor.
	Mean(etaLinked, capacity float64) float64

	// LogLikelihood evaluates one observation's log density.
	LogLikelihood(y, etaLinked, kappa, capacity, varianceMax float64) float64

	// Quantile evaluates the observation distribution's percent-point
	// function at probability p.
	Quantile(p, etaLinked, kappa, capacity, varianceMax float64) float64

	// LinkedScaling derives the scaling context's linked offset and scale
	// from the raw training values.
	LinkedScaling(values []float64) (offset, scale float64)

	// DefaultVarianceMax derives the dispersion ceiling from the raw
	// training values when the configuration does not pin one.
	DefaultVarianceMax(values []float64) float64
}

var registry = map[string]Family{}

func register(f Family) {
	registry[f.Name()] = f
}

func init() {
	register(Normal{})
	register(Poisson{})
	register(Gamma{})
	register(Beta{})
	register(NegativeBinomial{})
	register(BetaBinomial{})
	register(Binomial{})
}

// Lookup resolves a family by its configuration tag.
func Lookup(name string) (Family, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown model family %q (known: %v)", name, Names()))
	}
	return f, nil
}

// Names lists the registered family tags in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// clipUnit pulls a proportion away from the exact 0/1 boundaries.
func clipUnit(p float64) float64 {
	if p < Epsilon {
		return Epsilon
	}
	if p > 1-Epsilon {
		return 1 - Epsilon
	}
	return p
}

// clipKappa bounds the dispersion proxy to (0, 1].
func clipKappa(kappa float64) float64 {
	if kappa < Epsilon {
		return Epsilon
	}
	if kappa > 1 {
		return 1
	}
	return kappa
}

func logit(p float64) float64 {
	p = clipUnit(p)
	return math.Log(p / (1 - p))
}

func sigmoid(eta float64) float64 {
	if eta >= 0 {
		return 1 / (1 + math.Exp(-eta))
	}
	e := math.Exp(eta)
	return e / (1 + e)
}

// valueRange returns min and max of a slice.
func valueRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// countQuantile finds the smallest non-negative integer k with
// cdf(k) >= p by bracketing upward from a starting guess and then
// bisecting. cdf must be monotone in k.
func countQuantile(p float64, start float64, cdf func(k float64) float64) float64 {
	if p <= 0 {
		return 0
	}
	lo := 0.0
	hi := math.Max(1, math.Ceil(start))
	for cdf(hi) < p {
		lo = hi
		hi *= 2
		if hi > 1e15 {
			return hi
		}
	}
	for hi-lo > 0.5 {
		mid := math.Floor((lo + hi) / 2)
		if mid <= lo {
			break
		}
		if cdf(mid) >= p {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// boundedCountQuantile finds the smallest integer k in [0, n] with
// cdf(k) >= p.
func boundedCountQuantile(p float64, n float64, cdf func(k float64) float64) float64 {
	if p <= 0 {
		return 0
	}
	lo, hi := 0.0, n
	if cdf(lo) >= p {
		return lo
	}
	for hi-lo > 0.5 {
		mid := math.Floor((lo + hi) / 2)
		if mid <= lo {
			break
		}
		if cdf(mid) >= p {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// lchoose is log of the binomial coefficient C(n, k).
func lchoose(n, k float64) float64 {
	a, _ := math.Lgamma(n + 1)
	b, _ := math.Lgamma(k + 1)
	c, _ := math.Lgamma(n - k + 1)
	return a - b - c
}
