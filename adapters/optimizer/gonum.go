// Package optimizer implements the numeric fitting backend behind
// ports.FitterPort: quasi-Newton MAP estimation with finite-difference
// derivatives, and Gaussian sampling from the local curvature at the mode
// for the Laplace approximation.
package optimizer

import (
	"context"
	"math"
	"math/rand/v2"

	"goglam/internal/errors"
	"goglam/ports"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distmv"
)

// GonumFitter minimizes the negative log posterior with L-BFGS. Gradients
// are estimated by finite differences, so callers only supply the objective.
type GonumFitter struct {
	// MaxIterations bounds the optimizer's major iterations; zero uses
	// the method default.
	MaxIterations int
}

// NewGonumFitter returns a fitter with default settings.
func NewGonumFitter() *GonumFitter {
	return &GonumFitter{}
}

// Maximize finds the MAP mode and, when requested, draws samples from the
// Gaussian approximation centered there. A failed or non-converged
// optimization returns an error with no partial result.
func (g *GonumFitter) Maximize(ctx context.Context, problem ports.FitProblem) (*ports.FitResult, error) {
	if len(problem.Init) == 0 {
		return nil, errors.InvalidInput("fit problem has no parameters")
	}
	if problem.NegLogPosterior == nil {
		return nil, errors.InvalidInput("fit problem has no objective")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// L-BFGS requires a gradient; estimate it by central finite
	// differences since callers only supply the objective.
	p := optimize.Problem{
		Func: problem.NegLogPosterior,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, problem.NegLogPosterior, x, nil)
		},
	}

	settings := &optimize.Settings{}
	if g.MaxIterations > 0 {
		settings.MajorIterations = g.MaxIterations
	}

	// The changepoint prior is non-smooth at zero, which can stall the
	// quasi-Newton line search; fall back to a derivative-free method.
	result, err := optimize.Minimize(p, problem.Init, settings, &optimize.LBFGS{})
	if err != nil || result == nil || result.Status.Err() != nil {
		result, err = optimize.Minimize(p, problem.Init, settings, &optimize.NelderMead{})
	}
	if err != nil || result == nil {
		return nil, errors.Optimization("optimizer failed", err)
	}
	if err := result.Status.Err(); err != nil {
		return nil, errors.Optimization("optimizer did not converge", err)
	}
	if !isFinite(result.F) || !allFinite(result.X) {
		return nil, errors.Optimization("optimizer produced a non-finite mode", nil)
	}

	out := &ports.FitResult{
		Mode:  append([]float64(nil), result.X...),
		Value: result.F,
	}

	if problem.Draws > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		draws, err := g.laplaceDraws(problem, result.X)
		if err != nil {
			return nil, err
		}
		out.DrawsOut = draws
	}
	return out, nil
}

// laplaceDraws samples from N(mode, H^-1) where H is the finite-difference
// Hessian of the negative log posterior at the mode, i.e. the posterior
// precision under the Laplace approximation.
func (g *GonumFitter) laplaceDraws(problem ports.FitProblem, mode []float64) ([][]float64, error) {
	dim := len(mode)
	hess := mat.NewSymDense(dim, nil)
	fd.Hessian(hess, problem.NegLogPosterior, mode, nil)

	src := rand.NewPCG(uint64(problem.Seed), uint64(problem.Seed)+1)
	normal, ok := distmv.NewNormalPrecision(mode, hess, src)
	if !ok {
		// ridge the curvature and retry before giving up; a flat
		// direction at the mode otherwise blocks sampling entirely
		for _, ridge := range []float64{1e-8, 1e-6, 1e-4} {
			ridged := mat.NewSymDense(dim, nil)
			ridged.CopySym(hess)
			for i := 0; i < dim; i++ {
				ridged.SetSym(i, i, ridged.At(i, i)+ridge)
			}
			if normal, ok = distmv.NewNormalPrecision(mode, ridged, src); ok {
				break
			}
		}
		if !ok {
			return nil, errors.Optimization("curvature at mode is not positive definite", nil)
		}
	}

	draws := make([][]float64, problem.Draws)
	for i := range draws {
		draws[i] = normal.Rand(nil)
	}
	return draws, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
