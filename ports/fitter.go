package ports

import (
	"context"
)

// FitProblem describes one maximum-a-posteriori estimation problem. The
// engine hands the backend an opaque negative log posterior over a flat
// parameter vector; the backend never sees family or design internals.
type FitProblem struct {
	// Init is the starting point; its length fixes the dimension.
	Init []float64

	// NegLogPosterior evaluates -(log likelihood + log priors) at x.
	// It must be safe for concurrent calls.
	NegLogPosterior func(x []float64) float64

	// Draws requests that many samples from the local Gaussian
	// approximation at the mode. Zero disables Laplace sampling.
	Draws int

	// Seed makes the Gaussian draws reproducible.
	Seed int64
}

// FitResult carries the mode estimate and any requested posterior draws.
type FitResult struct {
	// Mode is the MAP parameter vector.
	Mode []float64

	// Value is the negative log posterior at the mode.
	Value float64

	// DrawsOut holds Draws samples from the Laplace approximation, one
	// parameter vector per entry. Empty when no draws were requested.
	DrawsOut [][]float64
}

// FitterPort is the numeric backend contract: maximize the log posterior and
// optionally sample from a Gaussian approximation at the mode. A backend
// that fails to converge returns an error and no partial result.
type FitterPort interface {
	Maximize(ctx context.Context, problem FitProblem) (*FitResult, error)
}
