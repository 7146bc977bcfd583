package optimizer

import (
	"context"
	"math"
	"testing"

	"goglam/ports"
)

// quadratic centered at (2, -3) with unit curvature per coordinate.
func quadratic(x []float64) float64 {
	dx := x[0] - 2
	dy := x[1] + 3
	return 0.5 * (dx*dx + dy*dy)
}

func TestMaximizeFindsMode(t *testing.T) {
	f := NewGonumFitter()
	res, err := f.Maximize(context.Background(), ports.FitProblem{
		Init:            []float64{0, 0},
		NegLogPosterior: quadratic,
	})
	if err != nil {
		t.Fatalf("maximize failed: %v", err)
	}
	if math.Abs(res.Mode[0]-2) > 1e-4 || math.Abs(res.Mode[1]+3) > 1e-4 {
		t.Errorf("mode = %v, want (2, -3)", res.Mode)
	}
	if res.Value > 1e-6 {
		t.Errorf("objective at mode = %v, want near 0", res.Value)
	}
	if len(res.DrawsOut) != 0 {
		t.Errorf("draws were not requested but %d returned", len(res.DrawsOut))
	}
}

func TestMaximizeHandlesNonSmoothObjective(t *testing.T) {
	// |x| + quadratic mimics the double exponential changepoint prior
	f := NewGonumFitter()
	obj := func(x []float64) float64 {
		return math.Abs(x[0]) + 0.5*(x[1]-1)*(x[1]-1)
	}
	res, err := f.Maximize(context.Background(), ports.FitProblem{
		Init:            []float64{0.5, 0},
		NegLogPosterior: obj,
	})
	if err != nil {
		t.Fatalf("maximize failed on non-smooth objective: %v", err)
	}
	if math.Abs(res.Mode[0]) > 0.01 || math.Abs(res.Mode[1]-1) > 0.01 {
		t.Errorf("mode = %v, want near (0, 1)", res.Mode)
	}
}

func TestMaximizeSurfacesFailureInsteadOfPanicking(t *testing.T) {
	// binomial-style log posterior over a logit success rate, the shape the
	// forecasting engine hands over; trouble must come back as an error,
	// never a panic from the optimizer internals
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Maximize panicked: %v", r)
		}
	}()

	trials := 25.0
	counts := []float64{9, 11, 10, 8, 12, 10, 9, 11}
	obj := func(x []float64) float64 {
		p := 1 / (1 + math.Exp(-x[0]))
		nll := 0.5 * x[0] * x[0] / 25
		for _, c := range counts {
			nll -= c*math.Log(p) + (trials-c)*math.Log(1-p)
		}
		return nll
	}

	f := NewGonumFitter()
	res, err := f.Maximize(context.Background(), ports.FitProblem{
		Init:            []float64{0},
		NegLogPosterior: obj,
	})
	if err != nil {
		t.Fatalf("maximize failed: %v", err)
	}
	if p := 1 / (1 + math.Exp(-res.Mode[0])); math.Abs(p-0.4) > 0.02 {
		t.Errorf("fitted success rate %v, want near 0.4", p)
	}
}

func TestMaximizeDrawsFromCurvature(t *testing.T) {
	f := NewGonumFitter()
	res, err := f.Maximize(context.Background(), ports.FitProblem{
		Init:            []float64{1, 1},
		NegLogPosterior: quadratic,
		Draws:           500,
		Seed:            42,
	})
	if err != nil {
		t.Fatalf("maximize failed: %v", err)
	}
	if len(res.DrawsOut) != 500 {
		t.Fatalf("expected 500 draws, got %d", len(res.DrawsOut))
	}

	// unit curvature means draws are standard normal around the mode
	var mean0, mean1 float64
	for _, d := range res.DrawsOut {
		mean0 += d[0]
		mean1 += d[1]
	}
	mean0 /= float64(len(res.DrawsOut))
	mean1 /= float64(len(res.DrawsOut))
	if math.Abs(mean0-2) > 0.2 || math.Abs(mean1+3) > 0.2 {
		t.Errorf("draw means (%v, %v) stray from the mode (2, -3)", mean0, mean1)
	}

	var v0 float64
	for _, d := range res.DrawsOut {
		v0 += (d[0] - mean0) * (d[0] - mean0)
	}
	v0 /= float64(len(res.DrawsOut) - 1)
	if v0 < 0.5 || v0 > 2 {
		t.Errorf("draw variance %v inconsistent with unit curvature", v0)
	}
}

func TestMaximizeDeterministicDraws(t *testing.T) {
	f := NewGonumFitter()
	problem := ports.FitProblem{
		Init:            []float64{0, 0},
		NegLogPosterior: quadratic,
		Draws:           10,
		Seed:            7,
	}
	a, err := f.Maximize(context.Background(), problem)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Maximize(context.Background(), problem)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.DrawsOut {
		for j := range a.DrawsOut[i] {
			if a.DrawsOut[i][j] != b.DrawsOut[i][j] {
				t.Fatal("same seed must reproduce the same draws")
			}
		}
	}
}

func TestMaximizeValidatesProblem(t *testing.T) {
	f := NewGonumFitter()
	if _, err := f.Maximize(context.Background(), ports.FitProblem{NegLogPosterior: quadratic}); err == nil {
		t.Error("expected error for empty init vector")
	}
	if _, err := f.Maximize(context.Background(), ports.FitProblem{Init: []float64{0}}); err == nil {
		t.Error("expected error for missing objective")
	}
}

func TestMaximizeHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewGonumFitter()
	if _, err := f.Maximize(ctx, ports.FitProblem{Init: []float64{0, 0}, NegLogPosterior: quadratic}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
