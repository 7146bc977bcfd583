package engine

import (
	"math"
	"testing"
	"time"

	"goglam/domain/model"
)

func TestTrendAtWithoutChangepointsIsLinear(t *testing.T) {
	for _, tn := range []float64{0, 0.25, 0.5, 1, 1.5} {
		got := trendAt(tn, nil, 2, 1, nil)
		want := 2*tn + 1
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("trendAt(%v) = %v, want %v", tn, got, want)
		}
	}
}

func TestTrendAtContinuousAcrossChangepoint(t *testing.T) {
	cps := []float64{0.5}
	delta := []float64{3}
	eps := 1e-9
	before := trendAt(0.5-eps, cps, 1, 0, delta)
	after := trendAt(0.5, cps, 1, 0, delta)
	if math.Abs(after-before) > 1e-6 {
		t.Fatalf("discontinuity at changepoint: %v vs %v", before, after)
	}
	// past the changepoint the rate picks up the delta
	slope := (trendAt(0.9, cps, 1, 0, delta) - trendAt(0.6, cps, 1, 0, delta)) / 0.3
	if math.Abs(slope-4) > 1e-9 {
		t.Errorf("post-changepoint slope = %v, want 4", slope)
	}
}

func TestTrendValuesMatchesPointwise(t *testing.T) {
	cps := []float64{0.3, 0.6}
	delta := []float64{1, -2}
	grid := []float64{0, 0.2, 0.4, 0.8, 1.2}
	vals := trendValues(grid, cps, 0.5, 2, delta)
	for i, tn := range grid {
		if vals[i] != trendAt(tn, cps, 0.5, 2, delta) {
			t.Fatalf("row %d disagrees with pointwise evaluation", i)
		}
	}
}

func TestDenormalizeTrendRoundTrip(t *testing.T) {
	sc := &model.ScalingContext{
		TimeOffset:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeSpan:     100 * 24 * time.Hour,
		LinkedOffset: 5,
		LinkedScale:  20,
	}
	cps := []float64{0.3, 0.7}
	p := model.Params{K: 1.5, M: 0.2, Delta: []float64{0.4, -0.9}}

	dt := DenormalizeTrend(p, sc)

	for _, days := range []float64{0, 10, 30, 30.5, 70, 99, 130} {
		ts := sc.TimeOffset.Add(time.Duration(days * 24 * float64(time.Hour)))
		tNorm := sc.NormalizeTime(ts)
		want := trendAt(tNorm, cps, p.K, p.M, p.Delta)*sc.LinkedScale + sc.LinkedOffset
		got := EvalDenormalizedTrend(dt, sc, cps, ts)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("day %v: denormalized trend %v, want %v", days, got, want)
		}
	}
}

func TestDenormalizedTrendUnitsPerDay(t *testing.T) {
	// a unit slope over a 50-day span with linked scale 10 is 0.2 linked
	// units per day
	sc := &model.ScalingContext{
		TimeOffset:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeSpan:    50 * 24 * time.Hour,
		LinkedScale: 10,
	}
	dt := DenormalizeTrend(model.Params{K: 1}, sc)
	if math.Abs(dt.BaseRate-0.2) > 1e-12 {
		t.Fatalf("base rate = %v, want 0.2", dt.BaseRate)
	}
}
